package apikey

import "context"

// Repository provides persistence for API keys, addressed by token hash.
type Repository interface {
	Insert(ctx context.Context, hash string, key *Key) error
	GetByHash(ctx context.Context, hash string) (*Key, error)
	TouchLastUsed(ctx context.Context, hash string) error
}
