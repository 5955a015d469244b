package secret

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EnvironmentType classifies the deployment stage a secret belongs to.
// The textual form is both the wire and the storage representation.
type EnvironmentType string

const (
	Development EnvironmentType = "DEVELOPMENT"
	Staging     EnvironmentType = "STAGING"
	Production  EnvironmentType = "PRODUCTION"
)

// DefaultEnvironment is assumed when a fetch does not name a stage.
const DefaultEnvironment = Development

// ParseEnvironment converts free text (query parameter, stored column) into
// an EnvironmentType. Matching is case-insensitive; anything outside the
// closed set fails with ErrInvalidEnvironment carrying the offending value.
func ParseEnvironment(s string) (EnvironmentType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(Development):
		return Development, nil
	case string(Staging):
		return Staging, nil
	case string(Production):
		return Production, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEnvironment, s)
	}
}

// Anima is a single named secret value scoped to one environment.
type Anima struct {
	Definition  string          `json:"definition"`
	Value       string          `json:"value"`
	Description string          `json:"description,omitempty"`
	Environment EnvironmentType `json:"environment"`
}

// Project groups secrets under a tenant. It exclusively owns its animas.
type Project struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Animas      []Anima   `json:"animas"`
}

// Tenant is the top-level isolation boundary. It exclusively owns its projects.
type Tenant struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Projects []Project `json:"projects"`
}
