package secret

import (
	"strings"

	"github.com/google/uuid"
)

// FindProject returns the project with the given id, or nil.
func (t *Tenant) FindProject(id uuid.UUID) *Project {
	for i := range t.Projects {
		if t.Projects[i].ID == id {
			return &t.Projects[i]
		}
	}
	return nil
}

// DefaultProject returns the project a tenant-wide key falls back to when a
// fetch names none: the lexicographically smallest project id. The tie-break
// is explicit so it doesn't depend on join row order.
func (t *Tenant) DefaultProject() *Project {
	var best *Project
	for i := range t.Projects {
		if best == nil || t.Projects[i].ID.String() < best.ID.String() {
			best = &t.Projects[i]
		}
	}
	return best
}

// FindAnima returns the first anima matching the definition, ignoring case
// and environment, or nil.
func (p *Project) FindAnima(definition string) *Anima {
	for i := range p.Animas {
		if strings.EqualFold(p.Animas[i].Definition, definition) {
			return &p.Animas[i]
		}
	}
	return nil
}

// FindAnimaIn returns the anima matching definition (case-insensitive) and
// environment (exact), or nil.
func (p *Project) FindAnimaIn(definition string, env EnvironmentType) *Anima {
	for i := range p.Animas {
		if strings.EqualFold(p.Animas[i].Definition, definition) && p.Animas[i].Environment == env {
			return &p.Animas[i]
		}
	}
	return nil
}

// AnimasIn returns the project's animas restricted to one environment.
func (p *Project) AnimasIn(env EnvironmentType) []Anima {
	filtered := make([]Anima, 0, len(p.Animas))
	for _, a := range p.Animas {
		if a.Environment == env {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
