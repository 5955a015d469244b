package secret

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Row mirrors one row of the tenants → projects → animas left outer join.
// Project and anima columns are nullable: a tenant without projects, or a
// project without animas, still produces one row.
type Row struct {
	TenantID   uuid.UUID
	TenantName string

	ProjectID          uuid.NullUUID
	ProjectName        sql.NullString
	ProjectDescription sql.NullString

	AnimaDefinition  sql.NullString
	AnimaValue       sql.NullString
	AnimaDescription sql.NullString
	AnimaEnvironment sql.NullString
}

// tenantAcc accumulates one tenant's subtree while rows stream in. Projects
// are kept as pointers so later rows can append animas; the graph is frozen
// into plain values once all rows are consumed.
type tenantAcc struct {
	id       uuid.UUID
	name     string
	projects []*projectAcc
}

type projectAcc struct {
	id          uuid.UUID
	name        string
	description string
	animas      []Anima
}

// BuildTenants reconstructs the nested Tenant → Project → Anima graph from a
// flattened join result. Each distinct tenant and project id appears exactly
// once in the output regardless of join fan-out; first-seen field values win
// and first-seen order is preserved. Anima rows whose project id was never
// registered are skipped, which defends against malformed row streams.
func BuildTenants(rows []Row) ([]Tenant, error) {
	tenants := make(map[uuid.UUID]*tenantAcc)
	projects := make(map[uuid.UUID]*projectAcc)
	var order []uuid.UUID

	for _, row := range rows {
		acc, ok := tenants[row.TenantID]
		if !ok {
			acc = &tenantAcc{id: row.TenantID, name: row.TenantName}
			tenants[row.TenantID] = acc
			order = append(order, row.TenantID)
		}

		if row.ProjectID.Valid {
			if _, seen := projects[row.ProjectID.UUID]; !seen {
				proj := &projectAcc{
					id:          row.ProjectID.UUID,
					name:        row.ProjectName.String,
					description: row.ProjectDescription.String,
				}
				projects[proj.id] = proj
				acc.projects = append(acc.projects, proj)
			}
		}

		if row.AnimaDefinition.Valid && row.ProjectID.Valid {
			proj, seen := projects[row.ProjectID.UUID]
			if !seen {
				continue
			}
			env, err := ParseEnvironment(row.AnimaEnvironment.String)
			if err != nil {
				return nil, fmt.Errorf("%w: anima %q in project %s has environment %q",
					ErrDataIntegrity, row.AnimaDefinition.String, proj.id, row.AnimaEnvironment.String)
			}
			proj.animas = append(proj.animas, Anima{
				Definition:  row.AnimaDefinition.String,
				Value:       row.AnimaValue.String,
				Description: row.AnimaDescription.String,
				Environment: env,
			})
		}
	}

	result := make([]Tenant, 0, len(order))
	for _, id := range order {
		result = append(result, tenants[id].freeze())
	}
	return result, nil
}

// BuildTenant is the point-lookup variant of BuildTenants: zero rows means
// the tenant doesn't exist.
func BuildTenant(rows []Row) (*Tenant, error) {
	tenants, err := BuildTenants(rows)
	if err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, ErrTenantNotFound
	}
	return &tenants[0], nil
}

func (t *tenantAcc) freeze() Tenant {
	projects := make([]Project, 0, len(t.projects))
	for _, p := range t.projects {
		animas := p.animas
		if animas == nil {
			animas = []Anima{}
		}
		projects = append(projects, Project{
			ID:          p.id,
			Name:        p.name,
			Description: p.description,
			Animas:      animas,
		})
	}
	return Tenant{ID: t.id, Name: t.name, Projects: projects}
}
