package apikey

import "github.com/google/uuid"

// HasTenantAccess reports whether the key may act on the tenant at all.
func (k *Key) HasTenantAccess(tenantID uuid.UUID) bool {
	return k.TenantID == tenantID
}

// HasProjectAccess reports whether the key may act on a project within a
// tenant. Tenant-wide keys reach every project; project-scoped keys reach
// exactly their bound project.
//
// Callers on child-resource paths must render a denial identically to a
// missing resource, so a rejected caller can't learn whether the project
// exists.
func (k *Key) HasProjectAccess(tenantID, projectID uuid.UUID) bool {
	if !k.HasTenantAccess(tenantID) {
		return false
	}
	return k.ProjectID == nil || *k.ProjectID == projectID
}
