package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/animavault/cerberus/internal/domain/apikey"
	"github.com/animavault/cerberus/internal/domain/secret"
	"github.com/animavault/cerberus/internal/sqlite"
	"github.com/animavault/cerberus/internal/transport"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// testEnv wires the real stack end to end: in-memory SQLite, the domain
// services, and the router. Tests drive it through HTTP; the services are
// exposed for seeding fixtures the API deliberately has no route for.
type testEnv struct {
	handler http.Handler
	secrets *secret.Service
	keys    *apikey.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	secrets := secret.NewService(sqlite.NewTenantRepository(db), logger)
	keys := apikey.NewService(sqlite.NewAPIKeyRepository(db), logger)

	return &testEnv{
		handler: transport.NewRouter(secrets, keys, logger),
		secrets: secrets,
		keys:    keys,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// bootstrap provisions the first tenant over HTTP and returns its id with a
// tenant-wide raw key.
func (e *testEnv) bootstrap(t *testing.T, name string) (uuid.UUID, string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/bootstrap", "", map[string]string{"tenant_name": name})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		TenantID uuid.UUID `json:"tenant_id"`
		APIKey   string    `json:"api_key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.TenantID, resp.APIKey
}

// seedTenant creates an extra tenant directly through the service layer; the
// API only ever provisions the first tenant via bootstrap.
func (e *testEnv) seedTenant(t *testing.T, name string) (uuid.UUID, string) {
	t.Helper()

	tenantID, err := e.secrets.CreateTenant(context.Background(), name)
	require.NoError(t, err)
	_, raw, err := e.keys.Issue(context.Background(), tenantID, nil, "test key")
	require.NoError(t, err)
	return tenantID, raw
}

func (e *testEnv) createProject(t *testing.T, token string, tenantID uuid.UUID, name string) uuid.UUID {
	t.Helper()

	rec := e.do(t, http.MethodPost, fmt.Sprintf("/tenants/%s/projects", tenantID), token,
		map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func animasPath(tenantID, projectID uuid.UUID) string {
	return fmt.Sprintf("/tenants/%s/projects/%s/animas", tenantID, projectID)
}

func TestBootstrapFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/bootstrap", "", map[string]string{"tenant_name": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	tenantID, token := env.bootstrap(t, "Acme")

	// The issued key authenticates against the new tenant.
	rec = env.do(t, http.MethodGet, "/tenants/"+tenantID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Bootstrap only works once.
	rec = env.do(t, http.MethodPost, "/bootstrap", "", map[string]string{"tenant_name": "Again"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.JSONEq(t, `{"message":"already bootstrapped"}`, rec.Body.String())
}

func TestUnauthenticatedRequests(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/tenants", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/tenants", "cerb_bogus", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays open.
	rec = env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListTenants_ScopedToKey(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.bootstrap(t, "tenant-a")
	env.seedTenant(t, "tenant-b")

	rec := env.do(t, http.MethodGet, "/tenants", tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tenants []secret.Tenant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tenants))
	require.Len(t, tenants, 1)
	require.Equal(t, "tenant-a", tenants[0].Name)
}

func TestGetTenant_MaskedDenial(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.bootstrap(t, "tenant-a")
	tenantB, _ := env.seedTenant(t, "tenant-b")

	// A foreign tenant that exists reads exactly like one that doesn't.
	rec := env.do(t, http.MethodGet, "/tenants/"+tenantB.String(), tokenA, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, fmt.Sprintf(`{"message":"Tenant with ID %s not found"}`, tenantB), rec.Body.String())

	missing := uuid.New()
	rec = env.do(t, http.MethodGet, "/tenants/"+missing.String(), tokenA, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, fmt.Sprintf(`{"message":"Tenant with ID %s not found"}`, missing), rec.Body.String())

	// Unparseable ids echo the raw path value through the same body.
	rec = env.do(t, http.MethodGet, "/tenants/not-a-uuid", tokenA, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"message":"Tenant with ID not-a-uuid not found"}`, rec.Body.String())
}

func TestGetProject_MaskedDenial(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.bootstrap(t, "tenant-a")
	tenantB, tokenB := env.seedTenant(t, "tenant-b")
	projectB := env.createProject(t, tokenB, tenantB, "web")

	// Foreign key against a real project.
	rec := env.do(t, http.MethodGet, fmt.Sprintf("/tenants/%s/projects/%s", tenantB, projectB), tokenA, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t,
		fmt.Sprintf(`{"message":"Project with ID %s not found in tenant %s"}`, projectB, tenantB),
		rec.Body.String())

	// Owner's key against an absent project renders through the same format.
	missing := uuid.New()
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/tenants/%s/projects/%s", tenantB, missing), tokenB, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t,
		fmt.Sprintf(`{"message":"Project with ID %s not found in tenant %s"}`, missing, tenantB),
		rec.Body.String())
}

func TestCreateProject_ForeignTenant(t *testing.T) {
	env := newTestEnv(t)
	_, tokenA := env.bootstrap(t, "tenant-a")
	tenantB, _ := env.seedTenant(t, "tenant-b")

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/tenants/%s/projects", tenantB), tokenA,
		map[string]string{"name": "intruder"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.JSONEq(t, `{"message":"Access denied to this tenant"}`, rec.Body.String())
}

func TestAnimaLifecycle(t *testing.T) {
	env := newTestEnv(t)
	tenantID, token := env.bootstrap(t, "Acme")
	projectID := env.createProject(t, token, tenantID, "web")
	base := animasPath(tenantID, projectID)

	rec := env.do(t, http.MethodPost, base, token, map[string]string{
		"definition": "DATABASE_URL", "value": "postgres://dev", "environment": "development",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same definition and environment, different case: conflict.
	rec = env.do(t, http.MethodPost, base, token, map[string]string{
		"definition": "database_url", "value": "x", "environment": "DEVELOPMENT",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, base, token, map[string]string{
		"definition": "DATABASE_URL", "value": "postgres://prod", "environment": "PRODUCTION",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var animas []secret.Anima
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &animas))
	require.Len(t, animas, 2)

	rec = env.do(t, http.MethodGet, base+"?environment=PRODUCTION", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &animas))
	require.Len(t, animas, 1)
	require.Equal(t, "postgres://prod", animas[0].Value)

	rec = env.do(t, http.MethodGet, base+"?environment=QA", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"message":"The requested environment type: QA does not exist"}`, rec.Body.String())

	rec = env.do(t, http.MethodPut, base+"/database_url", token, map[string]string{
		"value": "postgres://dev2", "environment": "DEVELOPMENT",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"Anima updated successfully"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, base+"/DATABASE_URL?environment=DEVELOPMENT", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var anima secret.Anima
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &anima))
	require.Equal(t, "postgres://dev2", anima.Value)

	// Updating a definition that isn't there is the masked 404.
	rec = env.do(t, http.MethodPut, base+"/MISSING", token, map[string]string{
		"value": "x", "environment": "DEVELOPMENT",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Delete removes every environment at once; the second call finds nothing.
	rec = env.do(t, http.MethodDelete, base+"/DATABASE_URL", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"Anima deleted successfully"}`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, base+"/DATABASE_URL", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImplicitFetch(t *testing.T) {
	env := newTestEnv(t)
	tenantID, token := env.bootstrap(t, "Acme")
	projectID := env.createProject(t, token, tenantID, "web")

	rec := env.do(t, http.MethodPost, animasPath(tenantID, projectID), token, map[string]string{
		"definition": "API_TOKEN", "value": "prod-secret", "environment": "PRODUCTION",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The default environment is DEVELOPMENT, where nothing is stored.
	rec = env.do(t, http.MethodGet, "/animas/API_TOKEN", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"message":"unauthorized"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/animas/API_TOKEN?environment=PRODUCTION", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var anima secret.Anima
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &anima))
	require.Equal(t, "prod-secret", anima.Value)

	// Unknown definitions, bad environments and bad project ids all collapse
	// into the same 401.
	rec = env.do(t, http.MethodGet, "/animas/MISSING?environment=PRODUCTION", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"message":"unauthorized"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/animas/API_TOKEN?environment=QA", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"message":"unauthorized"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/animas/API_TOKEN?environment=PRODUCTION&projectId=nope", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"message":"unauthorized"}`, rec.Body.String())
}

func TestIssueKey_ProjectScoped(t *testing.T) {
	env := newTestEnv(t)
	tenantID, token := env.bootstrap(t, "Acme")
	web := env.createProject(t, token, tenantID, "web")
	api := env.createProject(t, token, tenantID, "api")

	rec := env.do(t, http.MethodPost, animasPath(tenantID, web), token, map[string]string{
		"definition": "WEB_SECRET", "value": "w", "environment": "DEVELOPMENT",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	webID := web.String()
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/tenants/%s/keys", tenantID), token,
		map[string]any{"project_id": webID, "description": "ci"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var issued struct {
		APIKey string `json:"api_key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))

	// The scoped key reaches its own project but sees siblings as absent.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/tenants/%s/projects/%s", tenantID, web), issued.APIKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/tenants/%s/projects/%s", tenantID, api), issued.APIKey, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Implicit fetch ignores projectId overrides for a scoped key.
	rec = env.do(t, http.MethodGet, "/animas/WEB_SECRET", issued.APIKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Binding a key to a project the tenant doesn't own fails as not found.
	foreign := uuid.New()
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/tenants/%s/keys", tenantID), token,
		map[string]any{"project_id": foreign.String()})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Issuing under a foreign tenant is a flat denial.
	other, _ := env.seedTenant(t, "other")
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/tenants/%s/keys", other), token,
		map[string]any{"description": "nope"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}
