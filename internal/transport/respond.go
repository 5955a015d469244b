package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"message": fmt.Sprintf(format, args...)})
}

// Masked not-found bodies. Denied access, genuinely absent resources, and
// unparseable path ids all go through the same function with the raw path
// values, so the outcomes stay byte-identical.

func writeTenantNotFound(w http.ResponseWriter, tenantID string) {
	writeMessage(w, http.StatusNotFound, "Tenant with ID %s not found", tenantID)
}

func writeProjectNotFound(w http.ResponseWriter, tenantID, projectID string) {
	writeMessage(w, http.StatusNotFound, "Project with ID %s not found in tenant %s", projectID, tenantID)
}

func writeAnimaNotFound(w http.ResponseWriter, definition, projectID string) {
	writeMessage(w, http.StatusNotFound, "Anima with definition '%s' not found in project %s", definition, projectID)
}

func writeInternalError(w http.ResponseWriter) {
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}
