package api

import (
	"net/http"
)

// userRoleReportQuery lists every active grant with its user and role
// names. The query text is fixed; only the paging window comes from the
// request.
const userRoleReportQuery = `
SELECT u.id AS user_id, u.user_name, r.name AS role_name, ur.create_time AS granted_time
FROM "UserRole" ur
JOIN "User" u ON u.id = ur.user_id
JOIN "Role" r ON r.id = ur.role_id
WHERE ur.is_active = 1 AND u.is_active = 1 AND r.is_active = 1
ORDER BY u.user_name, r.name`

// handleUserRoleReport returns the active user/role grant matrix.
// Paging is optional: with no page/size the full report is returned.
func (s *Server) handleUserRoleReport(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		params["page"] = v
	}
	if v := q.Get("size"); v != "" {
		params["size"] = v
	}

	result, err := s.reports.Execute(r.Context(), userRoleReportQuery, params)
	if err != nil {
		s.writeServiceError(w, r, err, "user role report failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
