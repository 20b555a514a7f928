package httpx

import "net/http"

type contentResponse struct {
	Message string `json:"message"`
	Subject string `json:"subject"`
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// contentHandler serves the protected placeholder. It must run behind RequireAuth or RequireRole.
func contentHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaimsFromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, authResponse{Error: msgNoToken})
		return
	}
	WriteJSON(w, http.StatusOK, contentResponse{
		Message: "content loaded securely",
		Subject: claims.Subject,
		Role:    string(claims.Role),
	})
}
