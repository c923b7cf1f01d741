package services

import (
	"net/http"
	"strconv"
)

// userIDFromRequest extracts the authenticated user's ID injected by the auth
// middleware.
func userIDFromRequest(r *http.Request) (int, bool) {
	raw, ok := r.Context().Value("userID").(string)
	if !ok || raw == "" {
		return 0, false
	}

	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}

	return id, true
}
