package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
)

// authedRequest builds a request carrying the user ID the auth middleware
// would have injected.
func authedRequest(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	return r.WithContext(context.WithValue(r.Context(), "userID", "1"))
}
