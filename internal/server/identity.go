package server

import (
	"net/http"

	"github.com/google/uuid"
)

const viewerCookieName = "undercover_viewer"

// viewerID returns the caller's stable opaque user identifier, minting one
// on first contact. This stands in for the external identity system; the
// core only ever sees the opaque id.
func viewerID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(viewerCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     viewerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
