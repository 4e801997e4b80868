package handler

import (
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"signup-server/internal/model"
	"signup-server/internal/session"
)

const sessionCookie = "session_id"

// AuthHandler implements login/logout for the single configured admin
// identity and the session gate for admin routes.
type AuthHandler struct {
	sessions     *session.Store
	username     string
	passwordHash []byte
}

// NewAuthHandler hashes the configured admin password once at startup; the
// plaintext is never kept around.
func NewAuthHandler(sessions *session.Store, username, password string) (*AuthHandler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &AuthHandler{sessions: sessions, username: username, passwordHash: hash}, nil
}

// Login handles POST /api/auth/login
// On success it sets an HttpOnly, SameSite=Lax session cookie.
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Username != a.username ||
		bcrypt.CompareHashAndPassword(a.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	id := a.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(a.sessions.TTL().Seconds()),
	})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Logout handles POST /api/auth/logout
func (a *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		a.sessions.Destroy(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me handles GET /api/auth/me
func (a *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"is_authed": a.isAuthed(r)})
}

// RequireAuth rejects requests that do not carry a live admin session.
func (a *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.isAuthed(r) {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *AuthHandler) isAuthed(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	return err == nil && a.sessions.Valid(c.Value)
}
