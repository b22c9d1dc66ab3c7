package httpapi

import (
	"fmt"
	"net/http"

	"github.com/francesco74/sonde/internal/service"
	"github.com/francesco74/sonde/internal/session"

	"go.uber.org/zap"
)

// AuthHandler serves login, logout and user creation.
type AuthHandler struct {
	auth     service.AuthService
	sessions session.Store
	cookies  CookieOptions
	logger   *zap.Logger
}

func NewAuthHandler(auth service.AuthService, sessions session.Store, cookies CookieOptions, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, cookies: cookies, logger: logger}
}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates the user, snapshots the permission set into a new
// session and hands the token back as a cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body credentialsBody
	_ = readBodyJSON(r, 1<<20, &body)
	if body.Username == "" || body.Password == "" {
		h.logger.Warn("Login attempt with missing username or password",
			zap.String("ip_address", getClientIP(r)),
		)
		writeJSON(w, http.StatusBadRequest, fail(msgMissingCredentials))
		return
	}

	result, err := h.auth.Login(ctx, service.LoginRequest{
		Username:  body.Username,
		Password:  body.Password,
		IPAddress: getClientIP(r),
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	token, err := h.sessions.Create(ctx, session.State{
		UserID:      result.Identity.UserID,
		Username:    result.Identity.Username,
		Permissions: result.Permissions,
	})
	if err != nil {
		h.logger.Error("Failed to create session", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail(msgServerError))
		return
	}

	http.SetCookie(w, h.cookies.newCookie(token, 0))
	writeJSON(w, http.StatusOK, ok("Authentication successful."))
}

// Logout destroys the session if one is presented; it succeeds either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("Failed to destroy session", zap.Error(err))
		}
	}
	http.SetCookie(w, h.cookies.newCookie("", -1))
	writeJSON(w, http.StatusOK, ok("Logout successful."))
}

// CreateUser registers a new account.
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	_ = readBodyJSON(r, 1<<20, &body)
	if body.Username == "" || body.Password == "" {
		writeJSON(w, http.StatusBadRequest, fail(msgMissingCredentials))
		return
	}

	if err := h.auth.CreateUser(r.Context(), body.Username, body.Password); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, ok(fmt.Sprintf("User %s created", body.Username)))
}
