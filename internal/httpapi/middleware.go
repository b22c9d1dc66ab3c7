package httpapi

import (
	"net/http"
	"time"

	"github.com/francesco74/sonde/internal/session"

	"go.uber.org/zap"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "session_token"

// CookieOptions configure how the session cookie is emitted. Secure is
// disabled only in dev mode, where the frontend talks plain HTTP.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

func (o CookieOptions) newCookie(token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: o.SameSite,
	}
}

// sessionFromRequest resolves the caller's cookie to session state.
func sessionFromRequest(r *http.Request, sessions session.Store) (session.State, bool, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return session.State{}, false, nil
	}
	return sessions.Lookup(r.Context(), cookie.Value)
}

// requireSession wraps a handler that needs an authenticated caller.
// Absent, expired or tampered tokens answer 401 without reaching the
// handler.
func requireSession(sessions session.Store, logger *zap.Logger, next func(http.ResponseWriter, *http.Request, session.State)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, found, err := sessionFromRequest(r, sessions)
		if err != nil {
			logger.Error("Session lookup failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, fail(msgServerError))
			return
		}
		if !found {
			logger.Warn("Unauthorized request",
				zap.String("path", r.URL.Path),
				zap.String("ip_address", getClientIP(r)),
			)
			writeJSON(w, http.StatusUnauthorized, fail(msgAuthRequired))
			return
		}
		next(w, r, state)
	}
}

// CORS answers preflight requests and stamps the allowlisted origin on
// responses. Credentialed requests require echoing the exact origin, so
// the wildcard is never used.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
