package httpapi

import (
	"net/http"

	"github.com/francesco74/sonde/internal/session"

	"go.uber.org/zap"
)

// Router dispatches on the standard library http.ServeMux.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) handle(pattern, method string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	})
}

// Register wires the whole API surface.
func (r *Router) Register(auth *AuthHandler, data *DataHandler, sessions session.Store) {
	r.handle("/login", http.MethodPost, auth.Login)
	r.handle("/logout", http.MethodPost, auth.Logout)
	r.handle("/create_user", http.MethodPost, auth.CreateUser)

	r.handle("/get_tree", http.MethodGet, requireSession(sessions, r.logger, data.GetTree))
	r.handle("/get_latest_data", http.MethodGet, requireSession(sessions, r.logger, data.GetLatestData))
	r.handle("/get_data", http.MethodGet, requireSession(sessions, r.logger, data.GetData))
}
