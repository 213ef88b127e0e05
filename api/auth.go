package api

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/wricardo/blockpush/game/service"
	"github.com/wricardo/blockpush/game/session"
)

// bearerToken extracts the access token from the Authorization header. The
// WebSocket endpoint also accepts ?token= since browsers cannot set headers
// on an upgrade request.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if strings.HasPrefix(r.URL.Path, "/ws") {
		return r.URL.Query().Get("token")
	}
	return ""
}

// authenticate attaches the caller to the request context when a token is
// present. A present but invalid token is rejected; no token means an
// anonymous caller.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || s.users == nil {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := s.users.Authenticate(r.Context(), token)
		if err != nil {
			log.WithError(err).WithField("path", r.URL.Path).Debug("[AUTH] rejected token")
			respondErr(w, err)
			return
		}

		ctx := service.WithPlayer(r.Context(), session.Player{
			UserID:   claims.UserID,
			Username: claims.Username,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireUser rejects anonymous callers
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := service.PlayerFromContext(r.Context()); !ok {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r)
	}
}
