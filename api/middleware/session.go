package middleware

import (
	"net/http"
	"strings"

	"github.com/packlane/packlane-backend/api/responses"
	"github.com/packlane/packlane-backend/pkg/auth"
	"github.com/packlane/packlane-backend/pkg/config"
	pkgerrors "github.com/packlane/packlane-backend/pkg/errors"
	"github.com/packlane/packlane-backend/pkg/logger"
)

// PackSession authenticates the builder session token and stores the session
// identity on the request context. Requests without a valid token are
// rejected before reaching handlers.
func PackSession(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := bearerToken(r)
			if token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session token required"))
				return
			}

			claims, err := auth.ParseSessionToken(cfg, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token"))
				return
			}

			ctx = WithSessionID(ctx, claims.SessionID)
			if logg != nil {
				ctx = logg.WithPackSession(ctx, claims.SessionID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
