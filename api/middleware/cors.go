package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/packlane/packlane-backend/pkg/config"
)

// CORS applies the storefront origin policy. The widget runs inside theme
// pages, so the storefront domains must be allowed explicitly.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
