package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/packlane/packlane-backend/api/controllers"
	catalogcontrollers "github.com/packlane/packlane-backend/api/controllers/catalog"
	packcontrollers "github.com/packlane/packlane-backend/api/controllers/packs"
	"github.com/packlane/packlane-backend/api/middleware"
	"github.com/packlane/packlane-backend/internal/catalog"
	"github.com/packlane/packlane-backend/internal/packs"
	"github.com/packlane/packlane-backend/pkg/config"
	"github.com/packlane/packlane-backend/pkg/db"
	"github.com/packlane/packlane-backend/pkg/logger"
	"github.com/packlane/packlane-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	metricsGatherer prometheus.Gatherer,
	catalogService catalog.Service,
	packsService packs.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if metricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/offer", catalogcontrollers.GetOffer(catalogService, logg))
	})

	r.Route("/api/v1/packs", func(r chi.Router) {
		r.Post("/session", packcontrollers.StartSession(packsService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.PackSession(cfg.Session, logg))
			r.Get("/quote", packcontrollers.GetQuote(packsService, logg))
			r.Post("/quantity", packcontrollers.ChangeQuantity(packsService, logg))
			r.Post("/variant", packcontrollers.ChangeVariant(packsService, logg))
			r.Post("/submit", packcontrollers.SubmitPack(packsService, logg))
			r.Get("/submissions", packcontrollers.ListSubmissions(packsService, logg))
		})
	})

	return r
}
