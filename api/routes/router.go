package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/societyhub-backend/api/controllers"
	"github.com/angelmondragon/societyhub-backend/api/middleware"
	"github.com/angelmondragon/societyhub-backend/internal/societies"
	"github.com/angelmondragon/societyhub-backend/internal/voting"
	"github.com/angelmondragon/societyhub-backend/pkg/config"
	"github.com/angelmondragon/societyhub-backend/pkg/logger"
	"github.com/angelmondragon/societyhub-backend/pkg/metrics"
)

// Dependencies are the services and clients the API routes are built from.
type Dependencies struct {
	DB        controllers.Pinger
	Redis     controllers.Pinger
	Societies societies.Service
	Voting    voting.Service
	Metrics   *metrics.HTTPMetrics
	Gatherer  prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	authenticated := middleware.Auth(cfg.JWT, logg)

	r.Route("/api/v1/societies", func(r chi.Router) {
		r.Get("/", controllers.SocietiesList(deps.Societies, logg))
		r.Get("/{societyId}/service-providers", controllers.SocietyApprovedProviders(deps.Societies, logg))
		r.Get("/{societyId}/service-categories-with-counts", controllers.SocietyServiceCategories(deps.Societies, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/available-for-resident", controllers.SocietiesAvailableForResident(deps.Societies, logg))
			r.Get("/available-for-provider", controllers.SocietiesAvailableForProvider(deps.Societies, logg))
		})
	})

	r.Get("/api/v1/services", controllers.ServicesList(deps.Societies, logg))

	r.Route("/api/v1/voting-requests", func(r chi.Router) {
		r.Use(authenticated)
		r.Post("/resident-join", controllers.VotingRequestResidentJoin(deps.Voting, logg))
		r.Post("/provider-listing", controllers.VotingRequestProviderListing(deps.Voting, logg))
		r.Get("/", controllers.VotingRequestsPending(deps.Voting, logg))
		r.Get("/mine", controllers.VotingRequestsMine(deps.Voting, logg))
		r.Get("/{requestId}", controllers.VotingRequestDetail(deps.Voting, logg))
		r.Post("/{requestId}/vote", controllers.VotingRequestVote(deps.Voting, logg))
	})

	return r
}
