package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shipbridge/api/controllers"
	ordercontrollers "github.com/angelmondragon/shipbridge/api/controllers/orders"
	shipmentcontrollers "github.com/angelmondragon/shipbridge/api/controllers/shipments"
	"github.com/angelmondragon/shipbridge/api/middleware"
	"github.com/angelmondragon/shipbridge/pkg/config"
	"github.com/angelmondragon/shipbridge/pkg/logger"
)

// ModeService is the routed store surface plus mode control; *mode.Switch
// satisfies it.
type ModeService interface {
	controllers.ModeSwitch
	ordercontrollers.Service
	shipmentcontrollers.Reader
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	localP controllers.Pinger,
	remoteP controllers.Pinger,
	redisP controllers.Pinger,
	gatherer prometheus.Gatherer,
	switchService ModeService,
	bundler shipmentcontrollers.Bundler,
	creds controllers.CredentialStore,
	provider controllers.Reconfigurer,
	syncer controllers.Syncer,
	live controllers.LiveSource,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, localP, remoteP, redisP))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/mode", controllers.ModeGet(switchService))
		r.Put("/mode", controllers.ModeSet(switchService, logg))

		r.Put("/remote", controllers.RemoteSet(creds, provider, logg))
		r.Delete("/remote", controllers.RemoteClear(creds, provider, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(switchService, logg))
			r.Post("/", ordercontrollers.Create(switchService, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(switchService, logg))
			r.Put("/{orderId}", ordercontrollers.Update(switchService, logg))
			r.Delete("/{orderId}", ordercontrollers.Delete(switchService, logg))
		})

		r.Route("/shipments", func(r chi.Router) {
			r.Get("/", shipmentcontrollers.List(switchService, logg))
			r.Post("/", shipmentcontrollers.Create(bundler, logg))
			r.Get("/available", shipmentcontrollers.Available(bundler, logg))
			r.Get("/violations", shipmentcontrollers.Violations(bundler, logg))
			r.Get("/{shipmentId}", shipmentcontrollers.Detail(switchService, logg))
			r.Put("/{shipmentId}", shipmentcontrollers.Update(bundler, logg))
			r.Delete("/{shipmentId}", shipmentcontrollers.Delete(bundler, logg))
		})

		r.Post("/sync", controllers.SyncRun(syncer, logg))
		r.Get("/sync", controllers.SyncStatus(syncer, logg))
		r.Get("/live", controllers.LiveSnapshot(live))
	})

	return r
}
