package telemetry

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	ParcelsBooked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parcel_tracker_parcels_booked_total",
		Help: "Parcels booked",
	})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parcel_tracker_status_transitions_total",
		Help: "Delivery status transitions by target status",
	}, []string{"status"})

	TasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parcel_tracker_tasks_total",
		Help: "Background tasks by kind and result",
	}, []string{"kind", "result"})

	TrackCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parcel_tracker_track_cache_lookups_total",
		Help: "Public tracking lookups by cache result",
	}, []string{"result"})

	OutboundLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parcel_tracker_outbound_request_seconds",
		Help:    "Outbound HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"host", "outcome"})
)

// Handler serves the default Prometheus registry on a fiber route.
func Handler() fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		h(c.Context())
		return nil
	}
}
