// Package metrics provides Prometheus metrics for the serving engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stremerd_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	requestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stremerd_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	bytesStreamed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stremerd_stream_bytes_total",
			Help: "Total bytes served by the streaming endpoint",
		},
	)

	bytesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stremerd_upload_bytes_total",
			Help: "Total bytes accepted by the upload endpoint",
		},
	)

	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stremerd_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	cameraFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stremerd_camera_frames_total",
			Help: "Camera frames delivered to clients",
		},
	)
)

func RecordRequest(method, route, status string) {
	requestsTotal.WithLabelValues(method, route, status).Inc()
}

func RequestStarted()  { requestsInFlight.Inc() }
func RequestFinished() { requestsInFlight.Dec() }

func AddStreamedBytes(n int64) {
	if n > 0 {
		bytesStreamed.Add(float64(n))
	}
}

func AddUploadedBytes(n int64) {
	if n > 0 {
		bytesUploaded.Add(float64(n))
	}
}

func RecordLogin(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	loginAttempts.WithLabelValues(outcome).Inc()
}

func RecordCameraFrame() {
	cameraFrames.Inc()
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
