package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AdminUsersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "study_admin_users_created_total",
		Help: "Number of admin accounts created.",
	})

	AdminUsersUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "study_admin_users_updated_total",
		Help: "Number of admin account updates.",
	})

	GrantRowsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "study_admin_grant_rows_written_total",
		Help: "Permission rows written, per resource level.",
	}, []string{"level"})

	EmailRequestsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "study_admin_email_requests_total",
		Help: "Email request events published, by outcome.",
	}, []string{"outcome"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "study_admin_http_requests_total",
		Help: "HTTP requests handled, by route and status.",
	}, []string{"route", "status"})
)

// Serve exposes /metrics on its own listener so the scrape port stays
// separate from the API port.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("metrics listener stopped: %v", err)
		}
	}()
}
