package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Métricas Prometheus da API. Registradas no registry default e expostas em
// /metrics via promhttp.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imobilead_http_requests_total",
			Help: "Total de requisições HTTP atendidas",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imobilead_http_request_duration_seconds",
			Help:    "Duração das requisições HTTP em segundos",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LeadsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imobilead_leads_created_total",
			Help: "Total de leads criados, por origem",
		},
		[]string{"origem"},
	)

	StatusChangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imobilead_lead_status_changes_total",
			Help: "Total de mudanças de status aplicadas a leads",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imobilead_whatsapp_notifications_total",
			Help: "Tentativas de notificação via WhatsApp, por resultado",
		},
		[]string{"result"},
	)
)
