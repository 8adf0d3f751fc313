// Package metrics expone métricas Prometheus del servicio: peticiones HTTP y operaciones de stock.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Inventario-stock/internal/application/inventory"
	"github.com/jhoicas/Inventario-stock/internal/domain"
)

var _ inventory.OperationObserver = (*Metrics)(nil)

const namespace = "inventory"

// Resultados de una operación de stock.
const (
	ResultOK                = "ok"
	ResultNotFound          = "not_found"
	ResultInvalid           = "invalid"
	ResultInsufficientStock = "insufficient_stock"
	ResultError             = "error"
)

// Metrics registro propio con los colectores del servicio.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	StockOperationsTotal  *prometheus.CounterVec
	StockOperationSeconds *prometheus.HistogramVec
}

// New crea y registra los colectores. withRuntime agrega métricas de Go y del proceso.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP atendidas.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las peticiones HTTP.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		StockOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_operations_total",
			Help:      "Operaciones de stock por resultado.",
		}, []string{"op", "result"}),
		StockOperationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stock_operation_duration_seconds",
			Help:      "Duración de las operaciones de stock.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
	}
	m.registry.MustRegister(m.HTTPRequestsTotal, m.HTTPRequestDuration, m.StockOperationsTotal, m.StockOperationSeconds)
	if withRuntime {
		m.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return m
}

// Registry registro subyacente.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler handler de /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP registra una petición atendida.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveStockOperation implementa inventory.OperationObserver.
func (m *Metrics) ObserveStockOperation(op string, err error, elapsed time.Duration) {
	m.StockOperationsTotal.WithLabelValues(op, Result(err)).Inc()
	m.StockOperationSeconds.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Result clasifica el error de una operación.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrInsufficientStock):
		return ResultInsufficientStock
	case errors.Is(err, domain.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, domain.ErrInvalidOperation):
		return ResultInvalid
	default:
		return ResultError
	}
}
