package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты операций корзины для label result.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// CartMetrics содержит метрики корзины и оформления заказа.
// Nil-значение допустимо: все методы становятся no-op.
type CartMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	lineItems  prometheus.Gauge

	checkouts     *prometheus.CounterVec
	checkoutValue prometheus.Histogram
}

// NewCartMetrics регистрирует метрики в DefaultRegisterer.
func NewCartMetrics() *CartMetrics {
	return NewCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCartMetricsWithRegisterer регистрирует метрики в указанном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		operations: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_operations_total",
			Help: "Total number of cart operations by operation and result",
		}, []string{"operation", "result"})),
		duration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_cart_operation_duration_seconds",
			Help:    "Duration of cart store operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"operation"})),
		lineItems: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_cart_line_items",
			Help: "Number of line items currently in the cart",
		})),
		checkouts: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_checkouts_total",
			Help: "Total number of checkout attempts by result",
		}, []string{"result"})),
		checkoutValue: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_checkout_value",
			Help:    "Confirmed order totals",
			Buckets: []float64{5, 10, 20, 50, 100, 200, 500},
		})),
	}
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			existing, ok := alreadyRegistered.ExistingCollector.(T)
			if !ok {
				panic(fmt.Sprintf("collector already registered with unexpected type %T", alreadyRegistered.ExistingCollector))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return collector
}

// RecordOperation учитывает операцию корзины и её длительность.
func (m *CartMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, resultLabel(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetLineItems обновляет количество позиций в корзине.
func (m *CartMetrics) SetLineItems(count int) {
	if m == nil {
		return
	}
	m.lineItems.Set(float64(count))
}

// RecordCheckout учитывает попытку оформления; total учитывается только для успешных.
func (m *CartMetrics) RecordCheckout(total float64, err error) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		m.checkoutValue.Observe(total)
	}
}

func resultLabel(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
