package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records cart and checkout outcomes.
type StorefrontMetrics struct {
	ordersCreated    *prometheus.CounterVec
	checkoutFailures *prometheus.CounterVec
	cartClamps       *prometheus.CounterVec
	outOfStockAdds   prometheus.Counter
	infeasiblePlans  *prometheus.CounterVec
	schemaFallbacks  *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op instance, which keeps tests quiet.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created",
		Help: "Orders created, by payment method.",
	}, []string{"payment_method"})
	checkoutFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures",
		Help: "Failed checkout attempts, by reason.",
	}, []string{"reason"})
	cartClamps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_qty_clamps",
		Help: "Cart quantities clamped to available stock, by operation.",
	}, []string{"op"})
	outOfStockAdds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_out_of_stock_adds",
		Help: "Add-to-cart attempts rejected for zero stock.",
	})
	infeasiblePlans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipping_infeasible_plans",
		Help: "Shipping quotes with no feasible package, by carrier.",
	}, []string{"carrier"})
	schemaFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_item_schema_fallbacks",
		Help: "Order item inserts that fell back to an older table shape.",
	}, []string{"shape"})
	reg.MustRegister(ordersCreated, checkoutFailures, cartClamps, outOfStockAdds, infeasiblePlans, schemaFallbacks)
	return &StorefrontMetrics{
		ordersCreated:    ordersCreated,
		checkoutFailures: checkoutFailures,
		cartClamps:       cartClamps,
		outOfStockAdds:   outOfStockAdds,
		infeasiblePlans:  infeasiblePlans,
		schemaFallbacks:  schemaFallbacks,
	}
}

// IncOrderCreated increments the created-orders counter for the payment method.
func (m *StorefrontMetrics) IncOrderCreated(paymentMethod string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncCheckoutFailure increments the failed-checkout counter for the reason.
func (m *StorefrontMetrics) IncCheckoutFailure(reason string) {
	if m == nil || m.checkoutFailures == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncCartClamp increments the clamp counter for the named cart operation.
func (m *StorefrontMetrics) IncCartClamp(op string) {
	if m == nil || m.cartClamps == nil {
		return
	}
	m.cartClamps.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncOutOfStockAdd increments the rejected-add counter.
func (m *StorefrontMetrics) IncOutOfStockAdd() {
	if m == nil || m.outOfStockAdds == nil {
		return
	}
	m.outOfStockAdds.Inc()
}

// IncInfeasiblePlan increments the no-package counter for the carrier.
func (m *StorefrontMetrics) IncInfeasiblePlan(carrier string) {
	if m == nil || m.infeasiblePlans == nil {
		return
	}
	m.infeasiblePlans.WithLabelValues(normalizeLabel(carrier)).Inc()
}

// IncSchemaFallback increments the fallback counter for the shape that succeeded.
func (m *StorefrontMetrics) IncSchemaFallback(shape string) {
	if m == nil || m.schemaFallbacks == nil {
		return
	}
	m.schemaFallbacks.WithLabelValues(normalizeLabel(shape)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
