package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_orders_created_total",
		Help: "Orders persisted by the create saga.",
	}, []string{"store"})

	orderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_transitions_total",
		Help: "Lifecycle transitions by target status and result.",
	}, []string{"to", "result"})

	pricingRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_pricing_rejections_total",
		Help: "Pricing calls that ended in a hard or soft rejection.",
	}, []string{"kind"})
)

