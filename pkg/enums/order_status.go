package enums

// OrderStatus tracks an order through the approval/fulfillment pipeline.
// Only creation happens in this service; later transitions belong to the
// approval workflow.
type OrderStatus string

const (
	OrderStatusPendingApproval OrderStatus = "PENDING_APPROVAL"
	OrderStatusApproved        OrderStatus = "APPROVED"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}
