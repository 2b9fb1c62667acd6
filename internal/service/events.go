package service

// Event names pushed to connected admin clients.
const (
	EventOrderPendingApproval = "order.pending_approval"
	EventOrderReviewed        = "order.reviewed"
	EventOrderStatusUpdated   = "order.status_updated"
)

// EventPublisher fans order events out to live listeners. Publish must not block.
type EventPublisher interface {
	Publish(event string, data interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// OrderEventData is the payload of every order event.
type OrderEventData struct {
	OrderID           string `json:"order_id"`
	Code              string `json:"code"`
	CustomerName      string `json:"customer_name"`
	SellerName        string `json:"seller_name"`
	FulfillmentStatus string `json:"fulfillment_status"`
	ApprovalStatus    string `json:"approval_status"`
	DiscountStatus    string `json:"discount_status"`
	TotalSaleAmount   string `json:"total_sale_amount"`
}
