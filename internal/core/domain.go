package core

import "time"

// Platform identifies the messaging channel a customer writes on.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformWhatsApp  Platform = "whatsapp"
)

// Business represents a merchant whose catalog and conversations we automate.
type Business struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"` // Symbol used in replies, e.g. "₹"
	UPIID    string `json:"upi_id"`   // Payment reference shown in instructions
	Language string `json:"language"` // Default reply language
}

// BusinessAccount maps a platform page/account id to a business.
// Webhook deliveries are routed through this table via recipient.id.
type BusinessAccount struct {
	ID                string   `json:"id"`
	Platform          Platform `json:"platform"`
	PlatformAccountID string   `json:"platform_account_id"`
	BusinessID        string   `json:"business_id"`
}

// Customer represents a person messaging the business.
type Customer struct {
	ID                string    `json:"id"`
	BusinessID        string    `json:"business_id"`
	Platform          Platform  `json:"platform"`
	PlatformUserID    string    `json:"platform_user_id"`
	DisplayName       string    `json:"display_name"`
	Language          string    `json:"language"`
	TotalOrders       int       `json:"total_orders"`
	TotalSpent        float64   `json:"total_spent"`
	ActiveOrderID     string    `json:"active_order_id"` // Explicit active-order reference, empty when none
	CreatedAt         time.Time `json:"created_at"`
	LastInteractionAt time.Time `json:"last_interaction_at"`
}

// Direction marks whether a message came from the customer or was sent by us.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Message is an immutable record of one inbound or outbound message.
// (platform, external_message_id) is the natural key used for deduplication.
type Message struct {
	ID                string    `json:"id"`
	CustomerID        string    `json:"customer_id"`
	Direction         Direction `json:"direction"`
	Platform          Platform  `json:"platform"`
	ExternalMessageID string    `json:"external_message_id"`
	Content           string    `json:"content"`
	AttachmentRef     string    `json:"attachment_ref"`
	AttachmentType    string    `json:"attachment_type"`
	Category          Category  `json:"category"`
	CreatedAt         time.Time `json:"created_at"`
}

// Category is the coarse intent assigned to an inbound message.
type Category string

const (
	CategoryPostInquiry       Category = "post_inquiry"
	CategoryPaymentScreenshot Category = "payment_screenshot"
	CategoryPaymentInquiry    Category = "payment_inquiry"
	CategoryOrderInquiry      Category = "order_inquiry"
	CategoryGeneralInquiry    Category = "general_inquiry"
)

// Product represents a catalog item. Read-only to the pipeline.
type Product struct {
	ID            string    `json:"id"`
	BusinessID    string    `json:"business_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	IsActive      bool      `json:"is_active"`
	MediaRefs     []string  `json:"media_refs"` // Social post ids/urls mapped to this product
	CreatedAt     time.Time `json:"created_at"`
}

// Order represents a purchase in flight.
type Order struct {
	ID                   string      `json:"id"`
	CustomerID           string      `json:"customer_id"`
	BusinessID           string      `json:"business_id"`
	Items                []OrderItem `json:"items"`
	TotalAmount          float64     `json:"total_amount"`
	Status               OrderStatus `json:"status"`
	PaymentScreenshotRef string      `json:"payment_screenshot_ref"`
	ReceiptRef           string      `json:"receipt_ref"`
	NeedsReview          bool        `json:"needs_review"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ID          string  `json:"id"`
	OrderID     string  `json:"order_id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	PriceAtTime float64 `json:"price_at_time"`
}

// OrderStatus is the state of an order in its lifecycle.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// Active reports whether the order still occupies the customer's single
// in-flight slot.
func (s OrderStatus) Active() bool {
	return s == OrderStatusPending || s == OrderStatusAwaitingPayment
}

// Terminal reports whether the order reached a final state.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

// Verdict is the outcome of verifying one payment screenshot.
type Verdict string

const (
	VerdictAccepted    Verdict = "ACCEPTED"
	VerdictRejected    Verdict = "REJECTED"
	VerdictNeedsReview Verdict = "NEEDS_REVIEW"
)

// PaymentAttempt records one screenshot submission for an order.
// An order may accumulate many attempts; only one ACCEPTED attempt
// finalizes payment.
type PaymentAttempt struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"order_id"`
	ImageRef   string     `json:"image_ref"`
	Verdict    Verdict    `json:"verdict"`
	Detail     string     `json:"detail"`
	VerifiedAt *time.Time `json:"verified_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Exchange is one inbound/outbound pair kept as bounded AI context.
type Exchange struct {
	Inbound  string `json:"inbound"`
	Outbound string `json:"outbound"`
}

// Session is the short-lived conversation state kept in Redis per customer.
type Session struct {
	LastIntent     Category   `json:"last_intent"`
	PendingOrderID string     `json:"pending_order_id"`
	RecentHistory  []Exchange `json:"recent_history"`
}

// MatchResult is one ranked product candidate from the matcher.
type MatchResult struct {
	Product *Product `json:"product"`
	Score   int      `json:"score"`
}
