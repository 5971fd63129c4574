package core

import "context"

// BusinessRepository resolves webhook recipients to businesses.
type BusinessRepository interface {
	GetByID(ctx context.Context, id string) (*Business, error)
	GetByPlatformAccount(ctx context.Context, platform Platform, accountID string) (*Business, error)
}

// CustomerRepository defines the interface for customer data access.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByPlatformUser(ctx context.Context, platform Platform, platformUserID string) (*Customer, error)
	Create(ctx context.Context, customer *Customer) error
	GetOrCreate(ctx context.Context, customer *Customer) (*Customer, error)
	RecordInteraction(ctx context.Context, id string, language string) error
	SetActiveOrder(ctx context.Context, id string, orderID string) error
	IncrementStats(ctx context.Context, id string, amount float64) error
}

// MessageRepository defines the interface for message persistence.
type MessageRepository interface {
	// CreateIdempotent inserts the message unless one with the same
	// (platform, external_message_id) already exists. Returns false when
	// the message was a duplicate and nothing was written.
	CreateIdempotent(ctx context.Context, message *Message) (bool, error)
	Create(ctx context.Context, message *Message) error
	ListRecentByCustomer(ctx context.Context, customerID string, limit int) ([]*Message, error)
}

// ProductRepository is the read-only catalog view used by the matcher.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetActiveByBusiness(ctx context.Context, businessID string) ([]*Product, error)
	GetByMediaRef(ctx context.Context, businessID string, ref string) (*Product, error)
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// GetActiveByCustomer returns the customer's single in-flight order
	// (PENDING or AWAITING_PAYMENT), or nil when none exists.
	GetActiveByCustomer(ctx context.Context, customerID string) (*Order, error)
	// UpdateStatus transitions id from one status to another atomically.
	// Returns false when the order was not in the expected `from` status.
	UpdateStatus(ctx context.Context, id string, from, to OrderStatus) (bool, error)
	SetScreenshotRef(ctx context.Context, id string, ref string) error
	SetReceiptRef(ctx context.Context, id string, ref string) error
	SetNeedsReview(ctx context.Context, id string, needsReview bool) error
}

// PaymentAttemptRepository defines the interface for payment attempts.
type PaymentAttemptRepository interface {
	Create(ctx context.Context, attempt *PaymentAttempt) error
	SetVerdict(ctx context.Context, id string, verdict Verdict, detail string) error
	HasAccepted(ctx context.Context, orderID string) (bool, error)
	ListByOrder(ctx context.Context, orderID string) ([]*PaymentAttempt, error)
}

// SessionRepository manages short-lived conversation state.
type SessionRepository interface {
	Get(ctx context.Context, customerID string) (*Session, error)
	Set(ctx context.Context, customerID string, session *Session) error
	Delete(ctx context.Context, customerID string) error
}

// DeliveryDeduper remembers webhook delivery keys already processed.
type DeliveryDeduper interface {
	// MarkSeen records the key and reports whether it was seen before.
	MarkSeen(ctx context.Context, key string) (seen bool, err error)
}

// Profile is the minimal sender profile fetched from the platform.
type Profile struct {
	Name string
}

// MessengerGateway sends messages and fetches media through the platform API.
type MessengerGateway interface {
	SendText(ctx context.Context, platform Platform, recipientID string, text string) error
	SendImage(ctx context.Context, platform Platform, recipientID string, imageURL string) error
	FetchProfile(ctx context.Context, platform Platform, userID string) (*Profile, error)
	FetchImageBase64(ctx context.Context, url string) (data string, mediaType string, err error)
}

// Completion is a free-form AI reply plus the category the model inferred.
type Completion struct {
	Response string
	Category Category
}

// CompletionContext bounds what the AI collaborator is allowed to see.
type CompletionContext struct {
	BusinessName    string
	ProductNames    []string
	Language        string
	RecentHistory   []Exchange
	PendingOrderRef string // short ref of the customer's in-flight order, if any
}

// Completer is the AI free-form reply collaborator.
type Completer interface {
	Complete(ctx context.Context, prompt string, cc CompletionContext) (*Completion, error)
}

// VisionVerifier inspects a payment screenshot against the pending order.
// The pipeline only consumes the verdict; it never computes one itself.
type VisionVerifier interface {
	VerifyPayment(ctx context.Context, imageBase64, mediaType string, order *Order) (Verdict, string, error)
}
