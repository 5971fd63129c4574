package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements the core data access ports using GORM.
type Repository struct {
	db                 *gorm.DB
	businessRepository *businessRepository
	customerRepository *customerRepository
	messageRepository  *messageRepository
	productRepository  *productRepository
	orderRepository    *orderRepository
	attemptRepository  *attemptRepository
}

type businessRepository struct{ *Repository }
type customerRepository struct{ *Repository }
type messageRepository struct{ *Repository }
type productRepository struct{ *Repository }
type orderRepository struct{ *Repository }
type attemptRepository struct{ *Repository }

// NewRepository creates a new Postgres repository instance
func NewRepository(dbURL string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dbURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewRepositoryFromDB(db), nil
}

// NewRepositoryFromDB wraps an existing gorm.DB (used by tests and the seeder).
func NewRepositoryFromDB(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	repo.businessRepository = &businessRepository{Repository: repo}
	repo.customerRepository = &customerRepository{Repository: repo}
	repo.messageRepository = &messageRepository{Repository: repo}
	repo.productRepository = &productRepository{Repository: repo}
	repo.orderRepository = &orderRepository{Repository: repo}
	repo.attemptRepository = &attemptRepository{Repository: repo}
	return repo
}

// AutoMigrate creates the schema. Production uses migrations/; this is for
// local runs, the seeder and sqlite-backed tests.
func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&BusinessModel{},
		&BusinessAccountModel{},
		&CustomerModel{},
		&MessageModel{},
		&ProductModel{},
		&ProductMediaModel{},
		&OrderModel{},
		&OrderItemModel{},
		&PaymentAttemptModel{},
	)
}

// BusinessRepository returns the BusinessRepository implementation.
func (r *Repository) BusinessRepository() core.BusinessRepository { return r.businessRepository }

// CustomerRepository returns the CustomerRepository implementation.
func (r *Repository) CustomerRepository() core.CustomerRepository { return r.customerRepository }

// MessageRepository returns the MessageRepository implementation.
func (r *Repository) MessageRepository() core.MessageRepository { return r.messageRepository }

// ProductRepository returns the ProductRepository implementation.
func (r *Repository) ProductRepository() core.ProductRepository { return r.productRepository }

// OrderRepository returns the OrderRepository implementation.
func (r *Repository) OrderRepository() core.OrderRepository { return r.orderRepository }

// PaymentAttemptRepository returns the PaymentAttemptRepository implementation.
func (r *Repository) PaymentAttemptRepository() core.PaymentAttemptRepository {
	return r.attemptRepository
}

// BusinessRepository implementation

// GetByID retrieves a business by id.
func (r *businessRepository) GetByID(ctx context.Context, id string) (*core.Business, error) {
	var model BusinessModel
	if err := r.db.WithContext(ctx).Table("businesses").Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.Errorf(core.KindNotFound, "business %s not found", id)
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return model.ToDomain(), nil
}

// GetByPlatformAccount resolves a webhook recipient id to its business.
func (r *businessRepository) GetByPlatformAccount(ctx context.Context, platform core.Platform, accountID string) (*core.Business, error) {
	var account BusinessAccountModel
	if err := r.db.WithContext(ctx).Table("business_accounts").
		Where("platform = ? AND platform_account_id = ?", string(platform), accountID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.Errorf(core.KindNotFound, "no business mapped to %s account %s", platform, accountID)
		}
		return nil, fmt.Errorf("failed to resolve business account: %w", err)
	}
	return r.GetByID(ctx, account.BusinessID)
}

// CustomerRepository implementation

// GetByID retrieves a customer by id.
func (r *customerRepository) GetByID(ctx context.Context, id string) (*core.Customer, error) {
	var model CustomerModel
	if err := r.db.WithContext(ctx).Table("customers").Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.Errorf(core.KindNotFound, "customer %s not found", id)
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return model.ToDomain(), nil
}

// GetByPlatformUser retrieves a customer by platform sender id.
func (r *customerRepository) GetByPlatformUser(ctx context.Context, platform core.Platform, platformUserID string) (*core.Customer, error) {
	var model CustomerModel
	if err := r.db.WithContext(ctx).Table("customers").
		Where("platform = ? AND platform_user_id = ?", string(platform), platformUserID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.Errorf(core.KindNotFound, "customer %s/%s not found", platform, platformUserID)
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return model.ToDomain(), nil
}

// Create creates a new customer.
func (r *customerRepository) Create(ctx context.Context, customer *core.Customer) error {
	model := CustomerModelFromDomain(customer)
	if err := r.db.WithContext(ctx).Table("customers").Create(model).Error; err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// GetOrCreate retrieves the customer for (platform, platform_user_id) or
// creates one from the supplied template.
func (r *customerRepository) GetOrCreate(ctx context.Context, customer *core.Customer) (*core.Customer, error) {
	existing, err := r.GetByPlatformUser(ctx, customer.Platform, customer.PlatformUserID)
	if err == nil {
		return existing, nil
	}
	if !core.IsKind(err, core.KindNotFound) {
		return nil, err
	}

	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	now := time.Now()
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = now
	}
	customer.LastInteractionAt = now

	if err := r.Create(ctx, customer); err != nil {
		// Lost a race with a concurrent insert: read it back.
		if again, getErr := r.GetByPlatformUser(ctx, customer.Platform, customer.PlatformUserID); getErr == nil {
			return again, nil
		}
		return nil, err
	}
	return customer, nil
}

// RecordInteraction bumps last_interaction_at and persists the detected
// language once known.
func (r *customerRepository) RecordInteraction(ctx context.Context, id string, language string) error {
	updates := map[string]interface{}{
		"last_interaction_at": time.Now(),
	}
	if language != "" {
		updates["language"] = language
	}
	result := r.db.WithContext(ctx).Table("customers").Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to record interaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return core.Errorf(core.KindNotFound, "customer %s not found", id)
	}
	return nil
}

// SetActiveOrder points the customer at their current in-flight order
// (empty clears it).
func (r *customerRepository) SetActiveOrder(ctx context.Context, id string, orderID string) error {
	result := r.db.WithContext(ctx).Table("customers").Where("id = ?", id).
		Update("active_order_id", orderID)
	if result.Error != nil {
		return fmt.Errorf("failed to set active order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return core.Errorf(core.KindNotFound, "customer %s not found", id)
	}
	return nil
}

// IncrementStats adds one paid order of the given amount to the customer.
func (r *customerRepository) IncrementStats(ctx context.Context, id string, amount float64) error {
	result := r.db.WithContext(ctx).Table("customers").Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_orders": gorm.Expr("total_orders + 1"),
			"total_spent":  gorm.Expr("total_spent + ?", amount),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to increment customer stats: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return core.Errorf(core.KindNotFound, "customer %s not found", id)
	}
	return nil
}

// MessageRepository implementation

// CreateIdempotent inserts the message unless the (platform,
// external_message_id) pair already exists. The unique index is the
// source of truth for webhook deduplication.
func (r *messageRepository) CreateIdempotent(ctx context.Context, message *core.Message) (bool, error) {
	model := MessageModelFromDomain(message)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform"}, {Name: "external_message_id"}},
			DoNothing: true,
		}).
		Table("messages").Create(model)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert message: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Create inserts a message without dedup (outbound records).
func (r *messageRepository) Create(ctx context.Context, message *core.Message) error {
	model := MessageModelFromDomain(message)
	if err := r.db.WithContext(ctx).Table("messages").Create(model).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListRecentByCustomer returns the newest messages first.
func (r *messageRepository) ListRecentByCustomer(ctx context.Context, customerID string, limit int) ([]*core.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var models []MessageModel
	if err := r.db.WithContext(ctx).Table("messages").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	messages := make([]*core.Message, len(models))
	for i := range models {
		messages[i] = models[i].ToDomain()
	}
	return messages, nil
}

// ProductRepository implementation

// GetByID retrieves a product by its ID
func (r *productRepository) GetByID(ctx context.Context, id string) (*core.Product, error) {
	var model ProductModel
	if err := r.db.WithContext(ctx).Table("products").Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.Errorf(core.KindNotFound, "product %s not found", id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	product := model.ToDomain()
	if err := r.loadMediaRefs(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetActiveByBusiness retrieves the active catalog in insertion order.
// The matcher relies on this ordering for stable tie-breaks.
func (r *productRepository) GetActiveByBusiness(ctx context.Context, businessID string) ([]*core.Product, error) {
	var models []ProductModel
	if err := r.db.WithContext(ctx).Table("products").
		Where("business_id = ? AND is_active = ?", businessID, true).
		Order("created_at ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	products := make([]*core.Product, len(models))
	for i := range models {
		products[i] = models[i].ToDomain()
	}
	return products, nil
}

// GetByMediaRef resolves a social post reference to its mapped product.
func (r *productRepository) GetByMediaRef(ctx context.Context, businessID string, ref string) (*core.Product, error) {
	var media ProductMediaModel
	if err := r.db.WithContext(ctx).Table("product_media").
		Joins("JOIN products ON products.id = product_media.product_id").
		Where("product_media.ref = ? AND products.business_id = ?", ref, businessID).
		First(&media).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.Errorf(core.KindNotFound, "no product mapped to post %s", ref)
		}
		return nil, fmt.Errorf("failed to resolve post mapping: %w", err)
	}
	return r.GetByID(ctx, media.ProductID)
}

func (r *productRepository) loadMediaRefs(ctx context.Context, product *core.Product) error {
	var media []ProductMediaModel
	if err := r.db.WithContext(ctx).Table("product_media").
		Where("product_id = ?", product.ID).
		Find(&media).Error; err != nil {
		return fmt.Errorf("failed to load media refs: %w", err)
	}
	product.MediaRefs = make([]string, len(media))
	for i := range media {
		product.MediaRefs[i] = media[i].Ref
	}
	return nil
}

// OrderRepository implementation

// Create creates a new order with its items in a transaction
func (r *orderRepository) Create(ctx context.Context, order *core.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := OrderModelFromDomain(order)
		if err := tx.Table("orders").Create(model).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		for i := range order.Items {
			item := OrderItemModelFromDomain(&order.Items[i])
			item.OrderID = model.ID
			if err := tx.Table("order_items").Create(item).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves an order by its ID with all items.
func (r *orderRepository) GetByID(ctx context.Context, id string) (*core.Order, error) {
	var model OrderModel
	if err := r.db.WithContext(ctx).Table("orders").Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.Errorf(core.KindNotFound, "order %s not found", id)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	order := model.ToDomain()
	items, err := r.fetchItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// GetActiveByCustomer returns the customer's single non-terminal order.
func (r *orderRepository) GetActiveByCustomer(ctx context.Context, customerID string) (*core.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Table("orders").
		Where("customer_id = ? AND status IN ?", customerID,
			[]string{string(core.OrderStatusPending), string(core.OrderStatusAwaitingPayment)}).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active order: %w", err)
	}
	order := model.ToDomain()
	items, err := r.fetchItems(ctx, model.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// UpdateStatus performs a conditional transition keyed by the current
// status. RowsAffected==0 means the order was not in `from`, which keeps
// concurrent deliveries from double-applying a transition.
func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to core.OrderStatus) (bool, error) {
	result := r.db.WithContext(ctx).Table("orders").
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update order status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SetScreenshotRef records the latest payment screenshot reference.
func (r *orderRepository) SetScreenshotRef(ctx context.Context, id string, ref string) error {
	return r.updateOrderField(ctx, id, "payment_screenshot_ref", ref)
}

// SetReceiptRef records the generated receipt location.
func (r *orderRepository) SetReceiptRef(ctx context.Context, id string, ref string) error {
	return r.updateOrderField(ctx, id, "receipt_ref", ref)
}

// SetNeedsReview flags the order for human escalation.
func (r *orderRepository) SetNeedsReview(ctx context.Context, id string, needsReview bool) error {
	return r.updateOrderField(ctx, id, "needs_review", needsReview)
}

func (r *orderRepository) updateOrderField(ctx context.Context, id, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Table("orders").Where("id = ?", id).
		Updates(map[string]interface{}{
			column:       value,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update order %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return core.Errorf(core.KindNotFound, "order %s not found", id)
	}
	return nil
}

// fetchItems retrieves order items with product names via JOIN so every
// retrieval path returns the same OrderItem shape.
func (r *orderRepository) fetchItems(ctx context.Context, orderID string) ([]core.OrderItem, error) {
	type itemWithProduct struct {
		OrderItemModel
		ProductName string `gorm:"column:product_name"`
	}
	var rows []itemWithProduct
	if err := r.db.WithContext(ctx).Table("order_items").
		Select("order_items.*, products.name as product_name").
		Joins("LEFT JOIN products ON order_items.product_id = products.id").
		Where("order_items.order_id = ?", orderID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	items := make([]core.OrderItem, len(rows))
	for i, row := range rows {
		item := row.OrderItemModel.ToDomain()
		item.ProductName = row.ProductName
		items[i] = *item
	}
	return items, nil
}

// PaymentAttemptRepository implementation

// Create appends a payment attempt.
func (r *attemptRepository) Create(ctx context.Context, attempt *core.PaymentAttempt) error {
	model := PaymentAttemptModelFromDomain(attempt)
	if err := r.db.WithContext(ctx).Table("payment_attempts").Create(model).Error; err != nil {
		return fmt.Errorf("failed to create payment attempt: %w", err)
	}
	return nil
}

// SetVerdict records the collaborator's verdict on an attempt.
func (r *attemptRepository) SetVerdict(ctx context.Context, id string, verdict core.Verdict, detail string) error {
	result := r.db.WithContext(ctx).Table("payment_attempts").Where("id = ?", id).
		Updates(map[string]interface{}{
			"verdict":     string(verdict),
			"detail":      detail,
			"verified_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set attempt verdict: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return core.Errorf(core.KindNotFound, "payment attempt %s not found", id)
	}
	return nil
}

// HasAccepted reports whether the order has an ACCEPTED attempt.
func (r *attemptRepository) HasAccepted(ctx context.Context, orderID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Table("payment_attempts").
		Where("order_id = ? AND verdict = ?", orderID, string(core.VerdictAccepted)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count accepted attempts: %w", err)
	}
	return count > 0, nil
}

// ListByOrder returns attempts oldest first.
func (r *attemptRepository) ListByOrder(ctx context.Context, orderID string) ([]*core.PaymentAttempt, error) {
	var models []PaymentAttemptModel
	if err := r.db.WithContext(ctx).Table("payment_attempts").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment attempts: %w", err)
	}
	attempts := make([]*core.PaymentAttempt, len(models))
	for i := range models {
		attempts[i] = models[i].ToDomain()
	}
	return attempts, nil
}

// Database Models (with GORM tags)

// BusinessModel represents the businesses table structure
type BusinessModel struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey"`
	Name     string `gorm:"column:name;type:varchar(255);not null"`
	Currency string `gorm:"column:currency;type:varchar(8);not null;default:'₹'"`
	UPIID    string `gorm:"column:upi_id;type:varchar(255)"`
	Language string `gorm:"column:language;type:varchar(8);not null;default:'en'"`
}

func (BusinessModel) TableName() string { return "businesses" }

// ToDomain converts BusinessModel to core.Business
func (b *BusinessModel) ToDomain() *core.Business {
	return &core.Business{
		ID:       b.ID,
		Name:     b.Name,
		Currency: b.Currency,
		UPIID:    b.UPIID,
		Language: b.Language,
	}
}

// BusinessAccountModel represents the business_accounts routing table
type BusinessAccountModel struct {
	ID                string `gorm:"column:id;type:uuid;primaryKey"`
	Platform          string `gorm:"column:platform;type:varchar(16);not null;uniqueIndex:idx_platform_account"`
	PlatformAccountID string `gorm:"column:platform_account_id;type:varchar(64);not null;uniqueIndex:idx_platform_account"`
	BusinessID        string `gorm:"column:business_id;type:uuid;not null"`
}

func (BusinessAccountModel) TableName() string { return "business_accounts" }

// CustomerModel represents the customers table structure
type CustomerModel struct {
	ID                string    `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID        string    `gorm:"column:business_id;type:uuid;not null;index"`
	Platform          string    `gorm:"column:platform;type:varchar(16);not null;uniqueIndex:idx_platform_user"`
	PlatformUserID    string    `gorm:"column:platform_user_id;type:varchar(64);not null;uniqueIndex:idx_platform_user"`
	DisplayName       string    `gorm:"column:display_name;type:varchar(255)"`
	Language          string    `gorm:"column:language;type:varchar(8)"`
	TotalOrders       int       `gorm:"column:total_orders;type:integer;not null;default:0"`
	TotalSpent        float64   `gorm:"column:total_spent;type:decimal(12,2);not null;default:0"`
	ActiveOrderID     string    `gorm:"column:active_order_id;type:varchar(36)"`
	CreatedAt         time.Time `gorm:"column:created_at;not null"`
	LastInteractionAt time.Time `gorm:"column:last_interaction_at;not null"`
}

func (CustomerModel) TableName() string { return "customers" }

// CustomerModelFromDomain creates CustomerModel from core.Customer
func CustomerModelFromDomain(c *core.Customer) *CustomerModel {
	return &CustomerModel{
		ID:                c.ID,
		BusinessID:        c.BusinessID,
		Platform:          string(c.Platform),
		PlatformUserID:    c.PlatformUserID,
		DisplayName:       c.DisplayName,
		Language:          c.Language,
		TotalOrders:       c.TotalOrders,
		TotalSpent:        c.TotalSpent,
		ActiveOrderID:     c.ActiveOrderID,
		CreatedAt:         c.CreatedAt,
		LastInteractionAt: c.LastInteractionAt,
	}
}

// ToDomain converts CustomerModel to core.Customer
func (c *CustomerModel) ToDomain() *core.Customer {
	return &core.Customer{
		ID:                c.ID,
		BusinessID:        c.BusinessID,
		Platform:          core.Platform(c.Platform),
		PlatformUserID:    c.PlatformUserID,
		DisplayName:       c.DisplayName,
		Language:          c.Language,
		TotalOrders:       c.TotalOrders,
		TotalSpent:        c.TotalSpent,
		ActiveOrderID:     c.ActiveOrderID,
		CreatedAt:         c.CreatedAt,
		LastInteractionAt: c.LastInteractionAt,
	}
}

// MessageModel represents the messages table structure
type MessageModel struct {
	ID                string    `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID        string    `gorm:"column:customer_id;type:uuid;not null;index"`
	Direction         string    `gorm:"column:direction;type:varchar(10);not null"`
	Platform          string    `gorm:"column:platform;type:varchar(16);not null;uniqueIndex:idx_message_dedup"`
	ExternalMessageID string    `gorm:"column:external_message_id;type:varchar(128);not null;uniqueIndex:idx_message_dedup"`
	Content           string    `gorm:"column:content;type:text"`
	AttachmentRef     string    `gorm:"column:attachment_ref;type:varchar(1024)"`
	AttachmentType    string    `gorm:"column:attachment_type;type:varchar(32)"`
	Category          string    `gorm:"column:category;type:varchar(32)"`
	CreatedAt         time.Time `gorm:"column:created_at;not null"`
}

func (MessageModel) TableName() string { return "messages" }

// MessageModelFromDomain creates MessageModel from core.Message
func MessageModelFromDomain(m *core.Message) *MessageModel {
	return &MessageModel{
		ID:                m.ID,
		CustomerID:        m.CustomerID,
		Direction:         string(m.Direction),
		Platform:          string(m.Platform),
		ExternalMessageID: m.ExternalMessageID,
		Content:           m.Content,
		AttachmentRef:     m.AttachmentRef,
		AttachmentType:    m.AttachmentType,
		Category:          string(m.Category),
		CreatedAt:         m.CreatedAt,
	}
}

// ToDomain converts MessageModel to core.Message
func (m *MessageModel) ToDomain() *core.Message {
	return &core.Message{
		ID:                m.ID,
		CustomerID:        m.CustomerID,
		Direction:         core.Direction(m.Direction),
		Platform:          core.Platform(m.Platform),
		ExternalMessageID: m.ExternalMessageID,
		Content:           m.Content,
		AttachmentRef:     m.AttachmentRef,
		AttachmentType:    m.AttachmentType,
		Category:          core.Category(m.Category),
		CreatedAt:         m.CreatedAt,
	}
}

// ProductModel represents the products table structure
type ProductModel struct {
	ID            string         `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID    string         `gorm:"column:business_id;type:uuid;not null;index"`
	Name          string         `gorm:"column:name;type:varchar(255);not null"`
	Description   sql.NullString `gorm:"column:description;type:text"`
	Category      string         `gorm:"column:category;type:varchar(100);not null"`
	Price         float64        `gorm:"column:price;type:decimal(10,2);not null"`
	StockQuantity int            `gorm:"column:stock_quantity;type:integer;not null;default:0"`
	IsActive      bool           `gorm:"column:is_active;type:boolean;not null;default:true"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null"`
}

func (ProductModel) TableName() string { return "products" }

// ToDomain converts ProductModel to core.Product
func (p *ProductModel) ToDomain() *core.Product {
	product := &core.Product{
		ID:            p.ID,
		BusinessID:    p.BusinessID,
		Name:          p.Name,
		Category:      p.Category,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
	}
	if p.Description.Valid {
		product.Description = p.Description.String
	}
	return product
}

// ProductMediaModel maps a social post reference to a product
type ProductMediaModel struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey"`
	ProductID string `gorm:"column:product_id;type:uuid;not null;index"`
	Ref       string `gorm:"column:ref;type:varchar(512);not null;index"`
}

func (ProductMediaModel) TableName() string { return "product_media" }

// OrderModel represents the orders table structure
type OrderModel struct {
	ID                   string    `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID           string    `gorm:"column:customer_id;type:uuid;not null;index"`
	BusinessID           string    `gorm:"column:business_id;type:uuid;not null;index"`
	TotalAmount          float64   `gorm:"column:total_amount;type:decimal(12,2);not null"`
	Status               string    `gorm:"column:status;type:varchar(20);not null;default:'PENDING';index"`
	PaymentScreenshotRef string    `gorm:"column:payment_screenshot_ref;type:varchar(1024)"`
	ReceiptRef           string    `gorm:"column:receipt_ref;type:varchar(1024)"`
	NeedsReview          bool      `gorm:"column:needs_review;type:boolean;not null;default:false"`
	CreatedAt            time.Time `gorm:"column:created_at;not null"`
	UpdatedAt            time.Time `gorm:"column:updated_at;not null"`
}

func (OrderModel) TableName() string { return "orders" }

// OrderModelFromDomain creates OrderModel from core.Order
func OrderModelFromDomain(order *core.Order) *OrderModel {
	return &OrderModel{
		ID:                   order.ID,
		CustomerID:           order.CustomerID,
		BusinessID:           order.BusinessID,
		TotalAmount:          order.TotalAmount,
		Status:               string(order.Status),
		PaymentScreenshotRef: order.PaymentScreenshotRef,
		ReceiptRef:           order.ReceiptRef,
		NeedsReview:          order.NeedsReview,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
}

// ToDomain converts OrderModel to core.Order
func (o *OrderModel) ToDomain() *core.Order {
	return &core.Order{
		ID:                   o.ID,
		CustomerID:           o.CustomerID,
		BusinessID:           o.BusinessID,
		TotalAmount:          o.TotalAmount,
		Status:               core.OrderStatus(o.Status),
		PaymentScreenshotRef: o.PaymentScreenshotRef,
		ReceiptRef:           o.ReceiptRef,
		NeedsReview:          o.NeedsReview,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		Items:                []core.OrderItem{},
	}
}

// OrderItemModel represents the order_items table structure
type OrderItemModel struct {
	ID          string  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     string  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   string  `gorm:"column:product_id;type:uuid;not null"`
	Quantity    int     `gorm:"column:quantity;type:integer;not null"`
	PriceAtTime float64 `gorm:"column:price_at_time;type:decimal(10,2);not null"`
}

func (OrderItemModel) TableName() string { return "order_items" }

// OrderItemModelFromDomain creates OrderItemModel from core.OrderItem
func OrderItemModelFromDomain(item *core.OrderItem) *OrderItemModel {
	return &OrderItemModel{
		ID:          item.ID,
		OrderID:     item.OrderID,
		ProductID:   item.ProductID,
		Quantity:    item.Quantity,
		PriceAtTime: item.PriceAtTime,
	}
}

// ToDomain converts OrderItemModel to core.OrderItem
func (oi *OrderItemModel) ToDomain() *core.OrderItem {
	return &core.OrderItem{
		ID:          oi.ID,
		OrderID:     oi.OrderID,
		ProductID:   oi.ProductID,
		Quantity:    oi.Quantity,
		PriceAtTime: oi.PriceAtTime,
	}
}

// PaymentAttemptModel represents the payment_attempts table structure
type PaymentAttemptModel struct {
	ID         string       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    string       `gorm:"column:order_id;type:uuid;not null;index"`
	ImageRef   string       `gorm:"column:image_ref;type:varchar(1024)"`
	Verdict    string       `gorm:"column:verdict;type:varchar(20);not null;default:'NEEDS_REVIEW'"`
	Detail     string       `gorm:"column:detail;type:text"`
	VerifiedAt sql.NullTime `gorm:"column:verified_at"`
	CreatedAt  time.Time    `gorm:"column:created_at;not null"`
}

func (PaymentAttemptModel) TableName() string { return "payment_attempts" }

// PaymentAttemptModelFromDomain creates PaymentAttemptModel from core.PaymentAttempt
func PaymentAttemptModelFromDomain(a *core.PaymentAttempt) *PaymentAttemptModel {
	verifiedAt := sql.NullTime{}
	if a.VerifiedAt != nil {
		verifiedAt = sql.NullTime{Time: *a.VerifiedAt, Valid: true}
	}
	return &PaymentAttemptModel{
		ID:         a.ID,
		OrderID:    a.OrderID,
		ImageRef:   a.ImageRef,
		Verdict:    string(a.Verdict),
		Detail:     a.Detail,
		VerifiedAt: verifiedAt,
		CreatedAt:  a.CreatedAt,
	}
}

// ToDomain converts PaymentAttemptModel to core.PaymentAttempt
func (a *PaymentAttemptModel) ToDomain() *core.PaymentAttempt {
	var verifiedAt *time.Time
	if a.VerifiedAt.Valid {
		t := a.VerifiedAt.Time
		verifiedAt = &t
	}
	return &core.PaymentAttempt{
		ID:         a.ID,
		OrderID:    a.OrderID,
		ImageRef:   a.ImageRef,
		Verdict:    core.Verdict(a.Verdict),
		Detail:     a.Detail,
		VerifiedAt: verifiedAt,
		CreatedAt:  a.CreatedAt,
	}
}
