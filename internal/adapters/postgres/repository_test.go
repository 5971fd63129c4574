package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo := NewRepositoryFromDB(db)
	require.NoError(t, repo.AutoMigrate())
	return repo
}

func seedBusiness(t *testing.T, repo *Repository) *BusinessModel {
	t.Helper()
	business := &BusinessModel{
		ID:       uuid.New().String(),
		Name:     "Meera Boutique",
		Currency: "₹",
		UPIID:    "meeraboutique@upi",
		Language: "en",
	}
	require.NoError(t, repo.db.Table("businesses").Create(business).Error)
	require.NoError(t, repo.db.Table("business_accounts").Create(&BusinessAccountModel{
		ID:                uuid.New().String(),
		Platform:          string(core.PlatformInstagram),
		PlatformAccountID: "page1",
		BusinessID:        business.ID,
	}).Error)
	return business
}

func seedCustomer(t *testing.T, repo *Repository, businessID string) *core.Customer {
	t.Helper()
	customer, err := repo.CustomerRepository().GetOrCreate(context.Background(), &core.Customer{
		BusinessID:     businessID,
		Platform:       core.PlatformInstagram,
		PlatformUserID: "ig-user-1",
		DisplayName:    "Asha",
		Language:       "en",
	})
	require.NoError(t, err)
	return customer
}

func seedProduct(t *testing.T, repo *Repository, businessID, name string, price float64, active bool) *ProductModel {
	t.Helper()
	product := &ProductModel{
		ID:          uuid.New().String(),
		BusinessID:  businessID,
		Name:        name,
		Description: sql.NullString{String: name + " description", Valid: true},
		Category:    "Apparel",
		Price:       price,
		IsActive:    active,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.db.Table("products").Create(product).Error)
	return product
}

func TestBusinessRepository_GetByPlatformAccount(t *testing.T) {
	repo := newTestRepository(t)
	seeded := seedBusiness(t, repo)

	business, err := repo.BusinessRepository().GetByPlatformAccount(context.Background(), core.PlatformInstagram, "page1")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, business.ID)
	assert.Equal(t, "Meera Boutique", business.Name)
	assert.Equal(t, "meeraboutique@upi", business.UPIID)

	_, err = repo.BusinessRepository().GetByPlatformAccount(context.Background(), core.PlatformInstagram, "unknown-page")
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindNotFound))

	// Same account id on the other platform does not route.
	_, err = repo.BusinessRepository().GetByPlatformAccount(context.Background(), core.PlatformWhatsApp, "page1")
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindNotFound))
}

func TestCustomerRepository_GetOrCreateIsStable(t *testing.T) {
	repo := newTestRepository(t)
	business := seedBusiness(t, repo)

	first := seedCustomer(t, repo, business.ID)
	require.NotEmpty(t, first.ID)

	// Second resolve for the same sender returns the same row.
	second, err := repo.CustomerRepository().GetOrCreate(context.Background(), &core.Customer{
		BusinessID:     business.ID,
		Platform:       core.PlatformInstagram,
		PlatformUserID: "ig-user-1",
		DisplayName:    "Somebody Else",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Asha", second.DisplayName)
}

func TestCustomerRepository_RecordInteraction(t *testing.T) {
	repo := newTestRepository(t)
	business := seedBusiness(t, repo)
	customer := seedCustomer(t, repo, business.ID)

	require.NoError(t, repo.CustomerRepository().RecordInteraction(context.Background(), customer.ID, "hi"))

	got, err := repo.CustomerRepository().GetByID(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Language)

	err = repo.CustomerRepository().RecordInteraction(context.Background(), uuid.New().String(), "en")
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindNotFound))
}

func TestCustomerRepository_ActiveOrderAndStats(t *testing.T) {
	repo := newTestRepository(t)
	business := seedBusiness(t, repo)
	customer := seedCustomer(t, repo, business.ID)

	orderID := uuid.New().String()
	require.NoError(t, repo.CustomerRepository().SetActiveOrder(context.Background(), customer.ID, orderID))
	require.NoError(t, repo.CustomerRepository().IncrementStats(context.Background(), customer.ID, 499))
	require.NoError(t, repo.CustomerRepository().IncrementStats(context.Background(), customer.ID, 2499))

	got, err := repo.CustomerRepository().GetByID(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, orderID, got.ActiveOrderID)
	assert.Equal(t, 2, got.TotalOrders)
	assert.Equal(t, 2998.0, got.TotalSpent)

	// Clearing stores the empty sentinel, not NULL.
	require.NoError(t, repo.CustomerRepository().SetActiveOrder(context.Background(), customer.ID, ""))
	got, err = repo.CustomerRepository().GetByID(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.ActiveOrderID)
}

func TestMessageRepository_CreateIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	business := seedBusiness(t, repo)
	customer := seedCustomer(t, repo, business.ID)

	message := &core.Message{
		ID:                uuid.New().String(),
		CustomerID:        customer.ID,
		Direction:         core.DirectionIncoming,
		Platform:          core.PlatformInstagram,
		ExternalMessageID: "mid.abc",
		Content:           "hello",
		CreatedAt:         time.Now(),
	}
	created, err := repo.MessageRepository().CreateIdempotent(context.Background(), message)
	require.NoError(t, err)
	assert.True(t, created)

	// Webhook redelivery: same platform message id is silently dropped.
	duplicate := *message
	duplicate.ID = uuid.New().String()
	created, err = repo.MessageRepository().CreateIdempotent(context.Background(), &duplicate)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, repo.db.Table("messages").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// The same external id on the other platform is a different message.
	other := *message
	other.ID = uuid.New().String()
	other.Platform = core.PlatformWhatsApp
	created, err = repo.MessageRepository().CreateIdempotent(context.Background(), &other)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestMessageRepository_ListRecentByCustomer(t *testing.T) {
	repo := newTestRepository(t)
	business := seedBusiness(t, repo)
	customer := seedCustomer(t, repo, business.ID)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.MessageRepository().Create(context.Background(), &core.Message{
			ID:                uuid.New().String(),
			CustomerID:        customer.ID,
			Direction:         core.DirectionIncoming,
			Platform:          core.PlatformInstagram,
			ExternalMessageID: fmt.Sprintf("mid.%d", i),
			Content:           fmt.Sprintf("message %d", i),
			CreatedAt:         base.Add(time.Duration(i) * time.Minute),
		}))
	}

	messages, err := repo.MessageRepository().ListRecentByCustomer(context.Background(), customer.ID, 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "message 4", messages[0].Content)
	assert.Equal(t, "message 2", messages[2].Content)
}

func TestProductRepository_GetActiveByBusiness(t *testing.T) {
	repo := newTestRepository(t)
	business := seedBusiness(t, repo)
	seedProduct(t, repo, business.ID, "Cotton Shirt", 499, true)
	seedProduct(t, repo, business.ID, "Silk Saree", 2499, true)
	seedProduct(t, repo, business.ID, "Old Stock Kurti", 199, false)

	products, err := repo.ProductRepository().GetActiveByBusiness(context.Background(), business.ID)
	require.NoError(t, err)
	require.Len(t, products, 2)
	for _, p := range products {
		assert.True(t, p.IsActive)
		assert.NotEqual(t, "Old Stock Kurti", p.Name)
	}
}

func TestProductRepository_GetByMediaRef(t *testing.T) {
	repo := newTestRepository(t)
	business := seedBusiness(t, repo)
	saree := seedProduct(t, repo, business.ID, "Silk Saree", 2499, true)
	require.NoError(t, repo.db.Table("product_media").Create(&ProductMediaModel{
		ID:        uuid.New().String(),
		ProductID: saree.ID,
		Ref:       "DEMO_saree01",
	}).Error)

	product, err := repo.ProductRepository().GetByMediaRef(context.Background(), business.ID, "DEMO_saree01")
	require.NoError(t, err)
	assert.Equal(t, "Silk Saree", product.Name)
	assert.Equal(t, []string{"DEMO_saree01"}, product.MediaRefs)

	_, err = repo.ProductRepository().GetByMediaRef(context.Background(), business.ID, "DEMO_unknown")
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindNotFound))

	// Refs do not leak across businesses.
	_, err = repo.ProductRepository().GetByMediaRef(context.Background(), uuid.New().String(), "DEMO_saree01")
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindNotFound))
}

func seedOrder(t *testing.T, repo *Repository, businessID, customerID string, status core.OrderStatus, product *ProductModel) *core.Order {
	t.Helper()
	now := time.Now()
	order := &core.Order{
		ID:          uuid.New().String(),
		CustomerID:  customerID,
		BusinessID:  businessID,
		TotalAmount: product.Price,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items: []core.OrderItem{{
			ID:          uuid.New().String(),
			ProductID:   product.ID,
			Quantity:    1,
			PriceAtTime: product.Price,
		}},
	}
	require.NoError(t, repo.OrderRepository().Create(context.Background(), order))
	return order
}

func TestOrderRepository_CreateAndGetWithItems(t *testing.T) {
	repo := newTestRepository(t)
	business := seedBusiness(t, repo)
	customer := seedCustomer(t, repo, business.ID)
	shirt := seedProduct(t, repo, business.ID, "Cotton Shirt", 499, true)
	order := seedOrder(t, repo, business.ID, customer.ID, core.OrderStatusPending, shirt)

	got, err := repo.OrderRepository().GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, core.OrderStatusPending, got.Status)
	assert.Equal(t, 499.0, got.TotalAmount)
	require.Len(t, got.Items, 1)
	// Names come from the products join, not a stored column.
	assert.Equal(t, "Cotton Shirt", got.Items[0].ProductName)
	assert.Equal(t, 499.0, got.Items[0].PriceAtTime)
}

func TestOrderRepository_GetActiveByCustomer(t *testing.T) {
	repo := newTestRepository(t)
	business := seedBusiness(t, repo)
	customer := seedCustomer(t, repo, business.ID)
	shirt := seedProduct(t, repo, business.ID, "Cotton Shirt", 499, true)

	// No orders yet: nil without an error.
	active, err := repo.OrderRepository().GetActiveByCustomer(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	order := seedOrder(t, repo, business.ID, customer.ID, core.OrderStatusAwaitingPayment, shirt)
	active, err = repo.OrderRepository().GetActiveByCustomer(context.Background(), customer.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, order.ID, active.ID)
	require.Len(t, active.Items, 1)

	// Terminal orders are invisible to the active lookup.
	ok, err := repo.OrderRepository().UpdateStatus(context.Background(), order.ID, core.OrderStatusAwaitingPayment, core.OrderStatusCancelled)
	require.NoError(t, err)
	require.True(t, ok)
	active, err = repo.OrderRepository().GetActiveByCustomer(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestOrderRepository_UpdateStatusIsConditional(t *testing.T) {
	repo := newTestRepository(t)
	business := seedBusiness(t, repo)
	customer := seedCustomer(t, repo, business.ID)
	shirt := seedProduct(t, repo, business.ID, "Cotton Shirt", 499, true)
	order := seedOrder(t, repo, business.ID, customer.ID, core.OrderStatusPending, shirt)

	// Wrong expected status: no rows touched.
	ok, err := repo.OrderRepository().UpdateStatus(context.Background(), order.ID, core.OrderStatusAwaitingPayment, core.OrderStatusPaid)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.OrderRepository().UpdateStatus(context.Background(), order.ID, core.OrderStatusPending, core.OrderStatusAwaitingPayment)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second identical transition finds no PENDING row.
	ok, err = repo.OrderRepository().UpdateStatus(context.Background(), order.ID, core.OrderStatusPending, core.OrderStatusAwaitingPayment)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderRepository_FlagsAndRefs(t *testing.T) {
	repo := newTestRepository(t)
	business := seedBusiness(t, repo)
	customer := seedCustomer(t, repo, business.ID)
	shirt := seedProduct(t, repo, business.ID, "Cotton Shirt", 499, true)
	order := seedOrder(t, repo, business.ID, customer.ID, core.OrderStatusAwaitingPayment, shirt)

	require.NoError(t, repo.OrderRepository().SetScreenshotRef(context.Background(), order.ID, "https://cdn/shot.jpg"))
	require.NoError(t, repo.OrderRepository().SetReceiptRef(context.Background(), order.ID, "receipts/r1.pdf"))
	require.NoError(t, repo.OrderRepository().SetNeedsReview(context.Background(), order.ID, true))

	got, err := repo.OrderRepository().GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/shot.jpg", got.PaymentScreenshotRef)
	assert.Equal(t, "receipts/r1.pdf", got.ReceiptRef)
	assert.True(t, got.NeedsReview)

	err = repo.OrderRepository().SetNeedsReview(context.Background(), uuid.New().String(), true)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindNotFound))
}

func TestPaymentAttemptRepository_VerdictLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	business := seedBusiness(t, repo)
	customer := seedCustomer(t, repo, business.ID)
	shirt := seedProduct(t, repo, business.ID, "Cotton Shirt", 499, true)
	order := seedOrder(t, repo, business.ID, customer.ID, core.OrderStatusAwaitingPayment, shirt)

	attempt := &core.PaymentAttempt{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		ImageRef:  "https://cdn/shot.jpg",
		Verdict:   core.VerdictNeedsReview,
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.PaymentAttemptRepository().Create(context.Background(), attempt))

	accepted, err := repo.PaymentAttemptRepository().HasAccepted(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, accepted)

	require.NoError(t, repo.PaymentAttemptRepository().SetVerdict(context.Background(), attempt.ID, core.VerdictAccepted, "amount matches"))

	accepted, err = repo.PaymentAttemptRepository().HasAccepted(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, accepted)

	attempts, err := repo.PaymentAttemptRepository().ListByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, core.VerdictAccepted, attempts[0].Verdict)
	assert.Equal(t, "amount matches", attempts[0].Detail)
	require.NotNil(t, attempts[0].VerifiedAt)
}
