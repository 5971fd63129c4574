package service

import (
	"context"
	"sync"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
)

// In-memory fakes shared by the service tests. They mirror the repository
// semantics the pipeline depends on: idempotent message insert, conditional
// status updates and nil-when-none active order lookup.

type fakeProductRepo struct {
	products []*core.Product
	media    map[string]string // ref -> product id
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*core.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, core.Errorf(core.KindNotFound, "product %s not found", id)
}

func (f *fakeProductRepo) GetActiveByBusiness(_ context.Context, businessID string) ([]*core.Product, error) {
	var out []*core.Product
	for _, p := range f.products {
		if p.BusinessID == businessID && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) GetByMediaRef(_ context.Context, businessID, ref string) (*core.Product, error) {
	if id, ok := f.media[ref]; ok {
		return f.GetByID(context.Background(), id)
	}
	return nil, core.Errorf(core.KindNotFound, "no product for ref %s", ref)
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*core.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*core.Order)}
}

func (f *fakeOrderRepo) Create(_ context.Context, order *core.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *order
	f.orders[order.ID] = &clone
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*core.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		clone := *o
		return &clone, nil
	}
	return nil, core.Errorf(core.KindNotFound, "order %s not found", id)
}

func (f *fakeOrderRepo) GetActiveByCustomer(_ context.Context, customerID string) (*core.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.CustomerID == customerID && o.Status.Active() {
			clone := *o
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id string, from, to core.OrderStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (f *fakeOrderRepo) SetScreenshotRef(_ context.Context, id, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		o.PaymentScreenshotRef = ref
	}
	return nil
}

func (f *fakeOrderRepo) SetReceiptRef(_ context.Context, id, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		o.ReceiptRef = ref
	}
	return nil
}

func (f *fakeOrderRepo) SetNeedsReview(_ context.Context, id string, needsReview bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		o.NeedsReview = needsReview
	}
	return nil
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[string]*core.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[string]*core.Customer)}
}

func (f *fakeCustomerRepo) add(c *core.Customer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers[c.ID] = c
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, id string) (*core.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.customers[id]; ok {
		return c, nil
	}
	return nil, core.Errorf(core.KindNotFound, "customer %s not found", id)
}

func (f *fakeCustomerRepo) GetByPlatformUser(_ context.Context, platform core.Platform, userID string) (*core.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.customers {
		if c.Platform == platform && c.PlatformUserID == userID {
			return c, nil
		}
	}
	return nil, core.Errorf(core.KindNotFound, "customer %s/%s not found", platform, userID)
}

func (f *fakeCustomerRepo) Create(_ context.Context, c *core.Customer) error {
	f.add(c)
	return nil
}

func (f *fakeCustomerRepo) GetOrCreate(ctx context.Context, c *core.Customer) (*core.Customer, error) {
	if existing, err := f.GetByPlatformUser(ctx, c.Platform, c.PlatformUserID); err == nil {
		return existing, nil
	}
	if c.ID == "" {
		c.ID = "cust-" + c.PlatformUserID
	}
	f.add(c)
	return c, nil
}

func (f *fakeCustomerRepo) RecordInteraction(_ context.Context, id, language string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.customers[id]; ok && language != "" {
		c.Language = language
	}
	return nil
}

func (f *fakeCustomerRepo) SetActiveOrder(_ context.Context, id, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.customers[id]; ok {
		c.ActiveOrderID = orderID
	}
	return nil
}

func (f *fakeCustomerRepo) IncrementStats(_ context.Context, id string, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.customers[id]; ok {
		c.TotalOrders++
		c.TotalSpent += amount
	}
	return nil
}

type fakeAttemptRepo struct {
	mu          sync.Mutex
	attempts    map[string]*core.PaymentAttempt
	acceptedErr error
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: make(map[string]*core.PaymentAttempt)}
}

func (f *fakeAttemptRepo) Create(_ context.Context, a *core.PaymentAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *a
	f.attempts[a.ID] = &clone
	return nil
}

func (f *fakeAttemptRepo) SetVerdict(_ context.Context, id string, verdict core.Verdict, detail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.attempts[id]; ok {
		a.Verdict = verdict
		a.Detail = detail
	}
	return nil
}

func (f *fakeAttemptRepo) HasAccepted(_ context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.acceptedErr != nil {
		return false, f.acceptedErr
	}
	for _, a := range f.attempts {
		if a.OrderID == orderID && a.Verdict == core.VerdictAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAttemptRepo) ListByOrder(_ context.Context, orderID string) ([]*core.PaymentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*core.PaymentAttempt
	for _, a := range f.attempts {
		if a.OrderID == orderID {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*core.Message
	seen     map[string]bool
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{seen: make(map[string]bool)}
}

func (f *fakeMessageRepo) CreateIdempotent(_ context.Context, m *core.Message) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := string(m.Platform) + ":" + m.ExternalMessageID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	clone := *m
	f.messages = append(f.messages, &clone)
	return true, nil
}

func (f *fakeMessageRepo) Create(_ context.Context, m *core.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *m
	f.messages = append(f.messages, &clone)
	return nil
}

func (f *fakeMessageRepo) ListRecentByCustomer(_ context.Context, customerID string, limit int) ([]*core.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*core.Message
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if f.messages[i].CustomerID == customerID {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

type fakeBusinessRepo struct {
	business *core.Business
	accounts map[string]string // platform:accountID -> business id
}

func (f *fakeBusinessRepo) GetByID(_ context.Context, id string) (*core.Business, error) {
	if f.business != nil && f.business.ID == id {
		return f.business, nil
	}
	return nil, core.Errorf(core.KindNotFound, "business %s not found", id)
}

func (f *fakeBusinessRepo) GetByPlatformAccount(_ context.Context, platform core.Platform, accountID string) (*core.Business, error) {
	if id, ok := f.accounts[string(platform)+":"+accountID]; ok && f.business != nil && f.business.ID == id {
		return f.business, nil
	}
	return nil, core.Errorf(core.KindNotFound, "no business for %s/%s", platform, accountID)
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*core.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*core.Session)}
}

func (f *fakeSessionRepo) Get(_ context.Context, customerID string) (*core.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[customerID]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, core.Errorf(core.KindNotFound, "session for %s not found", customerID)
}

func (f *fakeSessionRepo) Set(_ context.Context, customerID string, session *core.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *session
	f.sessions[customerID] = &clone
	return nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, customerID)
	return nil
}

type fakeDeduper struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{keys: make(map[string]bool)}
}

func (f *fakeDeduper) MarkSeen(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return true, nil
	}
	f.keys[key] = true
	return false, nil
}

type sentMessage struct {
	Platform    core.Platform
	RecipientID string
	Text        string
}

type fakeGateway struct {
	mu          sync.Mutex
	sent        []sentMessage
	profileName string
	profileErr  error
	sendErr     error
	imageData   string
	imageErr    error
}

func (f *fakeGateway) SendText(_ context.Context, platform core.Platform, recipientID, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{Platform: platform, RecipientID: recipientID, Text: text})
	return nil
}

func (f *fakeGateway) SendImage(_ context.Context, platform core.Platform, recipientID, imageURL string) error {
	return f.sendErr
}

func (f *fakeGateway) FetchProfile(_ context.Context, _ core.Platform, _ string) (*core.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &core.Profile{Name: f.profileName}, nil
}

func (f *fakeGateway) FetchImageBase64(_ context.Context, _ string) (string, string, error) {
	if f.imageErr != nil {
		return "", "", f.imageErr
	}
	if f.imageData == "" {
		return "aGVsbG8=", "image/jpeg", nil
	}
	return f.imageData, "image/jpeg", nil
}

func (f *fakeGateway) lastSent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

type fakeCompleter struct {
	response    string
	category    core.Category
	err         error
	delay       func(ctx context.Context) error
	lastContext core.CompletionContext
}

func (f *fakeCompleter) Complete(ctx context.Context, _ string, cc core.CompletionContext) (*core.Completion, error) {
	f.lastContext = cc
	if f.delay != nil {
		if err := f.delay(ctx); err != nil {
			return nil, err
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &core.Completion{Response: f.response, Category: f.category}, nil
}

type fakeVision struct {
	verdict core.Verdict
	detail  string
	err     error
}

func (f *fakeVision) VerifyPayment(_ context.Context, _, _ string, _ *core.Order) (core.Verdict, string, error) {
	if f.err != nil {
		return core.VerdictNeedsReview, "", f.err
	}
	return f.verdict, f.detail, nil
}
