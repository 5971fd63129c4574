package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
)

// InboundAttachment is one media attachment on an inbound event.
type InboundAttachment struct {
	Type string
	URL  string
}

// InboundEvent is a platform-neutral webhook messaging event. The HTTP
// handler translates wire payloads into this shape before dispatch.
type InboundEvent struct {
	Platform    core.Platform
	AccountID   string // recipient page/account id, routes to a business
	SenderID    string
	MessageID   string // platform message id, may be absent
	Timestamp   int64  // platform epoch millis
	Text        string
	IsEcho      bool
	Attachments []InboundAttachment
}

// cancelKeywords trigger an explicit customer cancellation of the active
// order. Abandoned orders are cancelled by an external scheduler instead.
var cancelKeywords = []string{
	"cancel", "cancel karo", "nahi chahiye", "rehne do", "mat bhejo",
	"order cancel",
}

// Pipeline drives one inbound event end to end: dedup, routing, customer
// resolution, classification, order flow and the reply. Same-customer events
// are serialized through the queue; different customers run concurrently.
type Pipeline struct {
	businesses core.BusinessRepository
	customers  core.CustomerRepository
	messages   core.MessageRepository
	products   core.ProductRepository
	orders     core.OrderRepository
	sessions   core.SessionRepository
	deduper    core.DeliveryDeduper
	gateway    core.MessengerGateway
	matcher    *Matcher
	flow       *OrderFlow
	payments   *PaymentVerifier
	responder  *Responder
	queue      *CustomerQueue
	budget     time.Duration
	logger     *zap.Logger
}

type PipelineParams struct {
	Businesses core.BusinessRepository
	Customers  core.CustomerRepository
	Messages   core.MessageRepository
	Products   core.ProductRepository
	Orders     core.OrderRepository
	Sessions   core.SessionRepository
	Deduper    core.DeliveryDeduper
	Gateway    core.MessengerGateway
	Matcher    *Matcher
	Flow       *OrderFlow
	Payments   *PaymentVerifier
	Responder  *Responder
	Budget     time.Duration
	Logger     *zap.Logger
}

func NewPipeline(p PipelineParams) *Pipeline {
	if p.Budget <= 0 {
		p.Budget = 10 * time.Second
	}
	return &Pipeline{
		businesses: p.Businesses,
		customers:  p.Customers,
		messages:   p.Messages,
		products:   p.Products,
		orders:     p.Orders,
		sessions:   p.Sessions,
		deduper:    p.Deduper,
		gateway:    p.Gateway,
		matcher:    p.Matcher,
		flow:       p.Flow,
		payments:   p.Payments,
		responder:  p.Responder,
		queue:      NewCustomerQueue(p.Logger),
		budget:     p.Budget,
		logger:     p.Logger,
	}
}

// HandleDelivery fans a webhook delivery out to per-customer workers and
// returns immediately. The webhook endpoint must always answer 200 fast;
// everything slow happens here, off the request goroutine.
func (p *Pipeline) HandleDelivery(events []InboundEvent) {
	for _, event := range events {
		event := event
		key := fmt.Sprintf("%s:%s", event.Platform, event.SenderID)
		accepted := p.queue.Submit(context.Background(), key, func(ctx context.Context) {
			p.process(ctx, event)
		})
		if !accepted {
			p.logger.Warn("event not queued",
				zap.String("key", key),
				zap.String("mid", event.MessageID))
		}
	}
}

// Close drains the worker queue. Used on shutdown.
func (p *Pipeline) Close() {
	p.queue.Close()
}

// process runs one event under the wall-clock budget with panic isolation,
// so a single poisonous event can never take down a worker.
func (p *Pipeline) process(ctx context.Context, event InboundEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic while processing event",
				zap.String("sender_id", event.SenderID),
				zap.String("mid", event.MessageID),
				zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, p.budget)
	defer cancel()

	if err := p.handle(ctx, event); err != nil {
		switch {
		case core.IsKind(err, core.KindDuplicateDelivery):
			p.logger.Debug("duplicate delivery absorbed",
				zap.String("mid", event.MessageID),
				zap.String("sender_id", event.SenderID))
		case core.IsKind(err, core.KindNotFound):
			p.logger.Warn("unroutable delivery dropped",
				zap.String("platform", string(event.Platform)),
				zap.String("account_id", event.AccountID))
		default:
			p.logger.Error("event processing failed",
				zap.String("sender_id", event.SenderID),
				zap.String("mid", event.MessageID),
				zap.Error(err))
			if errors.Is(err, context.DeadlineExceeded) {
				p.sendBudgetApology(event)
			}
		}
	}
}

// sendBudgetApology runs on budget expiry, outside the expired context.
// Best effort: the customer should not be left hanging just because we
// ran out of time.
func (p *Pipeline) sendBudgetApology(event InboundEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reply := p.responder.Apology(DetectLanguage(event.Text))
	if err := p.gateway.SendText(ctx, event.Platform, event.SenderID, reply); err != nil {
		p.logger.Warn("budget apology send failed",
			zap.String("sender_id", event.SenderID), zap.Error(err))
	}
}

func (p *Pipeline) handle(ctx context.Context, event InboundEvent) error {
	// Echoes are our own outbound messages reflected back by the platform.
	if event.IsEcho {
		return nil
	}

	// First dedup line: fast delivery-key check in Redis. A Redis failure
	// degrades to the database unique index below rather than dropping
	// the event.
	dedupKey := event.MessageID
	if dedupKey == "" {
		dedupKey = fmt.Sprintf("%s:%d", event.SenderID, event.Timestamp)
	}
	seen, err := p.deduper.MarkSeen(ctx, fmt.Sprintf("%s:%s", event.Platform, dedupKey))
	if err != nil {
		p.logger.Warn("delivery dedup check failed", zap.Error(err))
	} else if seen {
		return core.Errorf(core.KindDuplicateDelivery, "delivery %s already seen", dedupKey)
	}

	business, err := p.businesses.GetByPlatformAccount(ctx, event.Platform, event.AccountID)
	if err != nil {
		return err
	}

	customer, err := p.resolveCustomer(ctx, business, event)
	if err != nil {
		return err
	}

	attachmentRef, attachmentType := firstImageAttachment(event.Attachments)

	activeOrder, err := p.orders.GetActiveByCustomer(ctx, customer.ID)
	if err != nil {
		p.logger.Warn("active order lookup failed",
			zap.String("customer_id", customer.ID), zap.Error(err))
	}

	// Classification happens before the insert so the persisted message row
	// carries its category.
	category := Classify(ClassifyInput{
		Text:               event.Text,
		HasImageAttachment: attachmentType == "image",
		AwaitingPayment:    activeOrder != nil && activeOrder.Status == core.OrderStatusAwaitingPayment,
	})

	// Second dedup line: the (platform, external_message_id) unique index.
	inbound := &core.Message{
		ID:                uuid.New().String(),
		CustomerID:        customer.ID,
		Direction:         core.DirectionIncoming,
		Platform:          event.Platform,
		ExternalMessageID: dedupKey,
		Content:           event.Text,
		AttachmentRef:     attachmentRef,
		AttachmentType:    attachmentType,
		Category:          category,
		CreatedAt:         time.Now(),
	}
	created, err := p.messages.CreateIdempotent(ctx, inbound)
	if err != nil {
		return fmt.Errorf("failed to persist inbound message: %w", err)
	}
	if !created {
		return core.Errorf(core.KindDuplicateDelivery, "message %s already persisted", dedupKey)
	}

	language := customer.Language
	if detected := DetectLanguage(event.Text); detected == "hi" {
		language = "hi"
	}
	if language == "" {
		language = business.Language
	}
	if err := p.customers.RecordInteraction(ctx, customer.ID, language); err != nil {
		p.logger.Warn("failed to record interaction",
			zap.String("customer_id", customer.ID), zap.Error(err))
	}

	session, err := p.sessions.Get(ctx, customer.ID)
	if err != nil {
		p.logger.Warn("session load failed, starting fresh",
			zap.String("customer_id", customer.ID), zap.Error(err))
	}
	if session == nil {
		session = &core.Session{}
	}

	reply := p.route(ctx, routeInput{
		event:       event,
		business:    business,
		customer:    customer,
		session:     session,
		activeOrder: activeOrder,
		category:    category,
		language:    language,
		imageRef:    attachmentRef,
	})
	if reply == "" {
		reply = p.responder.Apology(language)
	}

	p.sendReply(ctx, event, customer, reply, category)
	p.saveSession(ctx, customer.ID, session, category, event.Text, reply)
	return nil
}

type routeInput struct {
	event       InboundEvent
	business    *core.Business
	customer    *core.Customer
	session     *core.Session
	activeOrder *core.Order
	category    core.Category
	language    string
	imageRef    string
}

// route picks the handler for the classified category and returns the reply
// text. Every branch returns something to say.
func (p *Pipeline) route(ctx context.Context, in routeInput) string {
	// Explicit cancellation wins over category dispatch: a bare "cancel
	// karo" classifies as general but must still release the active order.
	if in.activeOrder != nil && containsAny(in.event.Text, cancelKeywords) {
		return p.cancelActiveOrder(ctx, in)
	}

	switch in.category {
	case core.CategoryPaymentScreenshot:
		return p.handleScreenshot(ctx, in)
	case core.CategoryPostInquiry:
		return p.handleInquiry(ctx, in, ExtractPostRef(in.event.Text))
	case core.CategoryOrderInquiry:
		return p.handleOrderIntent(ctx, in)
	case core.CategoryPaymentInquiry:
		if in.activeOrder != nil && in.activeOrder.Status == core.OrderStatusAwaitingPayment {
			return p.responder.PaymentInstructions(in.business, in.activeOrder, in.language)
		}
		if in.activeOrder != nil {
			return p.responder.ActiveOrderReminder(in.business, in.activeOrder, in.language)
		}
		return p.responder.NoActiveOrder(in.language)
	default:
		return p.handleGeneral(ctx, in)
	}
}

// cancelActiveOrder handles an explicit customer cancellation of the
// in-flight order, whatever category the message classified as.
func (p *Pipeline) cancelActiveOrder(ctx context.Context, in routeInput) string {
	if err := p.flow.Cancel(ctx, in.activeOrder.ID); err != nil {
		p.logger.Error("cancel failed",
			zap.String("order_id", in.activeOrder.ID), zap.Error(err))
		return p.responder.Apology(in.language)
	}
	in.session.PendingOrderID = ""
	return p.responder.Cancellation(in.activeOrder, in.language)
}

func (p *Pipeline) handleScreenshot(ctx context.Context, in routeInput) string {
	if in.activeOrder == nil || in.activeOrder.Status != core.OrderStatusAwaitingPayment {
		return p.responder.ScreenshotWithoutOrder(in.language)
	}
	verdict, err := p.payments.HandleScreenshot(ctx, in.business, in.customer, in.activeOrder, in.imageRef)
	if err != nil {
		if !core.IsKind(err, core.KindPaymentVerificationTimeout) {
			p.logger.Error("payment verification failed",
				zap.String("order_id", in.activeOrder.ID), zap.Error(err))
		}
		// Even an ACCEPTED verdict is not a confirmation when the
		// transition to PAID did not land. Never confirm past an error.
		return p.responder.StillChecking(in.language)
	}
	switch verdict {
	case core.VerdictAccepted:
		in.session.PendingOrderID = ""
		return p.responder.PaidConfirmation(in.activeOrder, in.language)
	case core.VerdictRejected:
		return p.responder.RetryPayment(in.language)
	default:
		return p.responder.StillChecking(in.language)
	}
}

// handleInquiry answers a product question without touching order state.
// Inquiries while a payment is pending stay informational.
func (p *Pipeline) handleInquiry(ctx context.Context, in routeInput, postRef string) string {
	matches, err := p.matcher.Match(ctx, in.business.ID, in.event.Text, postRef)
	if err != nil {
		p.logger.Warn("product match failed",
			zap.String("business_id", in.business.ID), zap.Error(err))
	}
	if len(matches) == 0 {
		return p.responder.NoMatch(in.language)
	}
	in.session.PendingOrderID = ""
	return p.responder.ProductInfo(in.business, matches[0].Product, in.language)
}

func (p *Pipeline) handleOrderIntent(ctx context.Context, in routeInput) string {
	if in.activeOrder != nil {
		// One in-flight order per customer. New product talk while a
		// payment is pending gets an informational answer only.
		if matches, err := p.matcher.Match(ctx, in.business.ID, in.event.Text, ""); err == nil && len(matches) > 0 &&
			!orderMentionsProduct(in.activeOrder, matches[0].Product.ID) {
			return p.responder.ProductInfo(in.business, matches[0].Product, in.language)
		}
		return p.responder.ActiveOrderReminder(in.business, in.activeOrder, in.language)
	}

	matches, err := p.matcher.Match(ctx, in.business.ID, in.event.Text, "")
	if err != nil {
		p.logger.Warn("product match failed",
			zap.String("business_id", in.business.ID), zap.Error(err))
	}
	if len(matches) == 0 {
		return p.responder.NoMatch(in.language)
	}

	order, err := p.flow.Start(ctx, in.customer, matches)
	if err != nil {
		p.logger.Error("order start failed",
			zap.String("customer_id", in.customer.ID), zap.Error(err))
		return p.responder.Apology(in.language)
	}
	if err := p.flow.RequestPayment(ctx, order); err != nil {
		p.logger.Error("payment request failed",
			zap.String("order_id", order.ID), zap.Error(err))
	}
	in.session.PendingOrderID = order.ID
	return p.responder.OrderConfirmation(in.business, order, in.language)
}

func (p *Pipeline) handleGeneral(ctx context.Context, in routeInput) string {
	// Text that names a product still deserves a product answer.
	if matches, err := p.matcher.Match(ctx, in.business.ID, in.event.Text, ""); err == nil && len(matches) > 0 {
		return p.responder.ProductInfo(in.business, matches[0].Product, in.language)
	}
	return p.responder.General(ctx, in.business, in.event.Text, in.customer, in.session, p.productNames(ctx, in.business.ID))
}

func (p *Pipeline) productNames(ctx context.Context, businessID string) []string {
	products, err := p.products.GetActiveByBusiness(ctx, businessID)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(products))
	for _, product := range products {
		names = append(names, product.Name)
	}
	return names
}

// sendReply delivers the outbound text and persists it. Send failures are
// logged and absorbed; an automatic resend would risk duplicate messages.
func (p *Pipeline) sendReply(ctx context.Context, event InboundEvent, customer *core.Customer, reply string, category core.Category) {
	if err := p.gateway.SendText(ctx, event.Platform, event.SenderID, reply); err != nil {
		p.logger.Error("outbound send failed",
			zap.String("customer_id", customer.ID),
			zap.Error(core.NewError(core.KindOutboundSendFailure, err)))
		return
	}
	// Outbound rows get a generated external id so the dedup index stays
	// unique across them.
	outbound := &core.Message{
		ID:                uuid.New().String(),
		CustomerID:        customer.ID,
		Direction:         core.DirectionOutgoing,
		Platform:          event.Platform,
		ExternalMessageID: uuid.New().String(),
		Content:           reply,
		Category:          category,
		CreatedAt:         time.Now(),
	}
	if err := p.messages.Create(ctx, outbound); err != nil {
		p.logger.Warn("failed to persist outbound message",
			zap.String("customer_id", customer.ID), zap.Error(err))
	}
}

const sessionHistoryLimit = 10

func (p *Pipeline) saveSession(ctx context.Context, customerID string, session *core.Session, category core.Category, inbound, outbound string) {
	session.LastIntent = category
	session.RecentHistory = append(session.RecentHistory, core.Exchange{
		Inbound:  inbound,
		Outbound: outbound,
	})
	if len(session.RecentHistory) > sessionHistoryLimit {
		session.RecentHistory = session.RecentHistory[len(session.RecentHistory)-sessionHistoryLimit:]
	}
	if err := p.sessions.Set(ctx, customerID, session); err != nil {
		p.logger.Warn("failed to save session",
			zap.String("customer_id", customerID), zap.Error(err))
	}
}

// resolveCustomer finds or creates the customer record for the sender. The
// profile fetch gets one retry; when both attempts fail the customer is
// created with an empty name so the pipeline continues degraded.
func (p *Pipeline) resolveCustomer(ctx context.Context, business *core.Business, event InboundEvent) (*core.Customer, error) {
	existing, err := p.customers.GetByPlatformUser(ctx, event.Platform, event.SenderID)
	if err == nil {
		return existing, nil
	}
	if !core.IsKind(err, core.KindNotFound) {
		return nil, err
	}

	name := ""
	profile, profileErr := p.gateway.FetchProfile(ctx, event.Platform, event.SenderID)
	if profileErr != nil {
		time.Sleep(200 * time.Millisecond)
		profile, profileErr = p.gateway.FetchProfile(ctx, event.Platform, event.SenderID)
	}
	if profileErr != nil {
		p.logger.Warn("profile fetch failed, creating degraded customer",
			zap.String("sender_id", event.SenderID),
			zap.Error(core.NewError(core.KindUnresolvableCustomer, profileErr)))
	} else {
		name = profile.Name
	}

	return p.customers.GetOrCreate(ctx, &core.Customer{
		BusinessID:     business.ID,
		Platform:       event.Platform,
		PlatformUserID: event.SenderID,
		DisplayName:    name,
		Language:       business.Language,
	})
}

func firstImageAttachment(attachments []InboundAttachment) (ref, attachmentType string) {
	for _, a := range attachments {
		if strings.EqualFold(a.Type, "image") {
			return a.URL, "image"
		}
	}
	if len(attachments) > 0 {
		return attachments[0].URL, strings.ToLower(attachments[0].Type)
	}
	return "", ""
}

func orderMentionsProduct(order *core.Order, productID string) bool {
	for _, item := range order.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
