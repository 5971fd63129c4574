package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
)

// Responder builds every outbound reply. Templates are selected purely from
// the intent, the order state and the customer language; AI free text is only
// used for general inquiries, and a static apology covers AI failure so no
// inbound message goes unanswered.
type Responder struct {
	ai        core.Completer
	aiTimeout time.Duration
	logger    *zap.Logger
}

func NewResponder(ai core.Completer, aiTimeout time.Duration, logger *zap.Logger) *Responder {
	return &Responder{
		ai:        ai,
		aiTimeout: aiTimeout,
		logger:    logger,
	}
}

// Per-language static text. English is the fallback for any unknown language.
var (
	apologyText = map[string]string{
		"en": "Sorry, I could not process that right now. Please try again in a little while.",
		"hi": "Maaf kijiye, abhi aapka message process nahi ho paya. Thodi der baad dobara koshish karein.",
	}
	stillCheckingText = map[string]string{
		"en": "Thanks! We received your payment screenshot and are verifying it. We will confirm your order shortly.",
		"hi": "Dhanyavaad! Aapka payment screenshot mil gaya hai, hum verify kar rahe hain. Jald hi confirm karenge.",
	}
	retryPaymentText = map[string]string{
		"en": "We could not verify that payment screenshot. Please check the amount and send a clear screenshot again.",
		"hi": "Hum yeh payment screenshot verify nahi kar paye. Kripya amount check karke dobara clear screenshot bhejein.",
	}
	noActiveOrderText = map[string]string{
		"en": "You do not have an order in progress right now. Send us the product you are interested in to get started!",
		"hi": "Abhi aapka koi order chal nahi raha hai. Jis product mein interest hai, uska naam bhejein!",
	}
	noMatchText = map[string]string{
		"en": "Sorry, I could not find that product in our catalog. Could you share the product name or the post link?",
		"hi": "Maaf kijiye, yeh product humare catalog mein nahi mila. Kripya product ka naam ya post link bhejein.",
	}
	screenshotWithoutOrderText = map[string]string{
		"en": "Thanks for the screenshot, but we do not see a pending payment for you. Please place an order first.",
		"hi": "Screenshot ke liye dhanyavaad, lekin aapka koi pending payment nahi hai. Pehle order place karein.",
	}
)

func pickText(table map[string]string, language string) string {
	if text, ok := table[language]; ok {
		return text
	}
	return table["en"]
}

func currency(business *core.Business) string {
	if business != nil && business.Currency != "" {
		return business.Currency
	}
	return "₹"
}

// ProductInfo answers a product inquiry with price and availability.
func (r *Responder) ProductInfo(business *core.Business, product *core.Product, language string) string {
	stock := ""
	if product.StockQuantity <= 0 {
		if language == "hi" {
			stock = " (abhi stock mein nahi hai)"
		} else {
			stock = " (currently out of stock)"
		}
	}
	if language == "hi" {
		return fmt.Sprintf("%s ka price %s%.0f hai%s. Order karne ke liye 'buy %s' bhejein.",
			product.Name, currency(business), product.Price, stock, strings.ToLower(product.Name))
	}
	return fmt.Sprintf("%s is available for %s%.0f%s. Reply 'buy %s' to place an order.",
		product.Name, currency(business), product.Price, stock, strings.ToLower(product.Name))
}

// OrderConfirmation summarises a freshly created order and includes the
// payment instructions so the customer can pay in one step.
func (r *Responder) OrderConfirmation(business *core.Business, order *core.Order, language string) string {
	var b strings.Builder
	if language == "hi" {
		b.WriteString("Aapka order ban gaya hai:\n")
	} else {
		b.WriteString("Your order has been created:\n")
	}
	for _, item := range order.Items {
		b.WriteString(fmt.Sprintf("- %dx %s @ %s%.0f\n", item.Quantity, item.ProductName, currency(business), item.PriceAtTime))
	}
	b.WriteString("\n")
	b.WriteString(r.PaymentInstructions(business, order, language))
	return b.String()
}

// PaymentInstructions tells the customer the amount due and where to pay.
func (r *Responder) PaymentInstructions(business *core.Business, order *core.Order, language string) string {
	upi := ""
	if business != nil {
		upi = business.UPIID
	}
	if language == "hi" {
		if upi != "" {
			return fmt.Sprintf("Kripya %s%.0f ka payment UPI ID %s par karein aur screenshot yahan bhejein.",
				currency(business), order.TotalAmount, upi)
		}
		return fmt.Sprintf("Kripya %s%.0f ka payment karein aur screenshot yahan bhejein.", currency(business), order.TotalAmount)
	}
	if upi != "" {
		return fmt.Sprintf("Please pay %s%.0f to UPI ID %s and send the payment screenshot here.",
			currency(business), order.TotalAmount, upi)
	}
	return fmt.Sprintf("Please pay %s%.0f and send the payment screenshot here.", currency(business), order.TotalAmount)
}

// PaidConfirmation thanks the customer after an accepted payment.
func (r *Responder) PaidConfirmation(order *core.Order, language string) string {
	if language == "hi" {
		return fmt.Sprintf("Payment mil gaya! Aapka order #%s confirm ho gaya hai. Order ke liye dhanyavaad!",
			shortOrderRef(order.ID))
	}
	return fmt.Sprintf("Payment received! Your order #%s is confirmed. Thank you for shopping with us!",
		shortOrderRef(order.ID))
}

// Cancellation confirms an order was cancelled.
func (r *Responder) Cancellation(order *core.Order, language string) string {
	if language == "hi" {
		return fmt.Sprintf("Aapka order #%s cancel kar diya gaya hai. Kabhi bhi naya order place kar sakte hain.",
			shortOrderRef(order.ID))
	}
	return fmt.Sprintf("Your order #%s has been cancelled. You can place a new order any time.",
		shortOrderRef(order.ID))
}

// ActiveOrderReminder answers order-status questions for an in-flight order.
func (r *Responder) ActiveOrderReminder(business *core.Business, order *core.Order, language string) string {
	switch order.Status {
	case core.OrderStatusAwaitingPayment:
		if language == "hi" {
			return fmt.Sprintf("Aapka order #%s payment ka intezaar kar raha hai. %s",
				shortOrderRef(order.ID), r.PaymentInstructions(business, order, language))
		}
		return fmt.Sprintf("Your order #%s is awaiting payment. %s",
			shortOrderRef(order.ID), r.PaymentInstructions(business, order, language))
	case core.OrderStatusPending:
		if language == "hi" {
			return fmt.Sprintf("Aapka order #%s ban gaya hai. Confirm karne ke liye 'confirm' bhejein.", shortOrderRef(order.ID))
		}
		return fmt.Sprintf("Your order #%s has been created. Reply 'confirm' to proceed to payment.", shortOrderRef(order.ID))
	default:
		return pickText(noActiveOrderText, language)
	}
}

func (r *Responder) StillChecking(language string) string {
	return pickText(stillCheckingText, language)
}

func (r *Responder) RetryPayment(language string) string {
	return pickText(retryPaymentText, language)
}

func (r *Responder) NoActiveOrder(language string) string {
	return pickText(noActiveOrderText, language)
}

func (r *Responder) NoMatch(language string) string {
	return pickText(noMatchText, language)
}

func (r *Responder) ScreenshotWithoutOrder(language string) string {
	return pickText(screenshotWithoutOrderText, language)
}

func (r *Responder) Apology(language string) string {
	return pickText(apologyText, language)
}

// General produces a free-form AI reply for messages no template covers.
// The AI call runs under its own timeout; any failure falls back to the
// apology template so the customer always hears back.
func (r *Responder) General(ctx context.Context, business *core.Business, text string, customer *core.Customer, session *core.Session, productNames []string) string {
	language := "en"
	if customer != nil && customer.Language != "" {
		language = customer.Language
	}
	if r.ai == nil {
		return r.Apology(language)
	}

	cc := core.CompletionContext{
		Language:     language,
		ProductNames: productNames,
	}
	if business != nil {
		cc.BusinessName = business.Name
	}
	if session != nil {
		cc.RecentHistory = session.RecentHistory
		if session.PendingOrderID != "" {
			cc.PendingOrderRef = shortOrderRef(session.PendingOrderID)
		}
	}

	aiCtx, cancel := context.WithTimeout(ctx, r.aiTimeout)
	defer cancel()

	completion, err := r.ai.Complete(aiCtx, text, cc)
	if err != nil {
		r.logger.Warn("ai completion failed, sending apology",
			zap.String("customer_id", customerID(customer)),
			zap.Error(err),
		)
		return r.Apology(language)
	}
	reply := strings.TrimSpace(completion.Response)
	if reply == "" {
		return r.Apology(language)
	}
	return reply
}

func customerID(customer *core.Customer) string {
	if customer == nil {
		return ""
	}
	return customer.ID
}
