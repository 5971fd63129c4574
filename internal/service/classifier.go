package service

import (
	"regexp"
	"strings"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
)

// ClassifyInput is everything the classifier is allowed to look at.
// It carries no hidden state: the same input always yields the same category.
type ClassifyInput struct {
	Text               string
	HasImageAttachment bool
	AwaitingPayment    bool // Customer has an order in AWAITING_PAYMENT
}

// Rule is one entry in the ordered classification table.
type Rule struct {
	Name     string
	Category core.Category
	Match    func(in ClassifyInput) bool
}

// postURLPattern recognizes Instagram post/reel links in message text.
var postURLPattern = regexp.MustCompile(`instagram\.com/(?:p|reel|tv)/([A-Za-z0-9_-]+)`)

// Keyword sets are deliberately multilingual: boutique customers mix
// English, Hindi and transliterated Hindi in the same sentence.
var paymentKeywords = []string{
	"payment", "paid", "pay", "upi", "gpay", "google pay", "phonepe",
	"paytm", "qr", "transaction", "txn", "screenshot", "bhugtan",
	"paisa bhej", "paise bhej", "payment kar",
}

var orderKeywords = []string{
	"order", "buy", "purchase", "want to", "i want", "book", "confirm",
	"kharid", "chahiye", "lena hai", "le lo", "mangwa", "order karna",
	"khareed", "buy karna",
}

// rules is the declarative intent table, evaluated top to bottom;
// first match wins.
var rules = []Rule{
	{
		Name:     "post-url",
		Category: core.CategoryPostInquiry,
		Match: func(in ClassifyInput) bool {
			return postURLPattern.MatchString(in.Text)
		},
	},
	{
		Name:     "payment-screenshot",
		Category: core.CategoryPaymentScreenshot,
		Match: func(in ClassifyInput) bool {
			return in.HasImageAttachment && in.AwaitingPayment
		},
	},
	{
		Name:     "payment-keywords",
		Category: core.CategoryPaymentInquiry,
		Match: func(in ClassifyInput) bool {
			return containsAny(in.Text, paymentKeywords)
		},
	},
	{
		Name:     "order-keywords",
		Category: core.CategoryOrderInquiry,
		Match: func(in ClassifyInput) bool {
			return containsAny(in.Text, orderKeywords)
		},
	},
}

// Classify assigns a coarse category to an inbound message. Deterministic
// and rule-first: the AI collaborator only ever sees the residual
// general_inquiry category.
func Classify(in ClassifyInput) core.Category {
	for _, rule := range rules {
		if rule.Match(in) {
			return rule.Category
		}
	}
	return core.CategoryGeneralInquiry
}

// ExtractPostRef pulls the post shortcode out of a recognized social URL,
// or returns "" when the text carries none.
func ExtractPostRef(text string) string {
	match := postURLPattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

func containsAny(text string, keywords []string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// DetectLanguage returns "hi" for Devanagari text, otherwise "en".
// Transliterated Hindi intentionally maps to "en": those customers read
// latin script.
func DetectLanguage(text string) string {
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F {
			return "hi"
		}
	}
	return "en"
}
