package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/adapters/messenger"
	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
	"github.com/Sajhaaan/salespilots-backup-sub003/internal/service"
)

// Dispatcher consumes translated webhook events.
type Dispatcher interface {
	HandleDelivery(events []service.InboundEvent)
}

// Handler terminates Meta webhook traffic: the GET verification handshake
// and POST message deliveries for Instagram and WhatsApp.
type Handler struct {
	verifyToken string
	appSecret   string
	dispatcher  Dispatcher
	logger      *zap.Logger
}

func NewHandler(verifyToken, appSecret string, dispatcher Dispatcher, logger *zap.Logger) *Handler {
	verifyToken = strings.TrimSpace(verifyToken)
	if verifyToken == "" {
		logger.Warn("webhook verify token is empty, verification handshake will fail")
	}
	return &Handler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// VerifyWebhook handles the GET verification handshake. Meta expects the
// raw challenge echoed back as plain text.
func (h *Handler) VerifyWebhook(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := strings.TrimSpace(c.Query("hub.verify_token"))
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		h.logger.Warn("webhook verification rejected",
			zap.String("mode", mode),
			zap.String("token", maskToken(token)))
		return c.Status(http.StatusForbidden).SendString("Forbidden")
	}

	h.logger.Info("webhook verified")
	return c.SendString(challenge)
}

// ReceiveEvents handles POST message deliveries. It always answers 200 for
// well-formed payloads; Meta retries non-200 responses, and a retry storm of
// already-processed deliveries is worse than dropping one malformed event.
func (h *Handler) ReceiveEvents(c *fiber.Ctx) error {
	body := c.Body()

	if h.appSecret != "" {
		signature := c.Get("X-Hub-Signature-256")
		if !h.verifySignature(signature, body) {
			h.logger.Warn("webhook signature rejected",
				zap.Error(core.Errorf(core.KindVerificationFailure, "bad X-Hub-Signature-256")))
			return c.Status(http.StatusForbidden).JSON(fiber.Map{
				"error": "invalid signature",
			})
		}
	}

	// A malformed body is logged and dropped, not rejected: a non-200 here
	// just makes Meta redeliver the same unparseable payload.
	var payload messenger.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("malformed webhook payload", zap.Error(err))
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	}

	events := translate(&payload)
	if len(events) > 0 {
		h.dispatcher.HandleDelivery(events)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status": "ok",
	})
}

// translate flattens a webhook payload into platform-neutral events.
func translate(payload *messenger.WebhookPayload) []service.InboundEvent {
	platform := core.PlatformInstagram
	if payload.Object == "whatsapp" {
		platform = core.PlatformWhatsApp
	}

	var events []service.InboundEvent
	for _, entry := range payload.Entry {
		for _, msg := range entry.Messaging {
			accountID := msg.Recipient.ID
			if accountID == "" {
				accountID = entry.ID
			}
			event := service.InboundEvent{
				Platform:  platform,
				AccountID: accountID,
				SenderID:  msg.Sender.ID,
				MessageID: msg.Message.MID,
				Timestamp: msg.Timestamp,
				Text:      msg.Message.Text,
				IsEcho:    msg.Message.IsEcho,
			}
			for _, att := range msg.Message.Attachments {
				event.Attachments = append(event.Attachments, service.InboundAttachment{
					Type: att.Type,
					URL:  att.Payload.URL,
				})
			}
			events = append(events, event)
		}
	}
	return events
}

// verifySignature checks the X-Hub-Signature-256 header (sha256=<hex>).
func (h *Handler) verifySignature(signature string, body []byte) bool {
	parts := strings.SplitN(signature, "=", 2)
	if len(parts) != 2 || parts[0] != "sha256" {
		return false
	}
	expected, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	return hmac.Equal(expected, mac.Sum(nil))
}

// maskToken shows just enough of a token to debug mismatches.
func maskToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	if len(token) <= 6 {
		return "***"
	}
	return token[:3] + "***" + token[len(token)-3:]
}
