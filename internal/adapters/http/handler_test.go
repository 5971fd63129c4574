package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
	"github.com/Sajhaaan/salespilots-backup-sub003/internal/service"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []service.InboundEvent
}

func (d *recordingDispatcher) HandleDelivery(events []service.InboundEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, events...)
}

func newTestApp(verifyToken, appSecret string) (*fiber.App, *recordingDispatcher) {
	dispatcher := &recordingDispatcher{}
	handler := NewHandler(verifyToken, appSecret, dispatcher, zap.NewNop())

	app := fiber.New()
	app.Get("/webhook", handler.VerifyWebhook)
	app.Post("/webhook", handler.ReceiveEvents)
	return app, dispatcher
}

func TestVerifyWebhook_EchoesChallenge(t *testing.T) {
	app, _ := newTestApp("secret-token", "")

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(body))
}

func TestVerifyWebhook_RejectsBadToken(t *testing.T) {
	app, _ := newTestApp("secret-token", "")

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestVerifyWebhook_RejectsWrongMode(t *testing.T) {
	app, _ := newTestApp("secret-token", "")

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=unsubscribe&hub.verify_token=secret-token", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

const instagramDelivery = `{
	"object": "instagram",
	"entry": [{
		"id": "page1",
		"time": 1700000000000,
		"messaging": [{
			"sender": {"id": "ig-user-1"},
			"recipient": {"id": "page1"},
			"timestamp": 1700000000000,
			"message": {
				"mid": "mid.abc",
				"text": "Do you have cotton shirts?",
				"attachments": [{"type": "image", "payload": {"url": "https://cdn/shot.jpg"}}]
			}
		}]
	}]
}`

func TestReceiveEvents_DispatchesTranslatedEvents(t *testing.T) {
	app, dispatcher := newTestApp("secret-token", "")

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(instagramDelivery))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, dispatcher.events, 1)

	event := dispatcher.events[0]
	assert.Equal(t, core.PlatformInstagram, event.Platform)
	assert.Equal(t, "page1", event.AccountID)
	assert.Equal(t, "ig-user-1", event.SenderID)
	assert.Equal(t, "mid.abc", event.MessageID)
	assert.Equal(t, int64(1700000000000), event.Timestamp)
	assert.Equal(t, "Do you have cotton shirts?", event.Text)
	require.Len(t, event.Attachments, 1)
	assert.Equal(t, "image", event.Attachments[0].Type)
	assert.Equal(t, "https://cdn/shot.jpg", event.Attachments[0].URL)
}

func TestReceiveEvents_WhatsAppObjectSetsPlatform(t *testing.T) {
	app, dispatcher := newTestApp("secret-token", "")

	payload := strings.Replace(instagramDelivery, `"object": "instagram"`, `"object": "whatsapp"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, core.PlatformWhatsApp, dispatcher.events[0].Platform)
}

func TestReceiveEvents_MalformedPayloadIsDroppedWith200(t *testing.T) {
	app, dispatcher := newTestApp("secret-token", "")

	// Meta redelivers on non-2xx, so an unparseable body must still get a
	// success response. Nothing is dispatched.
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, dispatcher.events)
}

func TestReceiveEvents_EmptyDeliveryStillOK(t *testing.T) {
	app, dispatcher := newTestApp("secret-token", "")

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"object":"instagram","entry":[]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, dispatcher.events)
}

func signBody(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestReceiveEvents_SignatureEnforcedWhenSecretSet(t *testing.T) {
	app, dispatcher := newTestApp("secret-token", "app-secret")

	// Missing signature.
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(instagramDelivery))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Wrong secret.
	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(instagramDelivery))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", signBody("other-secret", instagramDelivery))
	resp, err = app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, dispatcher.events)

	// Valid signature.
	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(instagramDelivery))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", signBody("app-secret", instagramDelivery))
	resp, err = app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, dispatcher.events, 1)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "<empty>", maskToken(""))
	assert.Equal(t, "***", maskToken("short"))
	assert.Equal(t, "sec***ken", maskToken("secret-token"))
}
