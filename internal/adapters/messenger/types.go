package messenger

// WebhookPayload represents an incoming delivery from the Meta platform.
// `object` discriminates the platform ("instagram" or "whatsapp"); each
// entry may carry several messaging events.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one page-level bundle of messaging events.
type Entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging"`
}

// MessagingEvent is a single inbound message event.
type MessagingEvent struct {
	Sender    Party        `json:"sender"`
	Recipient Party        `json:"recipient"`
	Timestamp int64        `json:"timestamp"`
	Message   EventMessage `json:"message"`
}

// Party identifies a sender or recipient by platform id.
type Party struct {
	ID string `json:"id"`
}

// EventMessage carries the message body of an event.
type EventMessage struct {
	MID         string       `json:"mid"`
	Text        string       `json:"text"`
	IsEcho      bool         `json:"is_echo"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is an inbound media attachment.
type Attachment struct {
	Type    string `json:"type"` // image, video, audio, file, share
	Payload struct {
		URL string `json:"url"`
	} `json:"payload"`
}

// sendRequest is the Graph API send payload.
type sendRequest struct {
	Recipient Party       `json:"recipient"`
	Message   sendMessage `json:"message"`
}

type sendMessage struct {
	Text       string          `json:"text,omitempty"`
	Attachment *sendAttachment `json:"attachment,omitempty"`
}

type sendAttachment struct {
	Type    string `json:"type"`
	Payload struct {
		URL string `json:"url"`
	} `json:"payload"`
}

// sendResponse is the Graph API send result.
type sendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// profileResponse is the Graph API user profile result.
type profileResponse struct {
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ID        string `json:"id"`
}
