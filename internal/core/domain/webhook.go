package domain

// Verification handshake constants of the Messenger Platform.
const (
	SubscribeMode = "subscribe"
	PageObject    = "page"
	ImageType     = "image"
)

// WebhookKind is the outcome of classifying an incoming webhook call.
type WebhookKind int

const (
	// WebhookUnrecognized is neither a handshake nor a page event.
	WebhookUnrecognized WebhookKind = iota
	// WebhookHandshake is a subscription verification request.
	WebhookHandshake
	// WebhookPageEvent is a page event carrying messaging events.
	WebhookPageEvent
)

func (k WebhookKind) String() string {
	switch k {
	case WebhookHandshake:
		return "handshake"
	case WebhookPageEvent:
		return "page_event"
	default:
		return "unrecognized"
	}
}

// WebhookRequest is everything the platform sent in one webhook call: the
// hub.* verification parameters from the query string and the JSON body.
type WebhookRequest struct {
	Mode        string `json:"-"`
	VerifyToken string `json:"-"`
	Challenge   string `json:"-"`

	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the messaging events for one page.
type Entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging"`
}

// MessagingEvent is a single callback from the Messenger Platform.
type MessagingEvent struct {
	Sender    Party     `json:"sender"`
	Recipient Party     `json:"recipient"`
	Timestamp int64     `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
	Postback  *Postback `json:"postback,omitempty"`
}

// Party identifies a sender or recipient by page-scoped id.
type Party struct {
	ID string `json:"id"`
}

// Message is the message node of a messaging event.
type Message struct {
	MID         string       `json:"mid,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a media attachment on an inbound message.
type Attachment struct {
	Type    string            `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

// AttachmentPayload holds the media reference.
type AttachmentPayload struct {
	URL string `json:"url,omitempty"`
}

// Postback is sent when the user taps a button from an interactive reply.
type Postback struct {
	Title   string `json:"title,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// Classify decides which of the three webhook branches applies. A handshake
// only matches when verifyToken is configured and equal to the request token.
func (r *WebhookRequest) Classify(verifyToken string) WebhookKind {
	if r == nil {
		return WebhookUnrecognized
	}
	if r.Mode == SubscribeMode && verifyToken != "" && r.VerifyToken == verifyToken {
		return WebhookHandshake
	}
	if r.Object == PageObject {
		return WebhookPageEvent
	}
	return WebhookUnrecognized
}

// FirstEvent returns the first messaging event of the first entry that has one.
func (r *WebhookRequest) FirstEvent() (MessagingEvent, bool) {
	for _, e := range r.Entry {
		if len(e.Messaging) > 0 {
			return e.Messaging[0], true
		}
	}
	return MessagingEvent{}, false
}

// IsUserInput reports whether the event carries a message or a postback.
// Delivery and read receipts carry neither.
func (m MessagingEvent) IsUserInput() bool {
	return m.Message != nil || m.Postback != nil
}

// InboundEvent is the normalized view of one messaging event.
type InboundEvent struct {
	SenderID   string
	Text       string
	Attachment *Attachment
	Postback   string
}

// Inbound extracts the sender, text, first attachment and postback payload.
func (m MessagingEvent) Inbound() InboundEvent {
	ev := InboundEvent{SenderID: m.Sender.ID}
	if m.Message != nil {
		ev.Text = m.Message.Text
		if len(m.Message.Attachments) > 0 {
			a := m.Message.Attachments[0]
			ev.Attachment = &a
		}
	}
	if m.Postback != nil {
		ev.Postback = m.Postback.Payload
	}
	return ev
}

// IsImage reports whether the attachment is an image.
func (a *Attachment) IsImage() bool {
	return a != nil && a.Type == ImageType
}
