package domain

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
)

// ImageSentinel is the text turn sent to the engine after an image was
// classified. The classification itself travels in the state.
const ImageSentinel = "image"

// CanonicalRequest is the single normalized user input of one run.
// It is either a TextRequest or an ImageRequest.
type CanonicalRequest interface {
	canonicalRequest()
}

// TextRequest carries the user's text verbatim.
type TextRequest struct {
	Text string
}

// ImageRequest signals that an image was received and classified.
type ImageRequest struct {
	Classification *Classification
}

func (TextRequest) canonicalRequest()  {}
func (ImageRequest) canonicalRequest() {}

// Classification is the classifier's answer for one image URL.
type Classification struct {
	ImagesProcessed int               `json:"images_processed"`
	CustomClasses   int               `json:"custom_classes"`
	Images          []ClassifiedImage `json:"images"`
	Warnings        []Warning         `json:"warnings,omitempty"`

	// Raw is the response body as received, preserved for the state.
	Raw json.RawMessage `json:"-"`
}

// ClassifiedImage holds the classifier results for one image.
type ClassifiedImage struct {
	SourceURL   string             `json:"source_url,omitempty"`
	ResolvedURL string             `json:"resolved_url,omitempty"`
	Image       string             `json:"image,omitempty"`
	Classifiers []ClassifierResult `json:"classifiers"`
	Error       *ImageError        `json:"error,omitempty"`
}

// ClassifierResult lists the classes one classifier matched.
type ClassifierResult struct {
	Name         string        `json:"name"`
	ClassifierID string        `json:"classifier_id"`
	Classes      []ClassResult `json:"classes"`
}

// ClassResult is a single class and its confidence score.
type ClassResult struct {
	Class         string  `json:"class"`
	Score         float64 `json:"score"`
	TypeHierarchy string  `json:"type_hierarchy,omitempty"`
}

// ImageError is reported per image when the classifier could not process it.
type ImageError struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
	ErrorID     string `json:"error_id"`
}

// Warning is a non-fatal classifier notice.
type Warning struct {
	WarningID   string `json:"warning_id"`
	Description string `json:"description"`
}

// TopClass returns the highest scoring class across all images.
func (c *Classification) TopClass() (ClassResult, bool) {
	var best ClassResult
	found := false
	if c == nil {
		return best, false
	}
	for _, img := range c.Images {
		for _, cl := range img.Classifiers {
			for _, class := range cl.Classes {
				if !found || class.Score > best.Score {
					best = class
					found = true
				}
			}
		}
	}
	return best, found
}

// StateValue returns the classification as plain JSON values for storage
// under ImagesKey. The raw body wins over the decoded struct when present.
func (c *Classification) StateValue() (any, error) {
	if len(c.Raw) > 0 {
		return ToJSONValue(c.Raw)
	}
	return ToJSONValue(c)
}

// EngineReply is the conversational engine's answer for one turn.
type EngineReply struct {
	// Utterances is the engine's text output, in order.
	Utterances []string

	// Interactive is the platform-specific payload (buttons, templates),
	// kept as raw JSON.
	Interactive json.RawMessage

	// State replaces the previous conversation state. Nil means the engine
	// returned no context.
	State ConversationState
}

// HasInteractive reports whether the reply carries an interactive payload.
// A payload that is empty or a JSON null, false, zero or empty string counts
// as absent.
func (r *EngineReply) HasInteractive() bool {
	if r == nil {
		return false
	}
	return !falsyJSON(bytes.TrimSpace(r.Interactive))
}

func falsyJSON(v []byte) bool {
	switch string(v) {
	case "", "null", "false", `""`:
		return true
	}
	if v[0] == '-' || (v[0] >= '0' && v[0] <= '9') {
		f, err := strconv.ParseFloat(string(v), 64)
		return err == nil && json.Valid(v) && f == 0
	}
	return false
}

// DeliveryPayload is the Send API request body.
type DeliveryPayload struct {
	Recipient Party           `json:"recipient"`
	Message   json.RawMessage `json:"message"`
}

// DeliveryAck is the platform's acknowledgment of a delivered message.
type DeliveryAck struct {
	StatusCode  int    `json:"-"`
	RecipientID string `json:"recipient_id,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
}

// Outcome is the terminal branch of a webhook invocation.
type Outcome int

const (
	OutcomeHandshake Outcome = iota + 1
	OutcomeDelivered
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHandshake:
		return "handshake"
	case OutcomeDelivered:
		return "delivered"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DeliveredNote is logged with every successful acknowledgment.
const DeliveredNote = "Response code 200 only tells you that the webhook ran; " +
	"it does not confirm the Send API accepted the reply."

// Result is the terminal outcome of one webhook invocation. Exactly one of
// Challenge, Ack or Err is meaningful, selected by Outcome.
type Result struct {
	Outcome   Outcome
	Challenge string
	Ack       *DeliveryAck
	Err       *Error
}

// HandshakeResult echoes the verification challenge.
func HandshakeResult(challenge string) Result {
	return Result{Outcome: OutcomeHandshake, Challenge: challenge}
}

// DeliveredResult acknowledges a delivered reply.
func DeliveredResult(ack *DeliveryAck) Result {
	return Result{Outcome: OutcomeDelivered, Ack: ack}
}

// FailedResult wraps err as a typed failure.
func FailedResult(err error) Result {
	e := AsError(err)
	if e == nil {
		e = NewError(KindUnexpected, "failed without an error", nil)
	}
	return Result{Outcome: OutcomeFailed, Err: e}
}

// Failed reports whether the run failed.
func (r Result) Failed() bool {
	return r.Outcome == OutcomeFailed
}

// StatusCode is the HTTP status returned to the platform. Failures use 400 so
// they are distinguishable from the 200 acknowledgment the platform expects.
func (r Result) StatusCode() int {
	switch r.Outcome {
	case OutcomeHandshake, OutcomeDelivered:
		return http.StatusOK
	default:
		return http.StatusBadRequest
	}
}

// Body is the text/plain body returned to the platform.
func (r Result) Body() string {
	switch r.Outcome {
	case OutcomeHandshake:
		return r.Challenge
	case OutcomeDelivered:
		return strconv.Itoa(http.StatusOK)
	default:
		if r.Err == nil {
			return GenericFailureMessage
		}
		return r.Err.UserMessage()
	}
}
