// Package normalizer turns an inbound messaging event into the single
// canonical request sent to the conversational engine.
package normalizer

import (
	"context"
	"log/slog"

	"github.com/mauriciojimenezs/toretto/internal/core/domain"
	"github.com/mauriciojimenezs/toretto/internal/core/ports"
)

// DefaultThreshold is the minimum class score reported by the classifier.
const DefaultThreshold = 0.5

// Normalizer classifies image attachments and passes text through.
type Normalizer struct {
	classifier   ports.Classifier
	classifierID string
	threshold    float64
	logger       *slog.Logger
}

// New creates a normalizer. A non-positive threshold uses DefaultThreshold.
func New(classifier ports.Classifier, classifierID string, threshold float64, logger *slog.Logger) *Normalizer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		classifier:   classifier,
		classifierID: classifierID,
		threshold:    threshold,
		logger:       logger,
	}
}

// Normalize returns the canonical request for ev and the state to send with
// it. For an image the classifier is called once and its result is stored
// under domain.ImagesKey in a copy of state. Text leaves state untouched.
func (n *Normalizer) Normalize(ctx context.Context, ev domain.InboundEvent, state domain.ConversationState) (domain.CanonicalRequest, domain.ConversationState, error) {
	if ev.Attachment.IsImage() {
		return n.image(ctx, ev, state)
	}

	text := ev.Text
	if text == "" && ev.Postback != "" {
		text = ev.Postback
	}
	return domain.TextRequest{Text: text}, state, nil
}

func (n *Normalizer) image(ctx context.Context, ev domain.InboundEvent, state domain.ConversationState) (domain.CanonicalRequest, domain.ConversationState, error) {
	imageURL := ev.Attachment.Payload.URL
	if imageURL == "" {
		return nil, state, domain.NewError(domain.KindClassificationFailed, "image attachment has no url", nil)
	}

	cls, err := n.classifier.Classify(ctx, imageURL, n.classifierID, n.threshold)
	if err != nil {
		return nil, state, domain.NewError(domain.KindClassificationFailed, "classify image", err)
	}
	for _, img := range cls.Images {
		if img.Error != nil {
			return nil, state, domain.NewError(domain.KindClassificationFailed, img.Error.Description, nil)
		}
	}

	value, err := cls.StateValue()
	if err != nil {
		return nil, state, domain.NewError(domain.KindClassificationFailed, "convert classification", err)
	}

	if top, ok := cls.TopClass(); ok {
		n.logger.DebugContext(ctx, "image classified",
			slog.String("sender_id", ev.SenderID),
			slog.String("top_class", top.Class),
			slog.Float64("score", top.Score))
	}

	return domain.ImageRequest{Classification: cls}, state.With(domain.ImagesKey, value), nil
}
