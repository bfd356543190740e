package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mauriciojimenezs/toretto/internal/core/domain"
	"github.com/mauriciojimenezs/toretto/internal/core/ports"
	"github.com/mauriciojimenezs/toretto/internal/formatter"
)

// DefaultPersistTimeout bounds the background save after delivery.
const DefaultPersistTimeout = 5 * time.Second

// State is a step of a pipeline run.
type State int

const (
	Verifying State = iota
	AwaitingState
	Normalizing
	Conversing
	Formatting
	Delivering
	Persisting
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Verifying:
		return "verifying"
	case AwaitingState:
		return "awaiting_state"
	case Normalizing:
		return "normalizing"
	case Conversing:
		return "conversing"
	case Formatting:
		return "formatting"
	case Delivering:
		return "delivering"
	case Persisting:
		return "persisting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Sessions loads and saves conversation state.
type Sessions interface {
	Load(ctx context.Context, senderID string) (domain.ConversationState, error)
	Save(ctx context.Context, senderID string, state domain.ConversationState) error
}

// InputNormalizer turns an inbound event into a canonical request.
type InputNormalizer interface {
	Normalize(ctx context.Context, ev domain.InboundEvent, state domain.ConversationState) (domain.CanonicalRequest, domain.ConversationState, error)
}

// Conversation sends a canonical request to the engine.
type Conversation interface {
	Send(ctx context.Context, req domain.CanonicalRequest, state domain.ConversationState) (*domain.EngineReply, error)
}

// Config wires the collaborators of an Orchestrator.
type Config struct {
	// VerifyToken is the secret the platform echoes during the handshake.
	// An empty token never matches.
	VerifyToken string

	Sessions     Sessions
	Normalizer   InputNormalizer
	Conversation Conversation
	Messenger    ports.Messenger

	Logger         *slog.Logger
	PersistTimeout time.Duration
}

// Orchestrator sequences the steps of one webhook invocation.
type Orchestrator struct {
	verifyToken    string
	sessions       Sessions
	normalizer     InputNormalizer
	conversation   Conversation
	messenger      ports.Messenger
	logger         *slog.Logger
	tracer         trace.Tracer
	persistTimeout time.Duration

	saves sync.WaitGroup
}

// New creates an orchestrator from cfg.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.PersistTimeout
	if timeout <= 0 {
		timeout = DefaultPersistTimeout
	}
	return &Orchestrator{
		verifyToken:    cfg.VerifyToken,
		sessions:       cfg.Sessions,
		normalizer:     cfg.Normalizer,
		conversation:   cfg.Conversation,
		messenger:      cfg.Messenger,
		logger:         logger,
		tracer:         otel.Tracer("toretto/pipeline"),
		persistTimeout: timeout,
	}
}

// Report describes a finished run. Result is final when Run returns; the
// state save may still be in flight until Persisted is closed.
type Report struct {
	Result   domain.Result
	SenderID string

	// Trail lists the states visited, in order.
	Trail []State

	persisted  chan struct{}
	persistErr error
}

func newReport() *Report {
	return &Report{persisted: make(chan struct{})}
}

// Persisted is closed once the state save finished or was skipped.
func (r *Report) Persisted() <-chan struct{} {
	return r.persisted
}

// PersistErr returns the save failure, if any. It never changes Result and
// is only meaningful after Persisted is closed.
func (r *Report) PersistErr() error {
	select {
	case <-r.persisted:
		return r.persistErr
	default:
		return nil
	}
}

func (r *Report) fail(err error) {
	r.Trail = append(r.Trail, Failed)
	r.Result = domain.FailedResult(err)
}

// Run executes the pipeline for req and returns once the result is known.
// Panics in collaborators end the run as an unexpected error. The state
// save after delivery continues in the background; see Report.Persisted and
// Wait.
func (o *Orchestrator) Run(ctx context.Context, req *domain.WebhookRequest) (report *Report) {
	ctx, span := o.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	report = newReport()
	saving := false
	defer func() {
		if rec := recover(); rec != nil {
			err := domain.NewError(domain.KindUnexpected, fmt.Sprintf("panic: %v", rec), nil)
			o.logger.ErrorContext(ctx, "pipeline panic", slog.String("error", err.Error()))
			report.fail(err)
		}
		if !saving {
			close(report.persisted)
		}
		span.SetAttributes(attribute.String("pipeline.outcome", report.Result.Outcome.String()))
		if report.Result.Failed() {
			span.SetStatus(codes.Error, string(report.Result.Err.Kind))
		}
	}()

	saving = o.run(ctx, req, report)
	return report
}

// Wait blocks until background saves started by Run have finished or ctx
// is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.saves.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run reports whether a background save was started.
func (o *Orchestrator) run(ctx context.Context, req *domain.WebhookRequest, report *Report) bool {
	ev, ok := o.verify(ctx, req, report)
	if !ok {
		return false
	}
	report.SenderID = ev.SenderID
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("messenger.sender_id", ev.SenderID))

	state, err := step(ctx, o, report, AwaitingState, func(ctx context.Context) (domain.ConversationState, error) {
		return o.sessions.Load(ctx, ev.SenderID)
	})
	if err != nil {
		report.fail(err)
		return false
	}

	var creq domain.CanonicalRequest
	state, err = step(ctx, o, report, Normalizing, func(ctx context.Context) (domain.ConversationState, error) {
		var next domain.ConversationState
		var nerr error
		creq, next, nerr = o.normalizer.Normalize(ctx, ev, state)
		return next, nerr
	})
	if err != nil {
		report.fail(err)
		return false
	}

	reply, err := step(ctx, o, report, Conversing, func(ctx context.Context) (*domain.EngineReply, error) {
		return o.conversation.Send(ctx, creq, state)
	})
	if err != nil {
		report.fail(err)
		return false
	}

	msg, err := step(ctx, o, report, Formatting, func(context.Context) (json.RawMessage, error) {
		out, ferr := formatter.Format(reply)
		if ferr != nil {
			return nil, domain.NewError(domain.KindUnexpected, "format reply", ferr)
		}
		return out, nil
	})
	if err != nil {
		report.fail(err)
		return false
	}

	ack, deliverErr := step(ctx, o, report, Delivering, func(ctx context.Context) (*domain.DeliveryAck, error) {
		return o.messenger.Deliver(ctx, ev.SenderID, msg)
	})
	if deliverErr != nil {
		report.Result = domain.FailedResult(deliverErr)
	} else {
		report.Result = domain.DeliveredResult(ack)
	}

	saving := reply.State != nil
	if saving {
		report.Trail = append(report.Trail, Persisting)
	} else {
		o.logger.DebugContext(ctx, "engine returned no state, skipping save", slog.String("sender_id", ev.SenderID))
	}
	if deliverErr != nil {
		report.Trail = append(report.Trail, Failed)
	} else {
		report.Trail = append(report.Trail, Done)
	}

	if saving {
		o.saves.Add(1)
		go o.persist(ctx, ev.SenderID, reply.State, report)
	}
	return saving
}

// verify classifies req. It returns the event to process for a page event,
// and settles the report for handshakes and unrecognized requests.
func (o *Orchestrator) verify(ctx context.Context, req *domain.WebhookRequest, report *Report) (domain.InboundEvent, bool) {
	kind := req.Classify(o.verifyToken)
	ev, err := step(ctx, o, report, Verifying, func(context.Context) (domain.InboundEvent, error) {
		switch kind {
		case domain.WebhookHandshake:
			return domain.InboundEvent{}, nil
		case domain.WebhookPageEvent:
			first, ok := req.FirstEvent()
			if !ok {
				return domain.InboundEvent{}, domain.NewError(domain.KindUnrecognizedRequest, "",
					errors.New("page event without messaging events"))
			}
			if !first.IsUserInput() {
				return domain.InboundEvent{}, domain.NewError(domain.KindUnrecognizedRequest, "",
					errors.New("messaging event without message or postback"))
			}
			inbound := first.Inbound()
			if inbound.SenderID == "" {
				return domain.InboundEvent{}, domain.NewError(domain.KindUnrecognizedRequest, "",
					errors.New("messaging event without sender"))
			}
			return inbound, nil
		default:
			return domain.InboundEvent{}, domain.ErrUnrecognizedRequest
		}
	})
	if err != nil {
		report.fail(err)
		return domain.InboundEvent{}, false
	}
	if kind == domain.WebhookHandshake {
		report.Trail = append(report.Trail, Done)
		report.Result = domain.HandshakeResult(req.Challenge)
		return domain.InboundEvent{}, false
	}
	return ev, true
}

// persist saves state after delivery resolved. The save outlives request
// cancellation but is bounded by the persist timeout.
func (o *Orchestrator) persist(ctx context.Context, senderID string, state domain.ConversationState, report *Report) {
	defer o.saves.Done()
	defer close(report.persisted)

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.persistTimeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			report.persistErr = domain.NewError(domain.KindUnexpected, fmt.Sprintf("panic: %v", rec), nil)
			o.logger.ErrorContext(saveCtx, "session save panic",
				slog.String("sender_id", senderID),
				slog.String("error", report.persistErr.Error()))
		}
	}()

	_, err := traced(saveCtx, o, Persisting, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, o.sessions.Save(ctx, senderID, state)
	})
	if err != nil {
		report.persistErr = err
		o.logger.ErrorContext(saveCtx, "session save failed",
			slog.String("sender_id", senderID),
			slog.String("error", err.Error()))
	}
}

// step records the transition into s and runs fn through traced.
func step[T any](ctx context.Context, o *Orchestrator, report *Report, s State, fn func(context.Context) (T, error)) (T, error) {
	report.Trail = append(report.Trail, s)
	return traced(ctx, o, s, fn)
}

// traced runs fn in a span named after s and logs failures.
func traced[T any](ctx context.Context, o *Orchestrator, s State, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline."+s.String())
	defer span.End()

	o.logger.DebugContext(ctx, "pipeline transition", slog.String("state", s.String()))

	out, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.WarnContext(ctx, "pipeline step failed",
			slog.String("state", s.String()),
			slog.String("error_kind", string(domain.KindOf(err))),
			slog.String("error", err.Error()))
	}
	return out, err
}
