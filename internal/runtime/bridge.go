// Package runtime assembles the bridge from configuration and manages its
// HTTP server lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/mauriciojimenezs/toretto/internal/api/graph"
	"github.com/mauriciojimenezs/toretto/internal/api/visualrecognition"
	"github.com/mauriciojimenezs/toretto/internal/api/watson"
	"github.com/mauriciojimenezs/toretto/internal/config"
	"github.com/mauriciojimenezs/toretto/internal/conversation"
	"github.com/mauriciojimenezs/toretto/internal/core/ports"
	"github.com/mauriciojimenezs/toretto/internal/messenger"
	"github.com/mauriciojimenezs/toretto/internal/normalizer"
	"github.com/mauriciojimenezs/toretto/internal/pipeline"
	"github.com/mauriciojimenezs/toretto/internal/server"
	"github.com/mauriciojimenezs/toretto/internal/session"
	"github.com/mauriciojimenezs/toretto/internal/storage"
	"github.com/mauriciojimenezs/toretto/internal/telemetry"
	"github.com/mauriciojimenezs/toretto/internal/webhook"
)

// Bridge connects the Messenger webhook to the conversational engine.
type Bridge struct {
	cfg    *config.Config
	logger *slog.Logger

	store      ports.SessionStore
	engine     ports.Engine
	classifier ports.Classifier
	sender     messenger.Sender

	sessions     *session.Store
	orchestrator *pipeline.Orchestrator
	server       *server.Server

	stopTracer func(context.Context) error
	serveErr   chan error
	mu         sync.Mutex
}

// New creates a Bridge. Collaborators not supplied through options are
// built from the configuration.
func New(opts ...Option) (*Bridge, error) {
	b := &Bridge{logger: slog.Default()}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if b.cfg == nil {
		return nil, errors.New("config required (use WithConfig or WithConfigFile)")
	}

	if b.store == nil {
		store, err := storage.Open(b.cfg.Session)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		b.store = store
	}
	if b.engine == nil {
		b.engine = watson.NewClient(b.cfg.Engine.Username, b.cfg.Engine.Password,
			watson.WithBaseURL(b.cfg.Engine.URL),
			watson.WithVersion(b.cfg.Engine.Version),
			watson.WithHTTPClient(telemetry.HTTPClient(b.cfg.Engine.Timeout)))
	}
	if b.classifier == nil {
		b.classifier = visualrecognition.NewClient(b.cfg.Classifier.APIKey,
			visualrecognition.WithBaseURL(b.cfg.Classifier.URL),
			visualrecognition.WithVersion(b.cfg.Classifier.Version),
			visualrecognition.WithHTTPClient(telemetry.HTTPClient(b.cfg.Classifier.Timeout)))
	}
	if b.sender == nil {
		b.sender = graph.NewClient(b.cfg.Messenger.AccessToken,
			graph.WithEndpoint(b.cfg.Messenger.Endpoint),
			graph.WithHTTPClient(telemetry.HTTPClient(b.cfg.Messenger.Timeout)),
			graph.WithLogger(b.logger))
	}

	b.sessions = session.New(b.store, b.cfg.Session.TTL, b.logger)
	b.orchestrator = pipeline.New(pipeline.Config{
		VerifyToken:  b.cfg.Messenger.VerifyToken,
		Sessions:     b.sessions,
		Normalizer:   normalizer.New(b.classifier, b.cfg.Classifier.ClassifierID, b.cfg.Classifier.Threshold, b.logger),
		Conversation: conversation.New(b.engine, b.cfg.Engine.WorkspaceID),
		Messenger:    messenger.New(b.sender, b.logger),
		Logger:       b.logger,
	})

	b.server = server.New(b.cfg.Server.Port, b.logger, b.cfg.Server.RequestTimeout)
	b.registerRoutes()

	return b, nil
}

func (b *Bridge) registerRoutes() {
	path := b.cfg.Server.WebhookPath
	if path == "" {
		path = "/webhook"
	}

	h := webhook.NewHandler(b.orchestrator, b.cfg.Messenger.AppSecret, b.logger)
	b.server.Router.Method(http.MethodGet, path, h)
	b.server.Router.Method(http.MethodPost, path, h)

	b.logger.Info("registered webhook", slog.String("path", path))
}

// Handler returns the HTTP handler serving the webhook and health routes.
func (b *Bridge) Handler() http.Handler {
	return b.server.Router
}

// Sessions returns the session adapter backing the pipeline.
func (b *Bridge) Sessions() *session.Store {
	return b.sessions
}

// Start initializes tracing and starts the HTTP server in the background.
// Server failures are reported on Err.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stop, err := telemetry.InitTracer(b.cfg.Telemetry, b.logger)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	b.stopTracer = stop

	b.serveErr = make(chan error, 1)
	go func() {
		if err := b.server.Start(); err != nil {
			b.logger.Error("server error", slog.String("error", err.Error()))
			b.serveErr <- err
		}
		close(b.serveErr)
	}()

	b.logger.InfoContext(ctx, "bridge started",
		slog.Int("port", b.cfg.Server.Port),
		slog.String("session_driver", b.cfg.Session.Driver))
	return nil
}

// Err returns a channel that receives the server error, if any, and is
// closed when the server stops. It is nil before Start.
func (b *Bridge) Err() <-chan error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.serveErr
}

// Shutdown stops the server, waits for pending session saves and releases
// the session store and tracer.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logger.Info("shutting down bridge")

	var errs []error
	if err := b.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown server: %w", err))
	}
	if err := b.orchestrator.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("wait for session saves: %w", err))
	}
	if err := b.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close session store: %w", err))
	}
	if b.stopTracer != nil {
		if err := b.stopTracer(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
	}

	b.logger.Info("bridge shutdown complete")
	return errors.Join(errs...)
}
