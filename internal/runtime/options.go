package runtime

import (
	"fmt"
	"log/slog"

	"github.com/mauriciojimenezs/toretto/internal/config"
	"github.com/mauriciojimenezs/toretto/internal/core/ports"
	"github.com/mauriciojimenezs/toretto/internal/messenger"
)

// Option is a functional option for configuring a Bridge.
type Option func(*Bridge) error

// WithConfig uses an already loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(b *Bridge) error {
		if cfg == nil {
			return fmt.Errorf("nil config")
		}
		b.cfg = cfg
		return nil
	}
}

// WithConfigFile loads configuration from path, environment and defaults.
func WithConfigFile(path string) Option {
	return func(b *Bridge) error {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		b.cfg = cfg
		return nil
	}
}

// WithLogger sets the logger used by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) error {
		b.logger = logger
		return nil
	}
}

// WithSessionStore uses store instead of the configured session driver.
func WithSessionStore(store ports.SessionStore) Option {
	return func(b *Bridge) error {
		b.store = store
		return nil
	}
}

// WithEngine uses engine instead of the Watson Conversation client.
func WithEngine(engine ports.Engine) Option {
	return func(b *Bridge) error {
		b.engine = engine
		return nil
	}
}

// WithClassifier uses classifier instead of the Visual Recognition client.
func WithClassifier(classifier ports.Classifier) Option {
	return func(b *Bridge) error {
		b.classifier = classifier
		return nil
	}
}

// WithSender uses sender instead of the Send API client.
func WithSender(sender messenger.Sender) Option {
	return func(b *Bridge) error {
		b.sender = sender
		return nil
	}
}
