// Package bridge provides the public API for embedding the webhook bridge.
// This is the stable API for external consumers.
package bridge

import (
	"github.com/mauriciojimenezs/toretto/internal/runtime"
)

// Bridge connects a Messenger webhook to the conversational engine.
// See internal/runtime.Bridge for full documentation.
type Bridge = runtime.Bridge

// Option is a functional option for configuring a Bridge.
type Option = runtime.Option

// New creates a new Bridge with the given options.
// Example:
//
//	b, err := bridge.New(
//	    bridge.WithConfigFile("config.yaml"),
//	    bridge.WithLogger(logger),
//	)
var New = runtime.New

var (
	// Configuration
	WithConfig     = runtime.WithConfig
	WithConfigFile = runtime.WithConfigFile
	WithLogger     = runtime.WithLogger

	// Collaborators
	WithSessionStore = runtime.WithSessionStore
	WithEngine       = runtime.WithEngine
	WithClassifier   = runtime.WithClassifier
	WithSender       = runtime.WithSender
)
