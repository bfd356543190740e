// Package webhook exposes the pipeline over HTTP for the Messenger Platform.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mauriciojimenezs/toretto/internal/core/domain"
	"github.com/mauriciojimenezs/toretto/internal/pipeline"
	"github.com/mauriciojimenezs/toretto/internal/server"
)

// SignatureHeader carries the HMAC-SHA256 of the body keyed by the app secret.
const SignatureHeader = "X-Hub-Signature-256"

// maxBodyBytes bounds the webhook body read.
const maxBodyBytes = 1 << 20

// Runner runs one pipeline invocation.
type Runner interface {
	Run(ctx context.Context, req *domain.WebhookRequest) *pipeline.Report
}

// Handler serves GET (verification) and POST (events) on the webhook path.
type Handler struct {
	runner    Runner
	appSecret string
	logger    *slog.Logger
}

// NewHandler creates a webhook handler. When appSecret is set, POST bodies
// must be signed with it.
func NewHandler(runner Runner, appSecret string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{runner: runner, appSecret: appSecret, logger: logger}
}

// ServeHTTP parses the request, runs the pipeline and writes the result as
// text/plain.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := h.parse(r)
	if err != nil {
		h.logger.WarnContext(ctx, "rejecting webhook request", slog.String("error", err.Error()))
		server.AddError(ctx, err)
		writeResult(w, domain.FailedResult(domain.NewError(domain.KindUnrecognizedRequest, "", err)))
		return
	}

	report := h.runner.Run(ctx, req)

	server.AddLogField(ctx, "sender_id", report.SenderID)
	server.AddLogField(ctx, "outcome", report.Result.Outcome.String())
	if report.Result.Failed() {
		server.AddLogField(ctx, "error_kind", string(report.Result.Err.Kind))
		server.AddError(ctx, report.Result.Err)
	}

	writeResult(w, report.Result)
}

// parse builds a WebhookRequest from the hub.* query parameters and, for
// requests with a body, the JSON payload. A body that does not decode is
// left empty so the request falls through to the unrecognized branch.
func (h *Handler) parse(r *http.Request) (*domain.WebhookRequest, error) {
	q := r.URL.Query()
	req := &domain.WebhookRequest{
		Mode:        q.Get("hub.mode"),
		VerifyToken: q.Get("hub.verify_token"),
		Challenge:   q.Get("hub.challenge"),
	}

	if r.Body == nil || r.Method == http.MethodGet {
		return req, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}

	if h.appSecret != "" {
		if err := verifySignature(h.appSecret, body, r.Header.Get(SignatureHeader)); err != nil {
			return nil, err
		}
	}

	if err := json.Unmarshal(body, req); err != nil {
		h.logger.DebugContext(r.Context(), "webhook body is not a page event", slog.String("error", err.Error()))
		req.Object = ""
		req.Entry = nil
	}
	return req, nil
}

var (
	errMissingSignature = errors.New("missing " + SignatureHeader + " header")
	errBadSignature     = errors.New("signature mismatch")
)

func verifySignature(secret string, body []byte, header string) error {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok || sig == "" {
		return errMissingSignature
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return errBadSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return errBadSignature
	}
	return nil
}

func writeResult(w http.ResponseWriter, result domain.Result) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(result.StatusCode())
	_, _ = io.WriteString(w, result.Body())
}
