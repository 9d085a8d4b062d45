// Package handler implements the contact-form submission pipeline:
// decode, guard, build the message, deliver once, shape the response.
// It is transport-neutral; adapters translate Request and Result to and
// from their runtime's types.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shineum/contact-form-relay/internal/form"
	"github.com/shineum/contact-form-relay/internal/origin"
	"github.com/shineum/contact-form-relay/internal/provider"
)

// DefaultTimeout bounds a single delivery attempt when none is configured.
const DefaultTimeout = 10 * time.Second

// Sentinel reasons for silent results.
var (
	ErrHoneypot         = errors.New("honeypot field filled")
	ErrOriginNotAllowed = errors.New("origin not in allow-list")
)

const timeoutMessage = "email delivery timed out"

// Config holds the dependencies of a Handler.
type Config struct {
	AllowList *origin.AllowList
	Provider  provider.Provider

	// Timeout bounds the delivery call. Zero means DefaultTimeout.
	Timeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Handler processes one submission per call and keeps no state between
// calls beyond its immutable configuration.
type Handler struct {
	allow    *origin.AllowList
	provider provider.Provider
	timeout  time.Duration
	log      *slog.Logger
}

// Request is a transport-neutral inbound request.
type Request struct {
	Method    string
	Headers   map[string]string
	Body      string
	RequestID string
}

// Response is a transport-neutral reply.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// Result is the outcome of one call. When Silent is set the transport
// must not reply at all and Response is the zero value; Reason says why.
type Result struct {
	Silent   bool
	Reason   error
	Response Response
}

// New creates a Handler. It panics if AllowList or Provider is nil.
func New(cfg Config) *Handler {
	if cfg.AllowList == nil {
		panic("handler: nil allow-list")
	}
	if cfg.Provider == nil {
		panic("handler: nil provider")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		allow:    cfg.AllowList,
		provider: cfg.Provider,
		timeout:  cfg.Timeout,
		log:      cfg.Logger,
	}
}

// Handle runs the submission pipeline for one request. It makes at most
// one delivery attempt.
func (h *Handler) Handle(ctx context.Context, req Request) Result {
	log := h.log.With("request_id", requestID(req))
	reqOrigin := origin.FromHeaders(req.Headers)

	sub, err := form.Parse(req.Body)
	if err != nil {
		// The honeypot can't be read from an undecodable body, so only
		// the origin decides whether the caller gets to see the error.
		if !h.allow.Allowed(reqOrigin) {
			return h.silent(log, ErrOriginNotAllowed, reqOrigin)
		}
		log.Info("malformed submission", "origin", reqOrigin, "error", err)
		return respond(http.StatusBadRequest, reqOrigin, err.Error())
	}

	if sub.IsSpam() {
		return h.silent(log, ErrHoneypot, reqOrigin)
	}
	if !h.allow.Allowed(reqOrigin) {
		return h.silent(log, ErrOriginNotAllowed, reqOrigin)
	}

	if err := sub.Validate(); err != nil {
		log.Info("malformed submission", "origin", reqOrigin, "error", err)
		return respond(http.StatusBadRequest, reqOrigin, err.Error())
	}

	msg := form.BuildEmail(sub)

	sendCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	receipt, err := h.provider.Send(sendCtx, msg)
	elapsed := time.Since(start)

	if err != nil {
		status, reason := failure(err)
		log.Warn("delivery failed",
			"origin", reqOrigin,
			"provider", h.provider.Name(),
			"status", status,
			"duration", elapsed,
			"error", err,
		)
		return respond(status, reqOrigin, reason)
	}

	log.Info("submission delivered",
		"origin", reqOrigin,
		"provider", h.provider.Name(),
		"message_id", receipt.MessageID,
		"duration", elapsed,
	)
	return respond(http.StatusOK, reqOrigin, receipt)
}

// Preflight answers a CORS preflight request. Origins outside the
// allow-list get no reply.
func (h *Handler) Preflight(req Request) Result {
	reqOrigin := origin.FromHeaders(req.Headers)
	if !h.allow.Allowed(reqOrigin) {
		return h.silent(h.log.With("request_id", requestID(req)), ErrOriginNotAllowed, reqOrigin)
	}
	return Result{Response: Response{
		StatusCode: http.StatusNoContent,
		Headers: map[string]string{
			"Access-Control-Allow-Origin":  reqOrigin,
			"Access-Control-Allow-Methods": "POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type",
			"Vary":                         "Origin",
		},
	}}
}

func (h *Handler) silent(log *slog.Logger, reason error, reqOrigin string) Result {
	log.Info("submission dropped", "reason", reason.Error(), "origin", reqOrigin)
	return Result{Silent: true, Reason: reason}
}

// failure maps a delivery error to a status and caller-facing reason.
func failure(err error) (int, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusInternalServerError, timeoutMessage
	}
	return provider.StatusCode(err), provider.Message(err)
}

type body struct {
	Message any `json:"message"`
}

func respond(status int, allowOrigin string, message any) Result {
	data, err := json.Marshal(body{Message: message})
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"message":"failed to encode response"}`)
	}
	return Result{Response: Response{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": allowOrigin,
		},
		Body: string(data),
	}}
}

func requestID(req Request) string {
	if req.RequestID != "" {
		return req.RequestID
	}
	return uuid.NewString()
}
