package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eventgate-io/eventgate/internal/auth"
	"github.com/eventgate-io/eventgate/internal/bus"
	"github.com/eventgate-io/eventgate/internal/event"
	"github.com/eventgate-io/eventgate/internal/logging"
	"github.com/eventgate-io/eventgate/internal/metrics"
	"github.com/eventgate-io/eventgate/internal/ratelimit"
)

// Client-facing response messages. Internal faults always collapse to the
// fixed generic message; validator and bus errors never reach the body.
const (
	msgEventSend     = "Event send"
	msgUnauthorized  = "Unauthorized"
	msgInternalError = "Internal Server Error"
	msgTooManyReqs   = "Too Many Requests"
)

// Publisher is the slice of the bus the handler needs.
type Publisher interface {
	Publish(ctx context.Context, env event.Envelope) (bus.Result, error)
}

// Response is the body shape of every gateway response.
type Response struct {
	Message string `json:"message"`
}

// PublishHandler is the synchronous entry point: it authorizes the caller,
// builds the canonical envelope, publishes it, and maps the publish result
// back to an HTTP response. There is no retry loop here; retries are the
// client's responsibility.
type PublishHandler struct {
	validator auth.Validator
	publisher Publisher
	route     event.Route
	limiter   ratelimit.RateLimiter
	logger    *logging.Logger
}

// NewPublishHandler wires the handler's collaborators.
func NewPublishHandler(validator auth.Validator, publisher Publisher, route event.Route, limiter ratelimit.RateLimiter, logger *logging.Logger) *PublishHandler {
	if limiter == nil {
		limiter = &ratelimit.NoOpRateLimiter{}
	}
	return &PublishHandler{
		validator: validator,
		publisher: publisher,
		route:     route,
		limiter:   limiter,
		logger:    logger,
	}
}

// HandlePublish serves the single client-facing method: GET on the root.
func (h *PublishHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		h.respond(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	ctx := r.Context()
	credential := auth.ExtractBearer(r.Header.Get("Authorization"))

	allowed, err := h.limiter.Allow(ctx, limiterKey(credential))
	if err != nil {
		// Fail open: losing the limiter should not take down ingestion.
		h.logger.WarnContext(ctx, "rate limiter unavailable", logging.Error(err))
	} else if !allowed {
		h.respond(w, http.StatusTooManyRequests, msgTooManyReqs)
		return
	}

	principal, err := h.validator.Validate(ctx, credential)
	if err != nil {
		if errors.Is(err, auth.ErrDenied) {
			h.logger.InfoContext(ctx, "credential denied", logging.Error(err))
			h.respond(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "token validator fault", logging.Error(err))
		h.respond(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	env := event.New(principal.ClientID, h.route)

	result, err := h.publisher.Publish(ctx, env)
	if err != nil {
		h.logger.ErrorContext(ctx, "publish fault", logging.Error(err))
		h.respond(w, http.StatusInternalServerError, msgInternalError)
		return
	}
	if result.FailedCount > 0 {
		h.logger.WarnContext(ctx, "publish reported failed entries",
			slog.Int("failed_count", result.FailedCount), logging.ClientID(principal.ClientID))
		h.respond(w, http.StatusBadRequest, result.ErrorMessage)
		return
	}

	h.logger.DebugContext(ctx, "event published", logging.ClientID(principal.ClientID), logging.Source(env.Source))
	h.respond(w, http.StatusOK, msgEventSend)
}

// Health reports liveness.
func (h *PublishHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

// Ready reports readiness.
func (h *PublishHandler) Ready(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ready",
	})
}

func (h *PublishHandler) respond(w http.ResponseWriter, status int, message string) {
	metrics.RequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Message: message})
}

// limiterKey hashes the credential so raw tokens never land in Redis.
func limiterKey(credential string) string {
	if credential == "" {
		return "anonymous"
	}
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:8])
}
