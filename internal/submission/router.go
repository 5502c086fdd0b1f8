package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/breathscript/Deccanbridgecareers/internal/metrics"
)

const tracerName = "github.com/breathscript/Deccanbridgecareers/internal/submission"

// Router tries each configured Strategy in order and falls back to local persistence when all
// of them fail. It never returns an error: every submission yields exactly one Outcome.
type Router struct {
	model      string
	strategies []Strategy
	fallback   FallbackLogger
	logger     *zap.Logger
}

// NewRouter builds a Router for the given CRM model. Strategies run in slice order.
func NewRouter(model string, strategies []Strategy, fallback FallbackLogger, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		model:      model,
		strategies: strategies,
		fallback:   fallback,
		logger:     logger,
	}
}

// Strategies returns the names of the configured strategies in the order they are tried.
func (r *Router) Strategies() []string {
	names := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Submit routes one submission. The payload must already be compacted by the mapper.
func (r *Router) Submit(ctx context.Context, sub Submission, payload Payload) Outcome {
	req := Request{
		Model:      r.model,
		Payload:    payload,
		Attachment: sub.Attachment.Encode(),
	}
	logger := r.logger.With(zap.String("kind", string(sub.Kind)))

	var errs []error
	for _, strategy := range r.strategies {
		name := strategy.Name()
		res, err := r.attempt(ctx, strategy, req)
		if err != nil {
			logger.Warn("crm strategy failed", zap.String("strategy", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		attached := false
		if req.Attachment != nil {
			switch {
			case res.AttachmentErr != nil:
				metrics.ObserveAttachmentFailure(name)
				logger.Warn("attachment not linked to crm record",
					zap.String("strategy", name),
					zap.Int64("record_id", int64(res.RecordID)),
					zap.Error(res.AttachmentErr))
			case !res.AttachmentID.IsZero():
				attached = true
			}
		}

		logger.Info("submission created in crm",
			zap.String("strategy", name),
			zap.Int64("record_id", int64(res.RecordID)),
			zap.Bool("attachment_attached", attached))
		metrics.ObserveSubmission(string(sub.Kind), string(OutcomeCreated))
		return Outcome{
			Status:             OutcomeCreated,
			RemoteID:           res.RecordID,
			Strategy:           name,
			AttachmentAttached: attached,
		}
	}

	cause := ErrStrategiesExhausted
	if len(errs) > 0 {
		cause = fmt.Errorf("%w: %w", ErrStrategiesExhausted, errors.Join(errs...))
	}
	return r.logLocally(ctx, logger, sub, payload, cause)
}

func (r *Router) attempt(ctx context.Context, strategy Strategy, req Request) (Result, error) {
	name := strategy.Name()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "crm."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("crm.strategy", name), attribute.String("crm.model", req.Model)))
	defer span.End()

	start := time.Now()
	res, err := strategy.Attempt(ctx, req)
	if err == nil && res.RecordID.IsZero() {
		err = ErrNoRecord
	}
	metrics.ObserveStrategyAttempt(name, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "strategy failed")
		return res, err
	}
	span.SetAttributes(attribute.Int64("crm.record_id", int64(res.RecordID)))
	if res.AttachmentErr != nil {
		span.RecordError(res.AttachmentErr)
	}
	return res, nil
}

func (r *Router) logLocally(ctx context.Context, logger *zap.Logger, sub Submission, payload Payload, cause error) Outcome {
	outcome := Outcome{Status: OutcomeLoggedLocally, Cause: cause}
	metrics.ObserveSubmission(string(sub.Kind), string(OutcomeLoggedLocally))

	if r.fallback == nil {
		outcome.PersistErr = fmt.Errorf("%w: no fallback logger configured", ErrPersistence)
		logger.Error("submission dropped", zap.Error(cause), zap.NamedError("persist_error", outcome.PersistErr))
		return outcome
	}

	// A client disconnect must not cancel the only durable copy of the submission.
	path, err := r.fallback.Log(context.WithoutCancel(ctx), LogEntry{
		Submission: sub,
		Payload:    payload,
		Err:        cause,
	})
	if err != nil {
		outcome.PersistErr = fmt.Errorf("%w: %w", ErrPersistence, err)
		logger.Error("fallback write failed", zap.Error(cause), zap.NamedError("persist_error", err))
		return outcome
	}

	outcome.LogPath = path
	logger.Warn("submission logged locally for manual review", zap.String("path", path), zap.Error(cause))
	return outcome
}
