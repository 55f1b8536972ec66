// Package extractor turns free-text task descriptions into structured task fields
// with a generative language model.
package extractor

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

const (
	// DefaultTimeout bounds a single model call.
	DefaultTimeout = 30 * time.Second

	spanName = "extractor.extract"
)

// Model generates a text completion for a prompt.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Extractor calls a Model once per task description. It keeps no state between calls.
type Extractor struct {
	model   Model
	timeout time.Duration
	log     *log.Logger
}

// New creates an Extractor. A non-positive timeout disables the per-call deadline.
func New(model Model, timeout time.Duration, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Extractor{model: model, timeout: timeout, log: logger}
}

// Extract asks the model for the task fields contained in text. Every failure is an
// *Error; nothing is retried.
func (x *Extractor) Extract(ctx context.Context, text string) (fields domain.TaskFields, err error) {
	ctx, span := otel.Tracer("extractor").Start(ctx, spanName)
	defer func() {
		if err != nil {
			kind, _ := KindOf(err)
			span.SetAttributes(attribute.String("extractor.error_kind", string(kind)))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("task.priority", string(fields.Priority)))
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.TaskFields{}, &Error{Kind: KindFormat, Err: errEmptyText}
	}
	if x.model == nil {
		x.log.Error("extractor has no model configured")
		return domain.TaskFields{}, &Error{Kind: KindConfiguration, Err: ErrMissingCredential}
	}

	callCtx := ctx
	if x.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := x.model.Generate(callCtx, buildPrompt(text))
	span.SetAttributes(attribute.Float64("extractor.model_ms", float64(time.Since(start))/float64(time.Millisecond)))
	if err != nil {
		if errors.Is(err, ErrMissingCredential) {
			x.log.WithError(err).Error("model credential missing")
			return domain.TaskFields{}, &Error{Kind: KindConfiguration, Err: err}
		}
		x.log.WithFields(log.Fields{"error": err.Error(), "timeout": x.timeout}).Error("model call failed")
		return domain.TaskFields{}, &Error{Kind: KindInvocation, Err: err}
	}

	fields, err = parseResponse(out)
	if err != nil {
		x.log.WithFields(log.Fields{"error": err.Error(), "response": out}).Error("unusable model response")
		return domain.TaskFields{}, &Error{Kind: KindFormat, Raw: out, Err: err}
	}
	return fields, nil
}
