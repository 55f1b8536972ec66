package extractor

import "errors"

// ErrMissingCredential is returned by a model provider whose credential is not configured.
var ErrMissingCredential = errors.New("model credential is not configured")

var errEmptyText = errors.New("task text is empty")

// Kind classifies extraction failures.
type Kind string

const (
	// KindConfiguration means the model provider is not usable as configured.
	KindConfiguration Kind = "configuration"
	// KindFormat means the model answered with something that is not a usable task.
	KindFormat Kind = "format"
	// KindInvocation means the model call itself failed.
	KindInvocation Kind = "invocation"
)

// Error is returned by Extract for every failure.
type Error struct {
	Kind Kind
	// Raw holds the model response text for format errors.
	Raw string
	Err error
}

func (e *Error) Error() string {
	return "extract task: " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of an extraction error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var xerr *Error
	if errors.As(err, &xerr) {
		return xerr.Kind, true
	}
	return "", false
}
