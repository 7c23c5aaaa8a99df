package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFetch         = errors.New("fetch failure")
	ErrStaging       = errors.New("staging failure")
	ErrStore         = errors.New("store failure")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short classification label for err suitable for reports and
// structured logs. A timeout is reported as such whichever stage marker it
// also carries.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrStaging):
		return "staging"
	case errors.Is(err, ErrStore):
		return "store"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "transient"
	}
}

// ErrorDetails summarises an error for user-facing output.
type ErrorDetails struct {
	Kind    string
	Message string
}

// Details extracts the classification and the innermost-first message of err.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	return ErrorDetails{Kind: Kind(err), Message: strings.TrimSpace(err.Error())}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
