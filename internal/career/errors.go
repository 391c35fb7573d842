package career

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError is a client-local rejection raised before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// UpstreamError reports a non-2xx status or a malformed response body.
type UpstreamError struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString("upstream: ")
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsNotFound reports a 404 from the service.
func (e *UpstreamError) IsNotFound() bool { return e.Status == http.StatusNotFound }

// IncompleteResponseError is raised when the OLQ response set does not cover
// every question of the session.
type IncompleteResponseError struct {
	Answered int
	Required int
}

func (e *IncompleteResponseError) Error() string {
	return fmt.Sprintf("olq: %d of %d questions answered", e.Answered, e.Required)
}

// NotFoundError is a resolver fetch of an unknown identifier, or of a payload
// too malformed to display.
type NotFoundError struct {
	Kind string
	ID   string
	Err  error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %q not found", e.Kind, e.ID)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ExportError reports a failed PDF download or write.
type ExportError struct {
	RecommendationID string
	Err              error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.RecommendationID, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// ErrStageOrder is returned when an operation is invoked from the wrong workflow stage.
var ErrStageOrder = errors.New("operation not valid in the current stage")

// UserMessage renders err as the single line shown inline to the candidate.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		validation *ValidationError
		incomplete *IncompleteResponseError
		notFound   *NotFoundError
		exportErr  *ExportError
		upstream   *UpstreamError
	)
	switch {
	case errors.As(err, &validation):
		if validation.Field == "" {
			return capitalize(validation.Reason)
		}
		return fmt.Sprintf("%s %s", humanField(validation.Field), validation.Reason)
	case errors.As(err, &incomplete):
		return "Please answer all questions before submitting"
	case errors.As(err, &notFound):
		return fmt.Sprintf("%s not found", capitalize(notFound.Kind))
	case errors.As(err, &exportErr):
		return "Failed to export PDF"
	case errors.As(err, &upstream):
		if upstream.Detail != "" {
			return upstream.Detail
		}
		if upstream.Status != 0 {
			return fmt.Sprintf("Request failed (%d %s)", upstream.Status, http.StatusText(upstream.Status))
		}
		return "The service returned an unreadable response"
	case errors.Is(err, ErrStageOrder):
		return "Finish the previous step first"
	default:
		return err.Error()
	}
}

func humanField(field string) string {
	return capitalize(strings.ReplaceAll(field, "_", " "))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
