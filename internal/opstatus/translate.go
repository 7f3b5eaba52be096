package opstatus

import (
	"context"
	"errors"
	"fmt"

	"quibo-cli/internal/api"
)

// Error codes carried by OperationError.Code.
const (
	CodeCancelled    = "cancelled"
	CodeNetwork      = "network"
	CodeOffline      = "offline"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeInvalid      = "invalid"
	CodeServer       = "server"
	CodeUnknown      = "unknown"
)

// OperationError is the user-facing form of a failure.
type OperationError struct {
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Code      string `json:"code,omitempty"`
	Status    int    `json:"status,omitempty"`
	Retryable bool   `json:"retryable"`
}

func (e *OperationError) Error() string { return e.Message }

// Translate maps err to a friendly OperationError. offline suppresses retry of
// network failures.
func Translate(err error, offline bool) OperationError {
	if err == nil {
		return OperationError{Message: "Something went wrong.", Code: CodeUnknown}
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
		return OperationError{Message: "Cancelled.", Code: CodeCancelled, Details: err.Error()}
	}

	var verr *api.ValidationError
	if errors.As(err, &verr) {
		return OperationError{Message: "Please check your input.", Details: verr.Error(), Code: CodeInvalid}
	}

	var ae *api.Error
	if !errors.As(err, &ae) {
		if errors.Is(err, context.DeadlineExceeded) {
			return networkError(err.Error(), offline)
		}
		return OperationError{Message: err.Error(), Details: err.Error(), Code: CodeUnknown}
	}

	details := ae.DetailsText()
	if details == "" {
		details = ae.Error()
	}
	switch ae.Category {
	case api.CategoryNetwork:
		return networkError(details, offline)
	case api.CategoryAuth:
		return OperationError{Message: "Please sign in to continue.", Details: details, Code: CodeUnauthorized, Status: ae.Status}
	case api.CategoryPermission:
		return OperationError{Message: "You don't have permission to do that.", Details: details, Code: CodeForbidden, Status: ae.Status}
	case api.CategoryNotFound:
		return OperationError{Message: "The requested resource was not found.", Details: details, Code: CodeNotFound, Status: ae.Status}
	case api.CategoryValidation:
		msg := "The request was invalid."
		if d := ae.Detail(); d != "" {
			msg = fmt.Sprintf("The request was invalid: %s", d)
		}
		return OperationError{Message: msg, Details: details, Code: CodeInvalid, Status: ae.Status}
	case api.CategoryServer:
		return OperationError{Message: "Server error, please try again.", Details: details, Code: CodeServer, Status: ae.Status, Retryable: true}
	default:
		return OperationError{Message: ae.Error(), Details: details, Code: CodeUnknown, Status: ae.Status}
	}
}

func networkError(details string, offline bool) OperationError {
	if offline {
		return OperationError{Message: "You appear to be offline.", Details: details, Code: CodeOffline}
	}
	return OperationError{Message: "Could not reach the server.", Details: details, Code: CodeNetwork, Retryable: true}
}
