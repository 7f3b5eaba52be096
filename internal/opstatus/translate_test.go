package opstatus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"quibo-cli/internal/api"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		offline   bool
		message   string
		code      string
		retryable bool
	}{
		{"unauthorized", &api.Error{Status: 401, Category: api.CategoryAuth}, false, "Please sign in to continue.", CodeUnauthorized, false},
		{"forbidden", &api.Error{Status: 403, Category: api.CategoryPermission}, false, "You don't have permission to do that.", CodeForbidden, false},
		{"not found", &api.Error{Status: 404, Category: api.CategoryNotFound, Details: map[string]any{"error": "not found"}}, false, "The requested resource was not found.", CodeNotFound, false},
		{"invalid", &api.Error{Status: 422, Category: api.CategoryValidation, Details: map[string]any{"detail": "title required"}}, false, "The request was invalid: title required", CodeInvalid, false},
		{"server", &api.Error{Status: 502, Category: api.CategoryServer, Details: "bad gateway"}, false, "Server error, please try again.", CodeServer, true},
		{"network", &api.Error{Category: api.CategoryNetwork, Err: errors.New("connection refused")}, false, "Could not reach the server.", CodeNetwork, true},
		{"offline", &api.Error{Category: api.CategoryNetwork, Err: errors.New("connection refused")}, true, "You appear to be offline.", CodeOffline, false},
		{"cancelled", fmt.Errorf("generate: %w", context.Canceled), false, "Cancelled.", CodeCancelled, false},
		{"cancel cause", ErrCancelled, false, "Cancelled.", CodeCancelled, false},
		{"local validation", &api.ValidationError{Fields: map[string]string{"customLength": "cannot be blank"}}, false, "Please check your input.", CodeInvalid, false},
		{"wrapped", fmt.Errorf("upload: %w", &api.Error{Status: 401, Category: api.CategoryAuth}), false, "Please sign in to continue.", CodeUnauthorized, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Translate(tc.err, tc.offline)
			if got.Message != tc.message || got.Code != tc.code || got.Retryable != tc.retryable {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestTranslate_NotFoundKeepsDetails(t *testing.T) {
	got := Translate(&api.Error{Status: 404, Category: api.CategoryNotFound, Details: map[string]any{"error": "not found"}}, false)
	if got.Status != 404 || !strings.Contains(got.Details, `"error": "not found"`) {
		t.Fatalf("expected details blob to carry the body, got %+v", got)
	}
}
