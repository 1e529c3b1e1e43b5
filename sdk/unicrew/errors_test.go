package unicrew

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusErrorKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusBadRequest, KindValidation},
		{http.StatusForbidden, KindValidation},
		{http.StatusNotFound, KindValidation},
		{http.StatusInternalServerError, KindServer},
		{http.StatusBadGateway, KindServer},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			t.Parallel()
			err := statusError(tt.status, nil)
			if err.Kind != tt.want {
				t.Errorf("statusError(%d).Kind = %q, want %q", tt.status, err.Kind, tt.want)
			}
			if err.Status != tt.status {
				t.Errorf("statusError(%d).Status = %d", tt.status, err.Status)
			}
		})
	}
}

func TestErrorDetail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail field", `{"detail":"token expired"}`, "token expired"},
		{"message field", `{"message":"not allowed"}`, "not allowed"},
		{"detail wins over message", `{"detail":"d","message":"m"}`, "d"},
		{"field error array", `{"username":["already taken"]}`, "username: already taken"},
		{"field error string", `{"email":"invalid address"}`, "email: invalid address"},
		{"empty body", ``, "bad request"},
		{"invalid json", `<html>gateway error</html>`, "bad request"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := errorDetail([]byte(tt.body), http.StatusBadRequest)
			if got != tt.want {
				t.Errorf("errorDetail(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestTransportErrorClassification(t *testing.T) {
	t.Parallel()

	deadlineErr := transportError(fmt.Errorf("request: %w", context.DeadlineExceeded))
	if deadlineErr.Kind != KindTimeout {
		t.Errorf("deadline error kind = %q, want timeout", deadlineErr.Kind)
	}
	if !IsTimeout(deadlineErr) {
		t.Error("IsTimeout() = false for a deadline error")
	}

	connErr := transportError(errors.New("dial tcp: connection refused"))
	if connErr.Kind != KindNetwork {
		t.Errorf("connection error kind = %q, want network", connErr.Kind)
	}
	if connErr.Status != 0 {
		t.Errorf("transport error status = %d, want 0", connErr.Status)
	}
}

func TestErrorPredicatesUnwrap(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("list teams: %w", statusError(http.StatusUnauthorized, nil))
	if !IsAuthError(wrapped) {
		t.Error("IsAuthError() = false for a wrapped 401")
	}
	if IsValidationError(wrapped) {
		t.Error("IsValidationError() = true for a 401")
	}
	if IsAuthError(errors.New("plain")) {
		t.Error("IsAuthError() = true for a non-API error")
	}
}
