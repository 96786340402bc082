package apperr_test

import (
	"chatcord-backend/internal/apperr"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{
			name: "Plain error defaults to store",
			err:  errors.New("connection reset"),
			want: apperr.Store,
		},
		{
			name: "Direct app error",
			err:  apperr.New(apperr.NotFound, "server not found"),
			want: apperr.NotFound,
		},
		{
			name: "App error wrapped with fmt",
			err:  fmt.Errorf("join: %w", apperr.New(apperr.AlreadyMember, "already a member")),
			want: apperr.AlreadyMember,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := apperr.KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := apperr.Wrap(sql.ErrNoRows, apperr.NotFound, "profile not found")

	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("wrapped error lost its cause")
	}
	if err.Error() != "profile not found: sql: no rows in result set" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := map[apperr.Kind]int{
		apperr.Validation:    http.StatusBadRequest,
		apperr.NotFound:      http.StatusNotFound,
		apperr.AlreadyMember: http.StatusConflict,
		apperr.Unauthorized:  http.StatusForbidden,
		apperr.Store:         http.StatusInternalServerError,
	}

	for kind, want := range tests {
		if got := apperr.HTTPStatus(kind); got != want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", kind, got, want)
		}
	}
}

func TestIsNil(t *testing.T) {
	if apperr.Is(nil, apperr.Store) {
		t.Error("nil error must not match any kind")
	}
}
