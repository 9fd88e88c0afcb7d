package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/checkin/internal/ingest"
	"github.com/JonMunkholm/checkin/internal/participant"
	"github.com/JonMunkholm/checkin/internal/repository"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "duplicate sentinel",
			err:      fmt.Errorf("create participant: %w", repository.ErrDuplicate),
			wantCode: "DB001",
		},
		{
			name:     "duplicate key text",
			err:      errors.New("ERROR: duplicate key value violates unique constraint"),
			wantCode: "DB001",
		},
		{
			name:     "sqlite unique constraint text",
			err:      errors.New("UNIQUE constraint failed: participants.registrant_id"),
			wantCode: "DB001",
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp: connection refused"),
			wantCode: "DB004",
		},
		{
			name:     "deadline sentinel",
			err:      fmt.Errorf("list: %w", context.DeadlineExceeded),
			wantCode: "DB006",
		},
		{
			name:     "sqlite busy",
			err:      errors.New("database is locked"),
			wantCode: "DB007",
		},
		{
			name:     "registration form",
			err:      participant.ValidationErrors{{Field: "email", Message: "is required"}},
			wantCode: "VAL001",
		},
		{
			name:     "no recognized columns",
			err:      fmt.Errorf("parse: %w", ingest.ErrNoRecognizedColumns),
			wantCode: "IMP001",
		},
		{
			name:     "too few rows",
			err:      ingest.ErrTooFewRows,
			wantCode: "IMP002",
		},
		{
			name:     "too many imports",
			err:      ErrTooManyImports,
			wantCode: "IMP003",
		},
		{
			name:     "cancelled",
			err:      context.Canceled,
			wantCode: "IMP004",
		},
		{
			name:     "sheets disabled",
			err:      ErrSheetsDisabled,
			wantCode: "IMP005",
		},
		{
			name:     "preview expired",
			err:      ErrPreviewNotFound,
			wantCode: "IMP006",
		},
		{
			name:     "file too large sentinel",
			err:      fmt.Errorf("read upload: %w", ingest.ErrFileTooLarge),
			wantCode: "FILE001",
		},
		{
			name:     "body too large text",
			err:      errors.New("http: request body too large"),
			wantCode: "FILE001",
		},
		{
			name:     "unsupported format",
			err:      fmt.Errorf("%w: %q", ingest.ErrUnsupportedFormat, ".pdf"),
			wantCode: "FILE002",
		},
		{
			name:     "broken workbook",
			err:      errors.New("open workbook: zip: not a valid zip file"),
			wantCode: "FILE003",
		},
		{
			name:     "missing multipart file",
			err:      errors.New("http: no such file"),
			wantCode: "FILE004",
		},
		{
			name:     "incomplete identity",
			err:      repository.ErrIncompleteIdentity,
			wantCode: "REQ001",
		},
		{
			name:     "bad json",
			err:      errors.New("invalid character 'x' looking for beginning of value"),
			wantCode: "REQ002",
		},
		{
			name:     "unknown format",
			err:      ErrUnknownFormat,
			wantCode: "REQ003",
		},
		{
			name:     "rate limit",
			err:      errors.New("rate limit exceeded"),
			wantCode: "RATE001",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("DUPLICATE KEY value violates"),
			wantCode: "DB001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestUserMessageCategory(t *testing.T) {
	tests := map[string]string{
		"DB001":   "DB",
		"IMP003":  "IMP",
		"FILE004": "FILE",
		"ERR000":  "ERR",
		"":        "",
	}
	for code, want := range tests {
		if got := (UserMessage{Code: code}).Category(); got != want {
			t.Errorf("Category(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ingest.ErrTooFewRows)

	expected := "The spreadsheet has no participant rows (Code: IMP002). Include a header row and at least one data row"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  repository.ErrDuplicate,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("insert: %w", repository.ErrDuplicate)
		userErr := NewUserError(techErr)

		if userErr.Error() != "This participant is already registered" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, repository.ErrDuplicate) {
			t.Error("Unwrap() should expose the original error")
		}
	})
}
