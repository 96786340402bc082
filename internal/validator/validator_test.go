package validator_test

import (
	"chatcord-backend/internal/apperr"
	"chatcord-backend/internal/validator"
	"fmt"
	"strings"
	"testing"
)

func TestChannelName(t *testing.T) {
	tests := []struct {
		name          string
		channelName   string
		expected      string
		expectedError error
	}{
		// valid cases
		{
			name:        "Valid: Already normalized",
			channelName: "general",
			expected:    "general",
		},
		{
			name:        "Valid: Upper case is lowered",
			channelName: "Announcements",
			expected:    "announcements",
		},
		{
			name:        "Valid: Spaces become single dashes",
			channelName: "  Off   Topic ",
			expected:    "off-topic",
		},
		{
			name:        "Valid: Unicode letters",
			channelName: "Über Chat",
			expected:    "über-chat",
		},
		{
			name:        "Valid: Maximum length (32 chars)",
			channelName: strings.Repeat("a", 32),
			expected:    strings.Repeat("a", 32),
		},

		// empty
		{
			name:          "Error: Empty",
			channelName:   "",
			expectedError: fmt.Errorf("empty_name"),
		},
		{
			name:          "Error: Only whitespace",
			channelName:   "   ",
			expectedError: fmt.Errorf("empty_name"),
		},

		// too long
		{
			name:          "Error: Too long (33 characters)",
			channelName:   strings.Repeat("a", 33),
			expectedError: fmt.Errorf("long_name"),
		},

		// bad format
		{
			name:          "Error: Punctuation",
			channelName:   "what?",
			expectedError: fmt.Errorf("bad_format"),
		},
		{
			name:          "Error: Hash prefix",
			channelName:   "#general",
			expectedError: fmt.Errorf("bad_format"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := validator.ChannelName(tc.channelName)

			if tc.expectedError == nil {
				if err != nil {
					t.Errorf("ChannelName(%q) failed unexpectedly: got error %v, want nil", tc.channelName, err)
				}
				if got != tc.expected {
					t.Errorf("ChannelName(%q) = %q, want %q", tc.channelName, got, tc.expected)
				}
				return
			}

			if err == nil {
				t.Errorf("ChannelName(%q) passed unexpectedly: got nil, want error %v", tc.channelName, tc.expectedError)
				return
			}

			if err.Error() != tc.expectedError.Error() {
				t.Errorf("ChannelName(%q) got error %q, want error %q", tc.channelName, err.Error(), tc.expectedError.Error())
			}
		})
	}
}

func TestStruct(t *testing.T) {
	type request struct {
		Content string  `json:"content" validate:"required,notblank,max=10"`
		Status  *string `json:"status" validate:"omitempty,notblank"`
	}

	blank := "  "

	tests := []struct {
		name      string
		request   request
		wantField string
	}{
		{
			name:    "Valid: Content set",
			request: request{Content: "hi"},
		},
		{
			name:      "Error: Missing content",
			request:   request{},
			wantField: "content:required",
		},
		{
			name:      "Error: Blank content",
			request:   request{Content: "   "},
			wantField: "content:notblank",
		},
		{
			name:      "Error: Long content",
			request:   request{Content: "aaaaaaaaaaa"},
			wantField: "content:max",
		},
		{
			name:      "Error: Blank optional pointer",
			request:   request{Content: "hi", Status: &blank},
			wantField: "status:notblank",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.Struct(tc.request)

			if tc.wantField == "" {
				if err != nil {
					t.Errorf("Struct failed unexpectedly: %v", err)
				}
				return
			}

			if !apperr.Is(err, apperr.Validation) {
				t.Fatalf("Struct returned %v, want validation error", err)
			}
			if !strings.Contains(err.Error(), tc.wantField) {
				t.Errorf("error %q doesn't mention %q", err.Error(), tc.wantField)
			}
		})
	}
}
