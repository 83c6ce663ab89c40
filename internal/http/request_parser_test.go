package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"finquest/internal/services"
)

func TestParseForecastDate(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    time.Time
		wantErr bool
	}{
		{name: "absent means today", query: url.Values{}, want: time.Time{}},
		{name: "blank means today", query: url.Values{"date": {"  "}}, want: time.Time{}},
		{name: "valid", query: url.Values{"date": {"2025-06-15"}}, want: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)},
		{name: "wrong layout", query: url.Values{"date": {"15/06/2025"}}, wantErr: true},
		{name: "impossible day", query: url.Values{"date": {"2025-02-30"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseForecastDate(tt.query)
			if tt.wantErr {
				if !errors.Is(err, services.ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"True", true},
		{"false", false},
		{"", false},
		{"yes", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := ParseBool(url.Values{"use_plaid": {tt.value}}, "use_plaid"); got != tt.want {
				t.Fatalf("ParseBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDecodeJSONBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "object", body: `{"public_token":"x"}`},
		{name: "empty", body: "", wantErr: true},
		{name: "whitespace", body: "  \n", wantErr: true},
		{name: "malformed", body: `{"public_token":`, wantErr: true},
		{name: "too large", body: `{"k":"` + strings.Repeat("a", maxBodyBytes) + `"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v map[string]any
			err := decodeJSONBody(httptest.NewRecorder(), r, &v)
			if tt.wantErr {
				if !errors.Is(err, services.ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
