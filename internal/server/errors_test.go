package server

import (
	"errors"
	"net/http"
	"testing"

	"github.com/octo-lens/octo-lens/internal/upstream"
)

func TestClassifyUpstreamError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "not found uses resource label",
			err:        &upstream.StatusError{Resource: "repositories", StatusCode: http.StatusNotFound},
			wantStatus: http.StatusNotFound,
			wantDetail: "repositories not found",
		},
		{
			name:       "not found without label",
			err:        &upstream.StatusError{StatusCode: http.StatusNotFound},
			wantStatus: http.StatusNotFound,
			wantDetail: "resource not found",
		},
		{
			name:       "bad request",
			err:        &upstream.StatusError{StatusCode: http.StatusBadRequest},
			wantStatus: http.StatusBadRequest,
			wantDetail: "Invalid upstream request",
		},
		{
			name:       "other status passthrough",
			err:        &upstream.StatusError{StatusCode: http.StatusServiceUnavailable},
			wantStatus: http.StatusServiceUnavailable,
			wantDetail: "GitHub API error",
		},
		{
			name:       "network error",
			err:        errors.New("no route to host"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Network error: failed to reach GitHub",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyUpstreamError(tc.err)
			if got.Status != tc.wantStatus {
				t.Fatalf("status: expected %d, got %d", tc.wantStatus, got.Status)
			}
			if got.Detail != tc.wantDetail {
				t.Fatalf("detail: expected %q, got %q", tc.wantDetail, got.Detail)
			}
			if got.Extra == nil {
				t.Fatal("extra must always be a non-nil map")
			}
		})
	}
}

func TestClassifyRateLimitedPopulatesRemaining(t *testing.T) {
	header := http.Header{}
	header.Set("X-Ratelimit-Remaining", "3")
	got := classifyUpstreamError(&upstream.StatusError{
		StatusCode: http.StatusTooManyRequests,
		Header:     header,
	})
	if got.Status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", got.Status)
	}
	if got.Extra["remaining"] != "3" {
		t.Fatalf("expected remaining 3, got %+v", got.Extra)
	}

	missing := classifyUpstreamError(&upstream.StatusError{StatusCode: http.StatusTooManyRequests})
	if missing.Extra["remaining"] != "0" {
		t.Fatalf("missing header should default to 0, got %+v", missing.Extra)
	}
}
