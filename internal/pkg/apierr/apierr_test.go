package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
)

func TestStoreClassifiesTransientFailures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			"wrapped deadline",
			fmt.Errorf("list chats: %w", context.DeadlineExceeded),
			http.StatusServiceUnavailable, "unavailable",
		},
		{
			"dial failure",
			fmt.Errorf("query: %w", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}),
			http.StatusServiceUnavailable, "unavailable",
		},
		{
			"constraint violation",
			errors.New("UNIQUE constraint failed: chat.chat_key"),
			http.StatusInternalServerError, "internal_error",
		},
	}

	for _, tc := range cases {
		got := Store(tc.err)
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("%s: got %d %q, want %d %q", tc.name, got.Status, got.Code, tc.status, tc.code)
		}
		if !errors.Is(got, tc.err) {
			t.Fatalf("%s: cause not preserved", tc.name)
		}
	}
}
