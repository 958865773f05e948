package worker

import (
	"errors"
	"testing"
)

func TestRetryable(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"Simulated transient timeout", true},
		{"connection refused", true},
		{"ECONNRESET by peer", true},
		{"Rate Limit Exceeded", true},
		{"429 Too Many Requests", true},
		{"request throttled", true},
		{"network is unreachable", true},
		{"i/o timeout", true},
		{"Simulated permanent failure", false},
		{"550 mailbox does not exist", false},
		{"invalid recipient address", false},
		{"no sending configuration found", false},
	}
	for _, c := range cases {
		if got := Retryable(errors.New(c.msg)); got != c.want {
			t.Errorf("Retryable(%q) = %v, want %v", c.msg, got, c.want)
		}
	}

	if Retryable(nil) {
		t.Error("nil error must not be retryable")
	}
}
