package worker

import "strings"

// MaxAttempts bounds synchronous delivery retries per recipient.
const MaxAttempts = 3

// retryablePatterns mark transient transport failures worth an immediate
// retry: timeouts, provider rate pushback, and connection-level faults.
var retryablePatterns = []string{
	"timeout",
	"timed out",
	"rate limit",
	"rate exceeded",
	"too many requests",
	"throttl",
	"connection",
	"econnrefused",
	"econnreset",
	"network",
	"temporarily",
}

// Retryable classifies a delivery error by message substring,
// case-insensitively. Anything unmatched is a permanent failure.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
