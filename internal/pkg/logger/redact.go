package logger

import "strings"

// RedactEmail masks an address for log output, keeping at most the first
// two characters of the local part and the full domain.
func RedactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "***@***"
	}
	local, domain := email[:at], email[at+1:]
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}
