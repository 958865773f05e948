// Package httputil holds the shared JSON response and request-decoding
// helpers used by every API handler.
package httputil
