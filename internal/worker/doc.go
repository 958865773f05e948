// Package worker drives the dispatch pipeline. Each tick claims due message
// groups via optimistic locking, renders pending recipients, attempts
// delivery for rendered recipients with bounded retry, and finalizes groups
// whose recipients have all reached a terminal state.
//
// Concurrent ticks are tolerated by design: correctness hangs on the
// per-group claim (a conditional update on status and lock_version), not on
// any process-wide lock. A failed claim is a normal outcome, handled by
// skip-and-continue.
package worker
