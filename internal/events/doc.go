// Package events records the append-only audit trail of the dispatch
// pipeline and optionally fans events out to an AMQP exchange for
// downstream consumers.
//
// Event recording is best-effort by contract: a failed append or publish
// is logged and swallowed so an analytics outage can never fail a send.
package events
