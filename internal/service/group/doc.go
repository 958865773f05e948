// Package group implements message group lifecycle management: creation,
// recipient ingestion, scheduling, cancelation, and open tracking.
//
// A group moves draft -> scheduled -> processing -> complete, with canceled
// reachable from any non-terminal state. The worker pipeline owns the
// processing and complete transitions; this service owns the rest.
//
// The service layer depends on repository interfaces defined in this package
// and should never import from api/. Repository implementations live in
// repository/postgres/.
package group
