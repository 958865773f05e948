// Package sender hands rendered emails to a delivery transport. The worker
// resolves a sending configuration per group and routes each message to the
// matching provider implementation (SMTP or AWS SES).
package sender
