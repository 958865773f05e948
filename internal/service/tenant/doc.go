// Package tenant implements tenant and app registration. Apps carry a
// human-assigned client ID alongside their UUID; sending config resolution
// accepts either.
package tenant
