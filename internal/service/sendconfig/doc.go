// Package sendconfig implements hierarchical sending configuration.
//
// Configurations live at three scopes: GLOBAL, TENANT, and APP. Resolution
// walks from the most specific scope to the least specific one and returns
// the first configuration found whole; fields are never merged across
// scopes. Exactly one GLOBAL configuration is active at a time.
//
// The service layer depends on repository interfaces defined in this package
// and should never import from api/. Repository implementations live in
// repository/postgres/.
package sendconfig
