// Package template implements tenant-scoped message templates and the
// ${variable} substitution engine used by the dispatch pipeline.
//
// Templates version per (tenant, name): creating a template under an
// existing name mints the next version and activates it. Substitution is
// deliberately simple: placeholders resolve case-insensitively against the
// recipient context and missing variables render as an empty string, so a
// sparse context never blocks a send.
package template
