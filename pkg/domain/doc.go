// Package domain defines the core business types for the banking agent mock.
//
// This package contains pure domain logic with ZERO external dependencies
// outside the Go standard library. All types in this package are:
//
// - Independent of infrastructure (no HTTP, no YAML, no metrics)
// - Testable in isolation without mocks
// - Stable and unlikely to change frequently
//
// Other packages (match, responder, router, server, config) depend on these
// types; the dependency direction is always Infrastructure → Domain.
package domain
