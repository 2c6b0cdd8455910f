// Package app provides the application service layer.
//
// Orchestrates use cases: registration and login, board posts and comments,
// announcement publishing with notification fan-out, and read-state queries.
// Sits between HTTP handlers and domain repositories. Depends on domain
// interfaces, not concrete implementations.
package app
