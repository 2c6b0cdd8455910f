// Package database implements the domain repositories on PostgreSQL via pgx.
//
// Connect builds a pgxpool with a query tracer for metrics; RunMigrations
// applies the embedded schema under an advisory lock so concurrent instances
// don't race on startup.
package database
