// Package redis implements Redis-backed infrastructure for staffboard.
//
// Provides NotificationPubSub (per-recipient change-feed via Redis Pub/Sub),
// Debouncer (vote double-submit suppression via SET NX), and client hooks
// for metrics and circuit breaking.
package redis
