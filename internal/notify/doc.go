// Package notify implements the notification delivery pipeline.
//
// The Pipeline resolves recipients, bulk-creates notification rows, and
// publishes created/read events to the Redis change feed for realtime push.
// Settings gate the email channel only; the in-app row is always created so
// nothing silently disappears.
package notify
