// Package broadcast implements the WebSocket notification hub using the actor pattern.
//
// The Hub routes notification events from the Redis change feed to the WebSocket
// clients of each recipient. Uses single goroutine + command channel (no mutexes).
// Per-connection write goroutines handle slow clients gracefully.
package broadcast
