// Package votes implements the like/dislike toggle engine.
//
// The Engine validates the requested reaction, suppresses rapid duplicate
// submissions via the Redis debouncer, and delegates the toggle itself to the
// vote repository, which applies it atomically in a single transaction.
package votes
