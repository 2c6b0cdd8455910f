// Package domain holds the model types, value types, and repository
// interfaces shared across the application. It has no dependencies on
// infrastructure packages; those implement the interfaces defined here.
package domain
