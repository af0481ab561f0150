// Package blob defines the durable key-value collaborator the record store
// mirrors its state into. Values are opaque JSON documents written wholesale.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("blob not found")

// Ports for outbound adapters.
type (
	Reader interface {
		Get(ctx context.Context, key string) ([]byte, error)
	}

	Writer interface {
		// Put overwrites the value stored under key.
		Put(ctx context.Context, key string, value []byte) error
		// Delete removes key; deleting a missing key is not an error.
		Delete(ctx context.Context, key string) error
	}

	Store interface {
		Reader
		Writer
	}
)
