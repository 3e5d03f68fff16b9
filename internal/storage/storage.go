// Package storage provides durable backends for archived event batches.
// The contract is deliberately narrow: an append-only batch write of opaque
// records. Nothing here reads back what it wrote.
package storage

import "context"

// BatchWriter persists a batch of opaque records durably. Implementations
// must treat the whole batch as one write; partial application is a failure.
type BatchWriter interface {
	WriteBatch(ctx context.Context, records [][]byte) error
}
