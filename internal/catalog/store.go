package catalog

import (
	"context"
	"errors"
	"iter"
)

// ErrNoSnapshot is returned by Storage.ReadLines when nothing has been
// persisted yet (missing file, missing table).
var ErrNoSnapshot = errors.New("no persisted catalog")

// Storage is the backing store of a Catalog. It deals in text lines only;
// the line format belongs to the codec.
type Storage interface {
	// ReadLines calls fn for every stored line in order, header included.
	ReadLines(ctx context.Context, fn func(line string) error) error

	// WriteLines replaces the stored content with lines. The previous content
	// survives a failed write.
	WriteLines(ctx context.Context, lines iter.Seq[string]) error

	Ping(ctx context.Context) error
}
