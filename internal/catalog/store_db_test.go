package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestReadResult(t *testing.T) {
	undefined := &pgconn.PgError{Code: pgUndefinedTable, Message: `relation "inventory_lines" does not exist`}
	denied := &pgconn.PgError{Code: "42501", Message: "permission denied"}

	tests := []struct {
		name string
		err  error
		rows int
		want error
	}{
		{"missing table", undefined, 0, ErrNoSnapshot},
		{"wrapped missing table", fmt.Errorf("query: %w", undefined), 0, ErrNoSnapshot},
		{"empty table", nil, 0, ErrNoSnapshot},
		{"rows", nil, 3, nil},
		{"other pg error", denied, 0, denied},
		{"timeout", context.DeadlineExceeded, 0, context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readResult(tt.err, tt.rows)
			if !errors.Is(got, tt.want) || (tt.want == nil && got != nil) {
				t.Fatalf("readResult = %v, want %v", got, tt.want)
			}
		})
	}
}
