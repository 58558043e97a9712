package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const RoleOperator = "operator"

// Operator is an account allowed to change the catalog.
type Operator struct {
	ID    string
	Email string
	Hash  []byte
	Role  string
}

type OperatorStore interface {
	Create(ctx context.Context, email, password, role, id string) error
	Verify(ctx context.Context, email, password string) (Operator, error)
}

// Seed creates the operator account configured at startup.
func Seed(ctx context.Context, store OperatorStore, email, password string) (string, error) {
	id := "op_" + uuid.NewString()
	if err := store.Create(ctx, email, password, RoleOperator, id); err != nil {
		return "", err
	}
	return id, nil
}
