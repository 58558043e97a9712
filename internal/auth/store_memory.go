package auth

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type MemStore struct {
	mu      sync.RWMutex
	byEmail map[string]Operator
	cost    int
}

func NewMemStore() *MemStore {
	return &MemStore{byEmail: make(map[string]Operator), cost: bcrypt.DefaultCost}
}

// NewMemStoreCost is NewMemStore with a custom bcrypt cost, for tests.
func NewMemStoreCost(cost int) *MemStore {
	s := NewMemStore()
	s.cost = cost
	return s
}

func (s *MemStore) Create(_ context.Context, email, password, role, id string) error {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return ErrEmailExists
	}
	s.byEmail[email] = Operator{ID: id, Email: email, Hash: hash, Role: role}
	return nil
}

func (s *MemStore) Verify(_ context.Context, email, password string) (Operator, error) {
	email = normalizeEmail(email)

	s.mu.RLock()
	u, ok := s.byEmail[email]
	s.mu.RUnlock()

	if !ok {
		return Operator{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(strings.TrimSpace(password))); err != nil {
		return Operator{}, ErrInvalidCredentials
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
