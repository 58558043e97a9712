package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"Inventory/internal/auth"
)

const secret = "test-secret-test-secret-test-secret"

func newServer(t *testing.T) *auth.Server {
	t.Helper()

	store := auth.NewMemStoreCost(bcrypt.MinCost)
	if _, err := auth.Seed(context.Background(), store, "Ops@Example.com", "password123"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return &auth.Server{Log: zap.NewNop(), Store: store, JWT: auth.NewTokenMaker(secret)}
}

func login(t *testing.T, h http.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	b, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(b))
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMemStore_VerifyNormalizesEmail(t *testing.T) {
	s := auth.NewMemStoreCost(bcrypt.MinCost)
	ctx := context.Background()

	if err := s.Create(ctx, " A@B.com ", "pw", auth.RoleOperator, "op_1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, "a@b.com", "other", auth.RoleOperator, "op_2"); !errors.Is(err, auth.ErrEmailExists) {
		t.Fatalf("duplicate create = %v, want ErrEmailExists", err)
	}

	op, err := s.Verify(ctx, "a@b.COM", "pw")
	if err != nil || op.ID != "op_1" {
		t.Fatalf("verify = %+v, %v", op, err)
	}
	if _, err := s.Verify(ctx, "a@b.com", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("wrong password = %v", err)
	}
	if _, err := s.Verify(ctx, "nobody@b.com", "pw"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("unknown email = %v", err)
	}
}

func TestTokenMaker_RoundTrip(t *testing.T) {
	tm := auth.NewTokenMaker(secret)
	op := auth.Operator{ID: "op_1", Email: "a@b.com", Role: auth.RoleOperator}

	tok, err := tm.New(op, time.Minute)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c, err := tm.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.OperatorID != "op_1" || c.Role != auth.RoleOperator || c.Subject != "op_1" {
		t.Fatalf("claims = %+v", c)
	}
}

func TestTokenMaker_Rejects(t *testing.T) {
	tm := auth.NewTokenMaker(secret)
	op := auth.Operator{ID: "op_1", Role: auth.RoleOperator}

	expired, _ := tm.New(op, -time.Minute)
	otherKey, _ := auth.NewTokenMaker("another-secret-another-secret-xx").New(op, time.Minute)
	noOperator, _ := tm.New(auth.Operator{Role: auth.RoleOperator}, time.Minute)
	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		OperatorID: "op_1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte(secret))

	tests := []struct {
		name string
		tok  string
	}{
		{"expired", expired},
		{"other key", otherKey},
		{"no operator", noOperator},
		{"wrong issuer", wrongIssuer},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tm.Parse(tt.tok); err == nil {
				t.Fatal("Parse accepted token")
			}
		})
	}
}

func TestLoginAndWhoAmI(t *testing.T) {
	s := newServer(t)
	h := s.Routes(100)

	rec := login(t, h, "ops@example.com", "password123")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status=%d body=%s", rec.Code, rec.Body)
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.AccessToken == "" || resp.ExpiresIn != 900 {
		t.Fatalf("login resp = %+v", resp)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("whoami: status=%d", rec.Code)
	}
	var who map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &who)
	if who["email"] != "ops@example.com" || who["role"] != auth.RoleOperator {
		t.Fatalf("whoami = %v", who)
	}
}

func TestLogin_BadInput(t *testing.T) {
	h := newServer(t).Routes(100)

	if rec := login(t, h, "ops@example.com", "nope"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status=%d", rec.Code)
	}
	if rec := login(t, h, "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty: status=%d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"email":"x","admin":true}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: status=%d", rec.Code)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	h := newServer(t).Routes(2)

	for i := range 2 {
		if rec := login(t, h, "ops@example.com", "nope"); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status=%d", i, rec.Code)
		}
	}
	rec := login(t, h, "ops@example.com", "password123")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third attempt: status=%d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
}

func TestRequireOperator(t *testing.T) {
	tm := auth.NewTokenMaker(secret)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, found := auth.ClaimsFromContext(r.Context())
		if !found || c.OperatorID != "op_1" {
			t.Errorf("claims = %+v, %v", c, found)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	h := auth.RequireOperator(tm)(ok)

	operator, _ := tm.New(auth.Operator{ID: "op_1", Role: auth.RoleOperator}, time.Minute)
	viewer, _ := tm.New(auth.Operator{ID: "op_2", Role: "viewer"}, time.Minute)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"invalid", "Bearer junk", http.StatusUnauthorized},
		{"wrong role", "Bearer " + viewer, http.StatusForbidden},
		{"operator", "Bearer " + operator, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status=%d, want %d", rec.Code, tt.want)
			}
		})
	}
}
