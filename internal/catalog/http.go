package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Inventory/pkg/kit"
)

const maxBodyBytes = 1 << 20

// Server exposes a Catalog over HTTP. The catalog itself is single threaded,
// so every request goes through mu.
type Server struct {
	Catalog *Catalog
	Log     *zap.Logger

	// Guard wraps the mutating routes; nil leaves them open.
	Guard func(http.Handler) http.Handler

	mu sync.RWMutex
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Get("/products", s.list)
	r.Get("/products/by-name/{name}", s.getByName)
	r.Get("/products/{sku}", s.get)

	r.Group(func(pr chi.Router) {
		if s.Guard != nil {
			pr.Use(s.Guard)
		}
		pr.Post("/products", s.create)
		pr.Post("/products/reload", s.reload)
		pr.Put("/products/{sku}", s.update)
		pr.Put("/products/{sku}/sizes/{label}", s.setSize)
	})

	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	s.mu.RLock()
	err := s.Catalog.Ping(ctx)
	dirty := s.Catalog.Dirty()
	s.mu.RUnlock()

	if err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	if dirty {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "storage behind memory", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	order := r.URL.Query().Get("order")

	s.mu.RLock()
	var products []*Product
	switch order {
	case "", "sku":
		products = slices.Collect(s.Catalog.BySKU())
	case "name":
		products = slices.Collect(s.Catalog.ByName())
	}
	s.mu.RUnlock()

	if order != "" && order != "sku" && order != "name" {
		kit.WriteError(w, r, http.StatusBadRequest, "bad order", map[string]any{"allowed": []string{"sku", "name"}})
		return
	}
	if products == nil {
		products = []*Product{}
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	sku := pathParam(r, "sku")

	s.mu.RLock()
	p, ok := s.Catalog.FindBySKU(sku)
	s.mu.RUnlock()

	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"sku": sku})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) getByName(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")

	s.mu.RLock()
	p, ok := s.Catalog.FindByName(name)
	s.mu.RUnlock()

	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"name": name})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

type createReq struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Sizes       string `json:"sizes"`
}

type writeResp struct {
	Product     *Product `json:"product"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.SKU == "" || req.Name == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "sku/name required", nil)
		return
	}

	p, issues := NewProduct(req.SKU, req.Name, req.Description, req.Sizes)

	s.mu.Lock()
	s.Catalog.ReportIssues(p.SKU, issues)
	err := s.Catalog.Add(r.Context(), p)
	s.mu.Unlock()

	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, writeResp{Product: p, Diagnostics: messages(issues)})
}

// updateReq fields left out keep their current value.
type updateReq struct {
	Description *string `json:"description"`
	Sizes       *string `json:"sizes"`
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	sku := pathParam(r, "sku")

	var req updateReq
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	var issues []error
	s.mu.Lock()
	cur, found := s.Catalog.FindBySKU(sku)
	var err error
	if found {
		desc, sizes := cur.Description, cur.Sizes
		if req.Description != nil {
			desc = *req.Description
		}
		if req.Sizes != nil {
			sizes, issues = ParseSizes(*req.Sizes)
			s.Catalog.ReportIssues(sku, issues)
		}
		_, err = s.Catalog.Edit(r.Context(), sku, desc, sizes)
		cur, _ = s.Catalog.FindBySKU(sku)
	}
	s.mu.Unlock()

	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"sku": sku})
		return
	}
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, writeResp{Product: cur, Diagnostics: messages(issues)})
}

type setSizeReq struct {
	Qty *int `json:"qty"`
}

func (s *Server) setSize(w http.ResponseWriter, r *http.Request) {
	sku, label := pathParam(r, "sku"), pathParam(r, "label")

	var req setSizeReq
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.Qty == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "qty required", nil)
		return
	}

	s.mu.Lock()
	found, err := s.Catalog.SetSizeQuantity(r.Context(), sku, label, *req.Qty)
	p, _ := s.Catalog.FindBySKU(sku)
	s.mu.Unlock()

	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"sku": sku})
		return
	}
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, writeResp{Product: p})
}

type reloadResp struct {
	Loaded      int      `json:"loaded"`
	Skipped     int      `json:"skipped"`
	Records     int      `json:"records"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	report, err := s.Catalog.Load(r.Context())
	n := s.Catalog.Len()
	s.mu.Unlock()

	if errors.Is(err, ErrNoSnapshot) {
		kit.WriteError(w, r, http.StatusNotFound, "nothing persisted", nil)
		return
	}
	if err != nil {
		s.logger().Error("reload catalog failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "storage read failed", map[string]any{"loaded": report.Loaded})
		return
	}
	kit.WriteJSON(w, http.StatusOK, reloadResp{
		Loaded:      report.Loaded,
		Skipped:     report.Skipped,
		Records:     n,
		Diagnostics: messages(report.Issues),
	})
}

// writeMutationError reports either a rejected value, which changed nothing,
// or a write that reached memory but not storage.
func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *FieldError
	if errors.As(err, &fe) {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid field", map[string]any{"field": fe.Field, "cause": fe.Error()})
		return
	}
	s.logger().Error("persist catalog failed", zap.Error(err))
	kit.WriteError(w, r, http.StatusInternalServerError, "storage write failed", map[string]any{"applied_in_memory": true})
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// pathParam undoes escaping chi keeps when it routed on the raw path.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func messages(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
