// Package catalog indexes product records by SKU and by name and persists
// them as a line oriented text snapshot.
//
// Records live in a single store keyed by a synthetic id; the two ordered
// indexes map a SKU or a name to that id. A Catalog is not safe for
// concurrent use.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Inventory/internal/ordmap"
)

type Deps struct {
	Storage Storage
	Log     *zap.Logger
	Metrics *Metrics
}

type Catalog struct {
	storage Storage
	log     *zap.Logger
	metrics *Metrics

	records map[uuid.UUID]*Product
	bySKU   *ordmap.Map[string, uuid.UUID]
	byName  *ordmap.Map[string, uuid.UUID]

	// named holds the sequence number of the last time each id took its name slot.
	named map[uuid.UUID]uint64
	seq   uint64

	dirty bool
}

// LoadReport summarizes one Load call.
type LoadReport struct {
	Loaded  int
	Skipped int
	Issues  []error
}

func New(deps Deps) *Catalog {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{
		storage: deps.Storage,
		log:     log,
		metrics: deps.Metrics,
		records: make(map[uuid.UUID]*Product),
		bySKU:   ordmap.New[string, uuid.UUID](),
		byName:  ordmap.New[string, uuid.UUID](),
		named:   make(map[uuid.UUID]uint64),
	}
}

// UseStorage switches the backing store. Records already held stay in memory.
func (c *Catalog) UseStorage(s Storage) { c.storage = s }

func (c *Catalog) Len() int { return len(c.records) }

// Dirty reports whether the last flush failed, leaving the backing store
// behind memory.
func (c *Catalog) Dirty() bool { return c.dirty }

func (c *Catalog) Ping(ctx context.Context) error {
	if c.storage == nil {
		return errors.New("no storage configured")
	}
	return c.storage.Ping(ctx)
}

// Add indexes a copy of p under its SKU and name and rewrites the backing
// store. An existing record with the same SKU is replaced; a name already
// used by another SKU now resolves to p. A record that could not be read
// back is rejected with a *FieldError before anything changes.
func (c *Catalog) Add(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.insert(p.Clone())
	return c.Flush(ctx)
}

func (c *Catalog) insert(p *Product) {
	id, ok := c.bySKU.Get(p.SKU)
	if !ok {
		id = uuid.New()
		c.bySKU.Set(p.SKU, id)
	}

	prev := c.records[id]
	c.records[id] = p
	c.indexName(p.Name, id)
	if prev != nil && prev.Name != p.Name {
		c.repointName(prev.Name)
	}
	c.metrics.records(len(c.records))
}

func (c *Catalog) indexName(name string, id uuid.UUID) {
	c.seq++
	c.named[id] = c.seq
	c.byName.Set(name, id)
}

// repointName hands a name slot left behind by a renamed record to the most
// recently indexed record that still carries the name, if any.
func (c *Catalog) repointName(name string) {
	var (
		best    uuid.UUID
		bestSeq uint64
	)
	for id, p := range c.records {
		if p.Name == name && c.named[id] > bestSeq {
			best, bestSeq = id, c.named[id]
		}
	}
	if bestSeq > 0 {
		c.byName.Set(name, best)
	}
}

func (c *Catalog) FindBySKU(sku string) (*Product, bool) {
	p, ok := c.lookupSKU(sku)
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// FindByName returns the record most recently indexed under name. An entry
// left behind by a record that was replaced under a different name is absent.
func (c *Catalog) FindByName(name string) (*Product, bool) {
	id, ok := c.byName.Get(name)
	if !ok {
		return nil, false
	}
	p, ok := c.records[id]
	if !ok || p.Name != name {
		return nil, false
	}
	return p.Clone(), true
}

func (c *Catalog) lookupSKU(sku string) (*Product, bool) {
	id, ok := c.bySKU.Get(sku)
	if !ok {
		return nil, false
	}
	p, ok := c.records[id]
	return p, ok
}

// Edit replaces the description and sizes of the record with the given SKU.
// It reports false, and changes nothing, when the SKU is unknown. Values that
// could not be read back are rejected with a *FieldError.
func (c *Catalog) Edit(ctx context.Context, sku, description string, sizes Sizes) (bool, error) {
	p, ok := c.lookupSKU(sku)
	if !ok {
		return false, nil
	}
	if err := checkField("description", description, textReserved); err != nil {
		return true, err
	}
	if err := sizes.Validate(); err != nil {
		return true, err
	}
	p.SetDescription(description)
	p.ReplaceSizes(sizes)
	c.reindex(p)
	return true, c.Flush(ctx)
}

// SetSizeQuantity upserts a single size entry of the record with the given SKU.
func (c *Catalog) SetSizeQuantity(ctx context.Context, sku, label string, qty int) (bool, error) {
	p, ok := c.lookupSKU(sku)
	if !ok {
		return false, nil
	}
	if err := ValidateSizeLabel(label); err != nil {
		return true, err
	}
	p.SetSizeQuantity(label, qty)
	c.reindex(p)
	return true, c.Flush(ctx)
}

func (c *Catalog) reindex(p *Product) {
	id, _ := c.bySKU.Get(p.SKU)
	c.bySKU.Set(p.SKU, id)
	c.indexName(p.Name, id)
}

// ReportIssues logs and counts size diagnostics raised while building input
// for the record with the given SKU.
func (c *Catalog) ReportIssues(sku string, issues []error) {
	for _, is := range issues {
		c.metrics.diagnostic(kindSizeEntry)
		c.log.Warn("dropping malformed size entry", zap.String("sku", sku), zap.Error(is))
	}
}

// BySKU yields copies of all records in ascending SKU order.
func (c *Catalog) BySKU() iter.Seq[*Product] {
	return func(yield func(*Product) bool) {
		for p := range c.walkSKU() {
			if !yield(p.Clone()) {
				return
			}
		}
	}
}

// ByName yields copies of all records in ascending name order. When several
// SKUs share a name only the one indexed last is yielded.
func (c *Catalog) ByName() iter.Seq[*Product] {
	return func(yield func(*Product) bool) {
		for name, id := range c.byName.All() {
			p, ok := c.records[id]
			if !ok || p.Name != name {
				continue
			}
			if !yield(p.Clone()) {
				return
			}
		}
	}
}

func (c *Catalog) walkSKU() iter.Seq[*Product] {
	return func(yield func(*Product) bool) {
		for _, id := range c.bySKU.All() {
			if p, ok := c.records[id]; ok && !yield(p) {
				return
			}
		}
	}
}

// Flush rewrites the backing store from the SKU index: the header followed
// by one line per record. On failure memory is kept as is and the catalog
// stays dirty until a later flush succeeds.
func (c *Catalog) Flush(ctx context.Context) error {
	if c.storage == nil {
		c.dirty = true
		return errors.New("flush catalog: no storage configured")
	}

	err := c.storage.WriteLines(ctx, c.lines())
	c.metrics.flushed(err)
	if err != nil {
		c.dirty = true
		c.log.Error("catalog flush failed", zap.Error(err), zap.Int("records", len(c.records)))
		return fmt.Errorf("flush catalog: %w", err)
	}

	c.dirty = false
	c.log.Debug("catalog flushed", zap.Int("records", len(c.records)))
	return nil
}

func (c *Catalog) lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		if !yield(Header) {
			return
		}
		for p := range c.walkSKU() {
			if !yield(EncodeLine(p)) {
				return
			}
		}
	}
}

// Load adds every record of the backing store without flushing per record.
// The first line is the header. Lines without exactly four fields are
// skipped and reported; records read before an I/O error stay loaded.
// Load never removes records already in memory.
func (c *Catalog) Load(ctx context.Context) (LoadReport, error) {
	var report LoadReport
	if c.storage == nil {
		return report, errors.New("load catalog: no storage configured")
	}

	lineNo := 0
	err := c.storage.ReadLines(ctx, func(line string) error {
		lineNo++
		if lineNo == 1 || line == "" {
			return nil
		}

		p, issues, err := DecodeLine(lineNo, line)
		if err != nil {
			report.Skipped++
			report.Issues = append(report.Issues, err)
			c.metrics.diagnostic(kindLine)
			c.log.Warn("skipping malformed line", zap.Error(err))
			return nil
		}
		c.ReportIssues(p.SKU, issues)
		report.Issues = append(report.Issues, issues...)

		c.insert(p)
		report.Loaded++
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("load catalog: %w", err)
	}

	c.log.Info("catalog loaded",
		zap.Int("loaded", report.Loaded),
		zap.Int("skipped", report.Skipped),
		zap.Int("records", len(c.records)),
	)
	return report, nil
}
