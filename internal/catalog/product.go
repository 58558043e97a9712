package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"
	"strings"
)

const (
	sizeEntrySep = "|"
	sizeQtySep   = ":"
)

var (
	ErrMissingSeparator = errors.New("expected label:quantity")
	ErrBadQuantity      = errors.New("quantity is not an integer")
	ErrFieldCount       = errors.New("expected 4 comma separated fields")
)

// ParseError describes one malformed size entry or persisted line. It is a
// diagnostic: the caller skips the offending input and carries on.
type ParseError struct {
	Line  int // 1-based line in the backing store, 0 when not read from storage
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %q: %v", e.Line, e.Input, e.Err)
	}
	return fmt.Sprintf("%q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Sizes maps a size label to a quantity and remembers the order in which
// labels were first set. The zero value is an empty mapping.
type Sizes struct {
	labels []string
	qty    map[string]int
}

// ParseSizes reads "xs:5|s:10". Malformed entries are dropped and reported,
// one error per entry; empty entries are ignored.
func ParseSizes(text string) (Sizes, []error) {
	var (
		s      Sizes
		issues []error
	)

	for _, entry := range strings.Split(text, sizeEntrySep) {
		if strings.TrimSpace(entry) == "" {
			continue
		}

		parts := strings.Split(entry, sizeQtySep)
		if len(parts) != 2 {
			issues = append(issues, &ParseError{Input: entry, Err: ErrMissingSeparator})
			continue
		}

		qty, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			issues = append(issues, &ParseError{Input: entry, Err: ErrBadQuantity})
			continue
		}

		s.Set(strings.TrimSpace(parts[0]), qty)
	}

	return s, issues
}

// Set upserts a single entry. Quantities are stored as given, negative
// values included.
func (s *Sizes) Set(label string, qty int) {
	if s.qty == nil {
		s.qty = make(map[string]int)
	}
	if _, ok := s.qty[label]; !ok {
		s.labels = append(s.labels, label)
	}
	s.qty[label] = qty
}

func (s Sizes) Get(label string) (int, bool) {
	q, ok := s.qty[label]
	return q, ok
}

func (s Sizes) Len() int { return len(s.labels) }

func (s Sizes) All() iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		for _, l := range s.labels {
			if !yield(l, s.qty[l]) {
				return
			}
		}
	}
}

// Total is the sum of all quantities.
func (s Sizes) Total() int {
	n := 0
	for _, q := range s.qty {
		n += q
	}
	return n
}

func (s Sizes) Clone() Sizes {
	return Sizes{labels: slices.Clone(s.labels), qty: maps.Clone(s.qty)}
}

// Equal compares content only; label order is ignored.
func (s Sizes) Equal(o Sizes) bool {
	return maps.Equal(s.qty, o.qty)
}

// String renders the persisted form "xs:5|s:10" in label order.
func (s Sizes) String() string {
	var b strings.Builder
	for l, q := range s.All() {
		if b.Len() > 0 {
			b.WriteString(sizeEntrySep)
		}
		b.WriteString(l)
		b.WriteString(sizeQtySep)
		b.WriteString(strconv.Itoa(q))
	}
	return b.String()
}

type sizeJSON struct {
	Size string `json:"size"`
	Qty  int    `json:"qty"`
}

func (s Sizes) MarshalJSON() ([]byte, error) {
	out := make([]sizeJSON, 0, s.Len())
	for l, q := range s.All() {
		out = append(out, sizeJSON{Size: l, Qty: q})
	}
	return json.Marshal(out)
}

func (s *Sizes) UnmarshalJSON(b []byte) error {
	var in []sizeJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*s = Sizes{}
	for _, e := range in {
		s.Set(e.Size, e.Qty)
	}
	return nil
}

// Product is one catalog record. SKU and Name are fixed once the record is
// in a Catalog; Description and Sizes change through Catalog.Edit.
type Product struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Sizes       Sizes  `json:"sizes"`
}

// NewProduct builds a record from the four raw fields. Size diagnostics are
// returned alongside a record that holds every well-formed entry.
func NewProduct(sku, name, description, sizes string) (*Product, []error) {
	parsed, issues := ParseSizes(sizes)
	return &Product{
		SKU:         sku,
		Name:        name,
		Description: description,
		Sizes:       parsed,
	}, issues
}

func (p *Product) SetDescription(text string) { p.Description = text }

func (p *Product) ReplaceSizes(s Sizes) { p.Sizes = s.Clone() }

func (p *Product) SetSizeQuantity(label string, qty int) { p.Sizes.Set(label, qty) }

func (p *Product) Clone() *Product {
	cp := *p
	cp.Sizes = p.Sizes.Clone()
	return &cp
}

func (p *Product) String() string {
	return fmt.Sprintf("SKU: %s, Name: %s, Description: %s, Sizes: %s, Total: %d",
		p.SKU, p.Name, p.Description, p.Sizes, p.Sizes.Total())
}
