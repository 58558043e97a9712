package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReservedChar marks a value that would be split apart by the line codec.
var ErrReservedChar = errors.New("contains a reserved character")

const (
	// SKUs and size labels may not hold any codec separator.
	keyReserved = fieldSep + sizeEntrySep + sizeQtySep + "\r\n"
	// Names and descriptions only lose their line break. Commas in them are
	// written as is and do not survive a reload.
	textReserved = "\r\n"
)

type FieldError struct {
	Field string
	Value string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, ErrReservedChar)
}

func (e *FieldError) Unwrap() error { return ErrReservedChar }

// Validate reports the first field of p that cannot be persisted.
func (p *Product) Validate() error {
	if err := checkField("sku", p.SKU, keyReserved); err != nil {
		return err
	}
	if err := checkField("name", p.Name, textReserved); err != nil {
		return err
	}
	if err := checkField("description", p.Description, textReserved); err != nil {
		return err
	}
	return p.Sizes.Validate()
}

// Validate reports the first size label that cannot be persisted.
func (s Sizes) Validate() error {
	for _, label := range s.labels {
		if err := ValidateSizeLabel(label); err != nil {
			return err
		}
	}
	return nil
}

func ValidateSizeLabel(label string) error {
	return checkField("size label", label, keyReserved)
}

func checkField(field, value, reserved string) error {
	if strings.ContainsAny(value, reserved) {
		return &FieldError{Field: field, Value: value}
	}
	return nil
}
