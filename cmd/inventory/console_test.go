package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"Inventory/internal/catalog"
)

func runConsole(t *testing.T, file string, input ...string) (string, *catalog.Catalog) {
	t.Helper()

	c := catalog.New(catalog.Deps{Storage: catalog.NewFileStorage(file), Log: zap.NewNop()})
	var out strings.Builder
	con := newConsole(c, strings.NewReader(strings.Join(input, "\n")+"\n"), &out, file)
	if err := con.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String(), c
}

func TestConsole_AddEditFind(t *testing.T) {
	file := filepath.Join(t.TempDir(), "inventory.csv")

	out, c := runConsole(t, file,
		"2", "002", "Gym Set", "Breathable", "m:10",
		"2", "001", "Padel Shorts", "Comfort fit", "xs:5|bad",
		"3", "001", "", "xs:7",
		"6", "001",
		"7", "Gym Set",
		"7", "Nope",
		"4",
		"8",
	)

	if !strings.Contains(out, "Ignored: ") {
		t.Errorf("missing size diagnostic:\n%s", out)
	}
	if !strings.Contains(out, "Found: SKU: 001, Name: Padel Shorts, Description: Comfort fit, Sizes: xs:7") {
		t.Errorf("edit kept description or lost sizes:\n%s", out)
	}
	if !strings.Contains(out, "Found: SKU: 002") || !strings.Contains(out, "No product named 'Nope'.") {
		t.Errorf("find by name:\n%s", out)
	}
	if i, j := strings.Index(out, "SKU: 001, Name"), strings.LastIndex(out, "SKU: 002, Name"); i < 0 || j < i {
		t.Errorf("list not in sku order:\n%s", out)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	want := catalog.Header + "\n001,Padel Shorts,Comfort fit,xs:7\n002,Gym Set,Breathable,m:10\n"
	if string(raw) != want {
		t.Errorf("file = %q, want %q", raw, want)
	}
}

func TestConsole_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "stock.csv")
	body := catalog.Header + "\n003,Gym Gloves,High intensity,m:18\nbroken line\n"
	if err := os.WriteFile(file, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	out, c := runConsole(t, filepath.Join(dir, "other.csv"), "1", file, "5", "8")

	if !strings.Contains(out, "Loaded 1 products (1 lines skipped") {
		t.Errorf("load summary:\n%s", out)
	}
	if _, ok := c.FindByName("Gym Gloves"); !ok {
		t.Error("loaded record not indexed by name")
	}
}

func TestConsole_EditUnknownAndBadOption(t *testing.T) {
	out, _ := runConsole(t, filepath.Join(t.TempDir(), "x.csv"), "9", "3", "404", "5")

	if !strings.Contains(out, "Unknown option") || !strings.Contains(out, "Product not found.") {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, "Inventory is empty.") {
		t.Errorf("empty list:\n%s", out)
	}
}

func TestConsole_RejectsReservedCharacters(t *testing.T) {
	file := filepath.Join(t.TempDir(), "inventory.csv")

	out, c := runConsole(t, file,
		"2", "0,1", "Shorts", "fit", "xs:5",
		"2", "001", "Shorts", "fit", "xs:5|x,l:2",
		"2", "001", "Shorts", "fit", "xs:5",
		"3", "001", "", "m,l:1",
		"8",
	)

	if n := strings.Count(out, "Rejected, nothing changed: "); n != 3 {
		t.Fatalf("rejections = %d, want 3:\n%s", n, out)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if want := catalog.Header + "\n001,Shorts,fit,xs:5\n"; string(raw) != want {
		t.Fatalf("file = %q, want %q", raw, want)
	}
}
