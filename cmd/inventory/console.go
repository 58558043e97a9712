package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"Inventory/internal/catalog"
)

const menu = `
=== Inventory ===
1. Load inventory from file
2. Add product
3. Edit product
4. List products by SKU
5. List products by name
6. Find product by SKU
7. Find product by name
8. Exit
Choose an option: `

// console drives a Catalog from line oriented input.
type console struct {
	cat  *catalog.Catalog
	in   *bufio.Scanner
	out  io.Writer
	file string
}

func newConsole(c *catalog.Catalog, in io.Reader, out io.Writer, file string) *console {
	return &console{cat: c, in: bufio.NewScanner(in), out: out, file: file}
}

var errEOF = errors.New("input closed")

func (c *console) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		choice, err := c.prompt(menu)
		if errors.Is(err, errEOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.TrimSpace(choice) {
		case "1":
			err = c.load(ctx)
		case "2":
			err = c.add(ctx)
		case "3":
			err = c.edit(ctx)
		case "4":
			c.list(c.cat.BySKU())
		case "5":
			c.list(c.cat.ByName())
		case "6":
			err = c.findBySKU()
		case "7":
			err = c.findByName()
		case "8":
			c.println("Bye.")
			return nil
		default:
			c.println("Unknown option, try again.")
		}

		if errors.Is(err, errEOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *console) load(ctx context.Context) error {
	path, err := c.prompt(fmt.Sprintf("File to load [%s]: ", c.file))
	if err != nil {
		return err
	}
	if path = strings.TrimSpace(path); path != "" {
		c.file = path
	}

	c.cat.UseStorage(catalog.NewFileStorage(c.file))
	report, err := c.cat.Load(ctx)
	if err != nil {
		c.println("Could not load " + c.file + ": " + err.Error())
		return nil
	}
	c.printf("Loaded %d products (%d lines skipped, %d problems).\n", report.Loaded, report.Skipped, len(report.Issues))
	return nil
}

func (c *console) add(ctx context.Context) error {
	answers, err := c.prompts("SKU: ", "Name: ", "Description: ", "Sizes (e.g. xs:10|s:15): ")
	if err != nil {
		return err
	}
	sku, name := strings.TrimSpace(answers[0]), strings.TrimSpace(answers[1])
	if sku == "" || name == "" {
		c.println("SKU and name are required.")
		return nil
	}

	p, issues := catalog.NewProduct(sku, name, answers[2], answers[3])
	c.issues(sku, issues)
	if err := c.cat.Add(ctx, p); err != nil {
		c.writeFailed(err)
		return nil
	}
	c.println("Product added.")
	return nil
}

func (c *console) edit(ctx context.Context) error {
	sku, err := c.prompt("SKU to edit: ")
	if err != nil {
		return err
	}
	sku = strings.TrimSpace(sku)

	cur, ok := c.cat.FindBySKU(sku)
	if !ok {
		c.println("Product not found.")
		return nil
	}

	answers, err := c.prompts(
		"New description (blank keeps current): ",
		"New sizes, e.g. xs:5|s:10 (blank keeps current): ",
	)
	if err != nil {
		return err
	}

	desc, sizes := cur.Description, cur.Sizes
	if answers[0] != "" {
		desc = answers[0]
	}
	if strings.TrimSpace(answers[1]) != "" {
		var issues []error
		sizes, issues = catalog.ParseSizes(answers[1])
		c.issues(sku, issues)
	}

	if _, err := c.cat.Edit(ctx, sku, desc, sizes); err != nil {
		c.writeFailed(err)
		return nil
	}
	c.println("Product updated.")
	return nil
}

func (c *console) findBySKU() error {
	sku, err := c.prompt("SKU to find: ")
	if err != nil {
		return err
	}
	sku = strings.TrimSpace(sku)
	if p, ok := c.cat.FindBySKU(sku); ok {
		c.println("Found: " + p.String())
		return nil
	}
	c.println("No product with SKU " + sku + ".")
	return nil
}

func (c *console) findByName() error {
	name, err := c.prompt("Name to find: ")
	if err != nil {
		return err
	}
	if p, ok := c.cat.FindByName(name); ok {
		c.println("Found: " + p.String())
		return nil
	}
	c.println("No product named '" + name + "'.")
	return nil
}

func (c *console) list(products iter.Seq[*catalog.Product]) {
	n := 0
	for p := range products {
		c.println(p.String())
		n++
	}
	if n == 0 {
		c.println("Inventory is empty.")
	}
}

func (c *console) issues(sku string, errs []error) {
	c.cat.ReportIssues(sku, errs)
	for _, e := range errs {
		c.println("Ignored: " + e.Error())
	}
}

func (c *console) writeFailed(err error) {
	if errors.Is(err, catalog.ErrReservedChar) {
		c.println("Rejected, nothing changed: " + err.Error())
		return
	}
	c.println("Product kept in memory but not saved: " + err.Error())
}

func (c *console) prompt(label string) (string, error) {
	_, _ = io.WriteString(c.out, label)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", errEOF
	}
	return c.in.Text(), nil
}

func (c *console) prompts(labels ...string) ([]string, error) {
	out := make([]string, len(labels))
	for i, l := range labels {
		v, err := c.prompt(l)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *console) println(s string) { _, _ = fmt.Fprintln(c.out, s) }

func (c *console) printf(format string, args ...any) { _, _ = fmt.Fprintf(c.out, format, args...) }
