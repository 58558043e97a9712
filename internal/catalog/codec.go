package catalog

import "strings"

// Header is the first line of every persisted catalog. It is skipped on load.
const Header = "SKU,Name,Description,Sizes"

const fieldSep = ","

// EncodeLine renders one record. Commas inside a field are not escaped, so a
// name or description containing one will not survive a reload.
func EncodeLine(p *Product) string {
	return strings.Join([]string{p.SKU, p.Name, p.Description, p.Sizes.String()}, fieldSep)
}

// DecodeLine parses one persisted line. A line that does not split into
// exactly four fields yields a *ParseError and no record; size diagnostics
// come back in issues next to a usable record.
func DecodeLine(lineNo int, line string) (p *Product, issues []error, err error) {
	fields := strings.Split(line, fieldSep)
	if len(fields) != 4 {
		return nil, nil, &ParseError{Line: lineNo, Input: line, Err: ErrFieldCount}
	}

	p, issues = NewProduct(fields[0], fields[1], fields[2], fields[3])
	for _, is := range issues {
		if pe, ok := is.(*ParseError); ok {
			pe.Line = lineNo
		}
	}
	return p, issues, nil
}
