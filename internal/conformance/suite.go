// Package conformance runs data-driven function cases against the
// built-in functions. Cases live in YAML files that describe worksheet
// contents, defined names and the calls to check.
package conformance

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vogtb/go-spreadsheet/packages/formulas"
)

// Suite is one case file
type Suite struct {
	Name   string            `yaml:"name"`
	Sheets Sheets            `yaml:"sheets"`
	Names  map[string]string `yaml:"names"`
	Cases  []Case            `yaml:"cases"`

	Path string `yaml:"-"`
}

// Case is a single function call and its expected outcome. exactly one of
// Expect, ExpectError and ExpectExpr must be set unless the case is
// skipped.
type Case struct {
	Name        string  `yaml:"name"`
	Function    string  `yaml:"function"`
	Args        []Arg   `yaml:"args"`
	Expect      *Value  `yaml:"expect"`
	ExpectError string  `yaml:"expect_error"`
	ExpectExpr  string  `yaml:"expect_expr"`
	Tolerance   float64 `yaml:"tolerance"`
	Skip        string  `yaml:"skip"`
}

// Sheets keeps worksheets in file order; the first one is the target of
// unqualified references
type Sheets []Sheet

// Sheet is a named worksheet and its cell assignments
type Sheet struct {
	Name  string
	Cells []CellAssignment
}

// CellAssignment sets one cell ("A1": 3) or fills a range row by row
// ("A1:A3": [1, 2, 3])
type CellAssignment struct {
	Address string
	Values  []Value
}

func (s *Sheets) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: sheets must be a mapping of sheet name to cells", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		sheet := Sheet{Name: node.Content[i].Value}
		cells := node.Content[i+1]
		if cells.Kind == yaml.ScalarNode && cells.ShortTag() == "!!null" {
			*s = append(*s, sheet)
			continue
		}
		if cells.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: sheet %q must be a mapping of address to value", cells.Line, sheet.Name)
		}
		for j := 0; j+1 < len(cells.Content); j += 2 {
			assignment := CellAssignment{Address: cells.Content[j].Value}
			valueNode := cells.Content[j+1]
			if valueNode.Kind == yaml.SequenceNode {
				if err := valueNode.Decode(&assignment.Values); err != nil {
					return err
				}
			} else {
				var v Value
				if err := valueNode.Decode(&v); err != nil {
					return err
				}
				assignment.Values = []Value{v}
			}
			sheet.Cells = append(sheet.Cells, assignment)
		}
		*s = append(*s, sheet)
	}
	return nil
}

// Value is a cell value or expected result: a number, text, boolean,
// null for blank, or {error: "#N/A"}
type Value struct {
	V formulas.Primitive
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		p, err := decodeScalar(node)
		if err != nil {
			return err
		}
		v.V = p
		return nil
	case yaml.MappingNode:
		var m struct {
			Error string `yaml:"error"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		code, ok := formulas.ParseErrorCode(m.Error)
		if !ok {
			return fmt.Errorf("line %d: unknown error value %q", node.Line, m.Error)
		}
		v.V = formulas.NewSpreadsheetError(code, "")
		return nil
	default:
		return fmt.Errorf("line %d: unsupported value", node.Line)
	}
}

// Arg is one call argument. scalars are passed as literals; mappings
// select a reference, an inline range, an error value or a blank.
type Arg struct {
	Value  formulas.Primitive
	Ref    string
	Values []Value
	inline bool
}

func (a *Arg) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		p, err := decodeScalar(node)
		if err != nil {
			return err
		}
		a.Value = p
		return nil
	case yaml.SequenceNode:
		a.inline = true
		return node.Decode(&a.Values)
	case yaml.MappingNode:
		var m struct {
			Ref    string  `yaml:"ref"`
			Error  string  `yaml:"error"`
			Blank  bool    `yaml:"blank"`
			Values []Value `yaml:"values"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		switch {
		case m.Ref != "":
			a.Ref = m.Ref
		case m.Error != "":
			code, ok := formulas.ParseErrorCode(m.Error)
			if !ok {
				return fmt.Errorf("line %d: unknown error value %q", node.Line, m.Error)
			}
			a.Value = formulas.NewSpreadsheetError(code, "")
		case m.Values != nil:
			a.inline = true
			a.Values = m.Values
		case m.Blank:
			a.Value = nil
		default:
			return fmt.Errorf("line %d: argument needs one of ref, error, values or blank", node.Line)
		}
		return nil
	default:
		return fmt.Errorf("line %d: unsupported argument", node.Line)
	}
}

// resolve converts the argument into what the evaluator accepts
func (a Arg) resolve(wb *formulas.Workbook) (any, error) {
	switch {
	case a.Ref != "":
		addr, err := wb.Resolve(a.Ref)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", a.Ref, err)
		}
		return addr, nil
	case a.inline:
		values := make([]formulas.Primitive, len(a.Values))
		for i, v := range a.Values {
			values[i] = v.V
		}
		return formulas.NewValueRange(values...), nil
	default:
		return a.Value, nil
	}
}

func (a Arg) String() string {
	switch {
	case a.Ref != "":
		return a.Ref
	case a.inline:
		parts := make([]string, len(a.Values))
		for i, v := range a.Values {
			parts[i] = displayValue(v.V)
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return displayValue(a.Value)
	}
}

func decodeScalar(node *yaml.Node) (formulas.Primitive, error) {
	switch node.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		err := node.Decode(&b)
		return b, err
	case "!!int", "!!float":
		var f float64
		err := node.Decode(&f)
		return f, err
	default:
		return node.Value, nil
	}
}

// Load reads and validates a case file
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}

	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	suite.Path = path
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := suite.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &suite, nil
}

// LoadAll loads every path. directories contribute their *.yaml and *.yml
// files in name order.
func LoadAll(paths ...string) ([]*Suite, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat case path: %w", err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read case directory: %w", err)
		}
		for _, entry := range entries {
			ext := filepath.Ext(entry.Name())
			if !entry.IsDir() && (ext == ".yaml" || ext == ".yml") {
				files = append(files, filepath.Join(path, entry.Name()))
			}
		}
	}
	slices.Sort(files)
	files = slices.Compact(files)

	suites := make([]*Suite, 0, len(files))
	for _, file := range files {
		suite, err := Load(file)
		if err != nil {
			return nil, err
		}
		suites = append(suites, suite)
	}
	return suites, nil
}

// Validate checks that every case names a function and a single
// expectation
func (s *Suite) Validate() error {
	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		label := c.Name
		if label == "" {
			label = fmt.Sprintf("case %d", i+1)
		}
		if seen[label] {
			return fmt.Errorf("duplicate case name %q", label)
		}
		seen[label] = true

		if strings.TrimSpace(c.Function) == "" {
			return fmt.Errorf("%s: function is required", label)
		}
		if c.Tolerance < 0 {
			return fmt.Errorf("%s: tolerance cannot be negative", label)
		}
		if c.ExpectError != "" {
			if _, ok := formulas.ParseErrorCode(c.ExpectError); !ok {
				return fmt.Errorf("%s: unknown expect_error %q", label, c.ExpectError)
			}
		}
		expectations := 0
		for _, set := range []bool{c.Expect != nil, c.ExpectError != "", c.ExpectExpr != ""} {
			if set {
				expectations++
			}
		}
		if expectations != 1 && c.Skip == "" {
			return fmt.Errorf("%s: exactly one of expect, expect_error or expect_expr is required", label)
		}
	}
	return nil
}

// Workbook builds the worksheet snapshot the cases run against. a suite
// without sheets gets an empty Sheet1.
func (s *Suite) Workbook() (*formulas.Workbook, error) {
	wb := formulas.NewWorkbook()
	sheets := s.Sheets
	if len(sheets) == 0 {
		sheets = Sheets{{Name: "Sheet1"}}
	}

	for _, sheet := range sheets {
		ws, err := wb.AddWorksheet(sheet.Name)
		if err != nil {
			return nil, err
		}
		for _, cell := range sheet.Cells {
			if err := assign(ws, cell); err != nil {
				return nil, fmt.Errorf("sheet %s: %w", sheet.Name, err)
			}
		}
	}

	for name, reference := range s.Names {
		if err := wb.DefineName(name, reference); err != nil {
			return nil, fmt.Errorf("name %s: %w", name, err)
		}
	}
	return wb, nil
}

func assign(ws *formulas.Worksheet, cell CellAssignment) error {
	ref, err := formulas.ParseReference(cell.Address)
	if err != nil {
		return err
	}
	if ref.Sheet != "" {
		return fmt.Errorf("%s: cell addresses cannot name a sheet", cell.Address)
	}

	rows := ref.EndRow - ref.StartRow + 1
	cols := ref.EndCol - ref.StartCol + 1
	if uint64(rows)*uint64(cols) != uint64(len(cell.Values)) {
		return fmt.Errorf("%s: range holds %d cells but %d values were given", cell.Address, rows*cols, len(cell.Values))
	}

	i := 0
	for row := ref.StartRow; row <= ref.EndRow; row++ {
		for col := ref.StartCol; col <= ref.EndCol; col++ {
			if err := ws.SetCell(row, col, cell.Values[i].V); err != nil {
				return err
			}
			i++
		}
	}
	return nil
}
