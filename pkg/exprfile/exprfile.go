// Package exprfile reads expression trees and their input rows from YAML.
//
// A file names its local slots, gives one expression and lists the rows the
// expression is evaluated over:
//
//	locals: [x, y]
//	expr:
//	  "+": [{local: x}, {local: y}]
//	rows:
//	  - [1, 2]
//	  - ["a", !bigint 3]
//	expect: [3, "a3"]
//
// Expressions are single-key maps: {local: name}, {const: value}, an operator
// symbol mapped to its two operands, or one of firstIndex, lastIndex, nextIndex
// and previousIndex mapped to [object, (index,) length]. Any other node is a
// constant. Sequences decode to arrays and maps to plain objects; tags cover the
// values YAML cannot spell, see decodeTagged.
package exprfile

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"golang.org/x/xerrors"

	"strata/pkg/dispatch"
	"strata/pkg/engine"
	"strata/pkg/errors"
	"strata/pkg/objects"
	"strata/pkg/ops"
	"strata/pkg/source"
	"strata/pkg/value"
)

// File is a decoded expression file.
type File struct {
	Source  *source.SourceFile
	Locals  []string
	Program ops.Node
	Rows    []*ops.Frame
	// Expect holds the expected result of every row; nil when not given.
	Expect []value.Value
}

type document struct {
	Locals []string `yaml:"locals"`
	Expr   ast.Node `yaml:"expr"`
	Rows   ast.Node `yaml:"rows"`
	Expect ast.Node `yaml:"expect"`
}

// Load reads and decodes the expression file at path.
func Load(path string, e *engine.Engine) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("loading expression file: %w", err)
	}
	return Parse(source.FromFile(path, string(data)), e)
}

// Parse decodes src, building the program with the engine's builder and the
// row values in the engine's object model.
func Parse(src *source.SourceFile, e *engine.Engine) (*File, error) {
	var doc document
	if err := yaml.UnmarshalWithOptions([]byte(src.Content), &doc, yaml.DisallowUnknownField()); err != nil {
		return nil, xerrors.Errorf("%s: %w", src.DisplayPath(), err)
	}
	if doc.Expr == nil {
		return nil, errors.NewSyntaxError(errors.Position{Line: 1, Column: 1, Source: src}, "missing expr")
	}

	d := &decoder{
		src:     src,
		builder: e.Builder(),
		model:   e.Model(),
		sites:   e.Sites(),
		locals:  make(map[string]int, len(doc.Locals)),
	}
	for i, name := range doc.Locals {
		if _, dup := d.locals[name]; dup {
			return nil, errors.NewSyntaxError(errors.Position{Line: 1, Column: 1, Source: src}, "duplicate local %q", name)
		}
		d.locals[name] = i
	}

	program, err := d.decodeExpr(doc.Expr)
	if err != nil {
		return nil, err
	}
	rows, err := d.decodeRows(doc.Rows, len(doc.Locals))
	if err != nil {
		return nil, err
	}
	f := &File{Source: src, Locals: doc.Locals, Program: program, Rows: rows}

	if doc.Expect != nil {
		expect, err := d.list(doc.Expect)
		if err != nil {
			return nil, err
		}
		if len(expect) != len(rows) {
			return nil, d.errorf(doc.Expect, "expected %d results, got %d", len(rows), len(expect))
		}
		f.Expect = make([]value.Value, len(expect))
		for i, node := range expect {
			if f.Expect[i], err = d.decodeValue(node); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

type decoder struct {
	src     *source.SourceFile
	builder *ops.Builder
	model   *objects.Model
	sites   *dispatch.Table
	locals  map[string]int
}

func (d *decoder) position(node ast.Node) errors.Position {
	if node == nil {
		return errors.Position{Source: d.src}
	}
	tk := node.GetToken()
	if tk == nil || tk.Position == nil {
		return errors.Position{Source: d.src}
	}
	return errors.Position{Line: tk.Position.Line, Column: tk.Position.Column, Source: d.src}
}

func (d *decoder) errorf(node ast.Node, format string, args ...any) error {
	return errors.NewSyntaxError(d.position(node), format, args...)
}

func (d *decoder) list(node ast.Node) ([]ast.Node, error) {
	seq, ok := node.(*ast.SequenceNode)
	if !ok {
		if node == nil {
			return nil, d.errorf(node, "expected a list")
		}
		return nil, d.errorf(node, "expected a list, got %s", node.Type())
	}
	return seq.Values, nil
}

// singleKey splits a one-entry map into its key and value.
func (d *decoder) singleKey(node ast.Node) (string, ast.Node, bool) {
	var pair *ast.MappingValueNode
	switch n := node.(type) {
	case *ast.MappingNode:
		if len(n.Values) != 1 {
			return "", nil, false
		}
		pair = n.Values[0]
	case *ast.MappingValueNode:
		pair = n
	default:
		return "", nil, false
	}
	return keyText(pair.Key), pair.Value, true
}

// keyText returns the text of a map key without quotes.
func keyText(key ast.MapKeyNode) string {
	if s, ok := key.(*ast.StringNode); ok {
		return s.Value
	}
	return key.GetToken().Value
}

func (d *decoder) decodeRows(node ast.Node, width int) ([]*ops.Frame, error) {
	if node == nil {
		return []*ops.Frame{ops.NewFrame()}, nil
	}
	rows, err := d.list(node)
	if err != nil {
		return nil, err
	}
	frames := make([]*ops.Frame, len(rows))
	for i, row := range rows {
		cells, err := d.list(row)
		if err != nil {
			return nil, err
		}
		if len(cells) > width {
			return nil, d.errorf(row, "row has %d values for %d locals", len(cells), width)
		}
		locals := make([]value.Value, width)
		for j := range locals {
			locals[j] = value.Undefined
		}
		for j, cell := range cells {
			if locals[j], err = d.decodeValue(cell); err != nil {
				return nil, err
			}
		}
		frames[i] = ops.NewFrame(locals...)
	}
	return frames, nil
}
