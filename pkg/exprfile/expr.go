package exprfile

import (
	"math"

	"github.com/goccy/go-yaml/ast"

	"strata/pkg/arrayindex"
	"strata/pkg/convert"
	"strata/pkg/errors"
	"strata/pkg/ops"
	"strata/pkg/value"
)

var indexQueries = map[string]arrayindex.Direction{
	"firstIndex":    arrayindex.First,
	"lastIndex":     arrayindex.Last,
	"nextIndex":     arrayindex.Next,
	"previousIndex": arrayindex.Previous,
}

func (d *decoder) decodeExpr(node ast.Node) (ops.Node, error) {
	key, operand, ok := d.singleKey(node)
	if !ok {
		v, err := d.decodeValue(node)
		if err != nil {
			return nil, err
		}
		return d.builder.Constant(v), nil
	}

	switch key {
	case "local":
		name := scalarText(operand)
		index, ok := d.locals[name]
		if !ok {
			return nil, d.errorf(operand, "unknown local %q", name)
		}
		return d.builder.Local(index, name), nil
	case "const":
		v, err := d.decodeValue(operand)
		if err != nil {
			return nil, err
		}
		return d.builder.Constant(v), nil
	}

	if dir, ok := indexQueries[key]; ok {
		return d.decodeIndexQuery(node, dir, operand)
	}

	k, ok := ops.ParseKind(key)
	if !ok {
		// a one-entry object literal
		v, err := d.decodeValue(node)
		if err != nil {
			return nil, err
		}
		return d.builder.Constant(v), nil
	}
	operands, err := d.list(operand)
	if err != nil {
		return nil, err
	}
	if len(operands) != 2 {
		return nil, d.errorf(operand, "operator %s takes 2 operands, got %d", k, len(operands))
	}
	left, err := d.decodeExpr(operands[0])
	if err != nil {
		return nil, err
	}
	right, err := d.decodeExpr(operands[1])
	if err != nil {
		return nil, err
	}
	return d.builder.Binary(k, left, right, d.position(node)), nil
}

func (d *decoder) decodeIndexQuery(node ast.Node, dir arrayindex.Direction, operand ast.Node) (ops.Node, error) {
	args, err := d.list(operand)
	if err != nil {
		return nil, err
	}
	want := 2
	if dir == arrayindex.Next || dir == arrayindex.Previous {
		want = 3
	}
	if len(args) != want {
		return nil, d.errorf(operand, "%sIndex takes %d operands, got %d", dir, want, len(args))
	}
	nodes := make([]ops.Node, len(args))
	for i, arg := range args {
		if nodes[i], err = d.decodeExpr(arg); err != nil {
			return nil, err
		}
	}
	q := &indexQuery{
		query:  arrayindex.New(dir, d.sites),
		object: nodes[0],
		length: nodes[len(nodes)-1],
		pos:    d.position(node),
	}
	if want == 3 {
		q.index = nodes[1]
	}
	return q, nil
}

// indexQuery evaluates an index query as an expression. The result is the
// index, or the query's not-found sentinel.
type indexQuery struct {
	query  *arrayindex.Node
	object ops.Node
	index  ops.Node
	length ops.Node
	pos    errors.Position
}

func (q *indexQuery) Execute(r *ops.Realm, f *ops.Frame) (value.Value, error) {
	obj, err := q.object.Execute(r, f)
	if err != nil {
		return value.Undefined, err
	}
	if !obj.IsObject() {
		return value.Undefined, errors.At(errors.NewTypeError("%s is not an object", obj.Inspect()), q.pos)
	}
	var index int64
	if q.index != nil {
		if index, err = q.integer(r, f, q.index); err != nil {
			return value.Undefined, err
		}
	}
	length, err := q.integer(r, f, q.length)
	if err != nil {
		return value.Undefined, err
	}
	isArray := r.Model.ArrayTag(obj.AsObject()).IsArrayLike()
	res, err := q.query.Execute(r.Model, obj.AsObject(), index, length, isArray)
	if err != nil {
		return value.Undefined, errors.At(err, q.pos)
	}
	return value.Integer(res), nil
}

func (q *indexQuery) integer(r *ops.Realm, f *ops.Frame, n ops.Node) (int64, error) {
	v, err := n.Execute(r, f)
	if err != nil {
		return 0, err
	}
	x, err := convert.ToFloat64(r.Model, v)
	if err != nil {
		return 0, errors.At(err, q.pos)
	}
	switch {
	case math.IsNaN(x):
		return 0, nil
	case x > value.MaxSafeInteger:
		return value.MaxSafeInteger, nil
	case x < -value.MaxSafeInteger:
		return -value.MaxSafeInteger, nil
	}
	return int64(x), nil
}
