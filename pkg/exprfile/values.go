package exprfile

import (
	"strings"

	"github.com/goccy/go-yaml/ast"

	"strata/pkg/errors"
	"strata/pkg/objects"
	"strata/pkg/value"
)

var (
	keyValueOf     = value.NewStringKey("valueOf")
	keyToString    = value.NewStringKey("toString")
	keyLength      = value.NewStringKey("length")
	keyToPrimitive = value.NewSymbolKey(value.SymbolToPrimitive)
)

// scalarText returns the source text of a scalar node.
func scalarText(node ast.Node) string {
	switch n := node.(type) {
	case nil:
		return ""
	case *ast.StringNode:
		return n.Value
	case *ast.LiteralNode:
		return n.Value.Value
	}
	return node.GetToken().Value
}

func (d *decoder) decodeValue(node ast.Node) (value.Value, error) {
	switch n := node.(type) {
	case nil, *ast.NullNode:
		return value.Null, nil
	case *ast.BoolNode:
		return value.Boolean(n.Value), nil
	case *ast.IntegerNode:
		switch i := n.Value.(type) {
		case int64:
			return value.Integer(i), nil
		case uint64:
			return value.Number(float64(i)), nil
		case int:
			return value.Integer(int64(i)), nil
		}
		return value.StringToNumber(n.GetToken().Value), nil
	case *ast.FloatNode:
		return value.Number(n.Value), nil
	case *ast.InfinityNode:
		return value.Number(n.Value), nil
	case *ast.NanNode:
		return value.NaN, nil
	case *ast.StringNode, *ast.LiteralNode:
		return value.NewString(scalarText(n)), nil
	case *ast.SequenceNode:
		elements := make([]value.Value, len(n.Values))
		for i, item := range n.Values {
			v, err := d.decodeValue(item)
			if err != nil {
				return value.Undefined, err
			}
			elements[i] = v
		}
		return value.NewObject(d.model.NewArray(elements...)), nil
	case *ast.MappingNode:
		obj := d.model.NewObject()
		if err := d.assign(obj, n.Values); err != nil {
			return value.Undefined, err
		}
		return value.NewObject(obj), nil
	case *ast.MappingValueNode:
		obj := d.model.NewObject()
		if err := d.assign(obj, []*ast.MappingValueNode{n}); err != nil {
			return value.Undefined, err
		}
		return value.NewObject(obj), nil
	case *ast.TagNode:
		return d.decodeTagged(n)
	case *ast.AnchorNode:
		return d.decodeValue(n.Value)
	}
	return value.Undefined, d.errorf(node, "unsupported value %s", node.Type())
}

// assign stores every pair as a property of obj.
func (d *decoder) assign(obj value.Object, pairs []*ast.MappingValueNode) error {
	for _, pair := range pairs {
		v, err := d.decodeValue(pair.Value)
		if err != nil {
			return err
		}
		key := keyText(pair.Key)
		pk := value.NewStringKey(key)
		if index, ok := value.ParseArrayIndex(key); ok {
			pk = value.NewIndexKey(index)
		}
		if err := d.model.Set(obj, pk, v); err != nil {
			return errors.At(err, d.position(pair))
		}
	}
	return nil
}

// decodeTagged decodes the values plain YAML cannot spell:
//
//	!undefined, !hole           the undefined value and an array hole
//	!bigint 123                 a BigInt
//	!number -0                  a Number parsed with ToNumber, e.g. -0, NaN or 0x10
//	!symbol desc                a fresh Symbol
//	!valueOf v, !toString v     an object whose method returns v
//	!toPrimitive v              an object whose @@toPrimitive returns v
//	!throws message             an object whose valueOf throws a TypeError
//	!array {length: n, 3: v}    an array with the given length and elements
//	!Int32Array [1, 2]          a typed array of any kind
func (d *decoder) decodeTagged(n *ast.TagNode) (value.Value, error) {
	tag := strings.TrimPrefix(n.Start.Value, "!")
	switch tag {
	case "undefined":
		return value.Undefined, nil
	case "hole":
		return value.Hole, nil
	case "bigint":
		text := strings.TrimSuffix(scalarText(n.Value), "n")
		i, ok := value.StringToBigInt(text)
		if !ok {
			return value.Undefined, d.errorf(n, "invalid BigInt %q", text)
		}
		return value.NewBigInt(i), nil
	case "number":
		return value.StringToNumber(scalarText(n.Value)), nil
	case "symbol":
		return value.NewSymbolValue(value.NewSymbol(scalarText(n.Value))), nil
	case "valueOf", "toString", "toPrimitive":
		v, err := d.decodeValue(n.Value)
		if err != nil {
			return value.Undefined, err
		}
		return d.boxed(tag, v), nil
	case "throws":
		message := scalarText(n.Value)
		obj := d.model.NewObject()
		fn := d.model.NewFunction("valueOf", func(*objects.Model, value.Value, []value.Value) (value.Value, error) {
			return value.Undefined, errors.NewTypeError("%s", message)
		})
		_ = d.model.Set(obj, keyValueOf, value.NewObject(fn))
		return value.NewObject(obj), nil
	case "array":
		return d.decodeArray(n)
	}
	if kind, ok := objects.ParseTypedArrayKind(tag); ok {
		return d.decodeTypedArray(n, kind)
	}
	return value.Undefined, d.errorf(n, "unknown tag !%s", tag)
}

// boxed returns an object whose coercion method returns v.
func (d *decoder) boxed(method string, v value.Value) value.Value {
	obj := d.model.NewObject()
	fn := d.model.NewFunction(method, func(*objects.Model, value.Value, []value.Value) (value.Value, error) {
		return v, nil
	})
	key := keyValueOf
	switch method {
	case "toString":
		key = keyToString
	case "toPrimitive":
		key = keyToPrimitive
	}
	_ = d.model.Set(obj, key, value.NewObject(fn))
	return value.NewObject(obj)
}

func (d *decoder) decodeArray(n *ast.TagNode) (value.Value, error) {
	a := d.model.NewArray()
	var pairs []*ast.MappingValueNode
	switch m := n.Value.(type) {
	case *ast.MappingNode:
		pairs = m.Values
	case *ast.MappingValueNode:
		pairs = []*ast.MappingValueNode{m}
	default:
		return value.Undefined, d.errorf(n, "!array expects a map")
	}
	// length last, so that it is not overridden by the elements
	var length *ast.MappingValueNode
	rest := pairs[:0:0]
	for _, pair := range pairs {
		if keyText(pair.Key) == "length" {
			length = pair
			continue
		}
		rest = append(rest, pair)
	}
	if err := d.assign(a, rest); err != nil {
		return value.Undefined, err
	}
	if length != nil {
		v, err := d.decodeValue(length.Value)
		if err != nil {
			return value.Undefined, err
		}
		if err := d.model.Set(a, keyLength, v); err != nil {
			return value.Undefined, errors.At(err, d.position(length))
		}
	}
	return value.NewObject(a), nil
}

func (d *decoder) decodeTypedArray(n *ast.TagNode, kind objects.TypedArrayKind) (value.Value, error) {
	items, err := d.list(n.Value)
	if err != nil {
		return value.Undefined, err
	}
	ta := d.model.NewTypedArray(kind, len(items))
	for i, item := range items {
		v, err := d.decodeValue(item)
		if err != nil {
			return value.Undefined, err
		}
		if err := d.model.Set(ta, value.NewIndexKey(int64(i)), v); err != nil {
			return value.Undefined, errors.At(err, d.position(item))
		}
	}
	return value.NewObject(ta), nil
}
