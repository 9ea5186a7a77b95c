package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"strata/pkg/source"
)

func TestAtStampsOnlyOnce(t *testing.T) {
	src := source.NewEvalSource("x + y")
	first := Position{Line: 1, Column: 3, Source: src}
	second := Position{Line: 2, Column: 1, Source: src}

	err := At(NewTypeError("bad"), first)
	err = At(err, second)
	var te *TypeError
	if !stderrors.As(err, &te) {
		t.Fatalf("expected *TypeError, got %T", err)
	}
	if te.Position != first {
		t.Errorf("expected position %s, got %s", first, te.Position)
	}

	// invalid positions and foreign errors pass through
	re := NewRangeError("big")
	if At(re, Position{}) != error(re) || re.Position.IsValid() {
		t.Errorf("invalid position must not be stamped")
	}
	plain := fmt.Errorf("callback failed")
	if At(plain, first) != plain {
		t.Errorf("foreign errors must be returned unchanged")
	}
}

func TestErrorStrings(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewTypeError("Cannot mix %s", "BigInt"), "TypeError: Cannot mix BigInt"},
		{At(NewRangeError("Invalid string length"), Position{Line: 4, Column: 9}), "RangeError at 4:9: Invalid string length"},
		{NewSyntaxError(Position{Line: 2, Column: 1}, "unknown operator %q", "@"), `SyntaxError at 2:1: unknown operator "@"`},
		{NewUnexpectedError("bad kind %d", 7), "internal error: bad kind 7"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestWrapping(t *testing.T) {
	cause := fmt.Errorf("valueOf threw")
	err := fmt.Errorf("row 3: %w", NewTypeError("conversion failed").CausedBy(cause))
	if !IsTypeError(err) || IsRangeError(err) {
		t.Errorf("expected a wrapped TypeError")
	}
	if !stderrors.Is(err, cause) {
		t.Errorf("expected the cause to be reachable")
	}
	var internal InternalError
	if !stderrors.As(error(NewUnreachableError()), &internal) {
		t.Errorf("UnreachableError must be an InternalError")
	}
}

func TestDisplayErrors(t *testing.T) {
	src := source.FromFile("/tmp/ladder.yaml", "expr:\n  \"-\": [1, !bigint 2]\n")
	pos := Position{Line: 2, Column: 3, Source: src}

	var buf bytes.Buffer
	DisplayErrors(&buf, []error{
		At(NewTypeError("Cannot mix BigInt and other types"), pos),
		NewRangeError("Maximum BigInt size exceeded"),
		fmt.Errorf("open config.yaml: no such file"),
	})
	out := buf.String()

	for _, want := range []string{
		"TypeError at /tmp/ladder.yaml:2:3: Cannot mix BigInt and other types\n",
		"  \"-\": [1, !bigint 2]\n",
		"    ^\n",
		"RangeError: Maximum BigInt size exceeded\n",
		"Error: open config.yaml: no such file\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}
