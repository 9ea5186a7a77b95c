package errors

import (
	"fmt"

	"strata/pkg/source"
)

// Position represents the location of the expression node that raised an error.
// Line and column are 1-based; a zero Line means "no position".
type Position struct {
	Line   int                // 1-based line number
	Column int                // 1-based column number
	Source *source.SourceFile // Reference to the file the tree was built from
}

// IsValid reports whether the position points into a source.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	if p.Source != nil {
		return fmt.Sprintf("%s:%d:%d", p.Source.DisplayPath(), p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
