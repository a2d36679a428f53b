package layout

import (
	"github.com/pkg/errors"
)

var (
	// ErrRange indicates a buffer too short for the requested read or write,
	// or a value outside what the layout can represent.
	ErrRange = errors.New("layout: range error")

	// ErrType indicates a value whose shape or length does not match the
	// layout it is being encoded with.
	ErrType = errors.New("layout: type mismatch")
)
