package site

import (
	"errors"
	"fmt"
)

// Sentinel kinds for site errors.
var (
	ErrNoDependencies = errors.New("site dependencies are nil")
	ErrTemplate       = errors.New("template parse failed")
	ErrRender         = errors.New("render failed")
	ErrForm           = errors.New("form parse failed")
)

// NewKind tags kind with the operation that produced it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags err with op and kind; errors.Is matches both.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return NewKind(op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
