package engine

import (
	"fmt"

	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/list"
)

// Mode selects the position-resolution variant of a list.
type Mode string

const (
	// ModeSibling places entries after the sibling named by each event.
	ModeSibling Mode = "sibling"
	// ModeSorted keeps entries ordered by a comparator over their values.
	ModeSorted Mode = "sorted"
)

// ParseMode parses a mode name. The empty string means ModeSibling.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSibling:
		return ModeSibling, nil
	case ModeSorted:
		return ModeSorted, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeSibling, ModeSorted)
	}
}

// Layout is the configuration of a materialized list.
//
// SortBy is a dotted field path into each value (see ir.Field); empty means
// the whole value. It is only meaningful for ModeSorted.
type Layout struct {
	Mode   Mode
	SortBy string
}

// Validate checks the layout is usable.
func (l Layout) Validate() error {
	if _, err := ParseMode(string(l.Mode)); err != nil {
		return err
	}
	if l.SortBy != "" && l.Mode != ModeSorted {
		return fmt.Errorf("sort_by %q requires mode %q", l.SortBy, ModeSorted)
	}
	return nil
}

// Comparator returns the value ordering of a sorted layout.
func (l Layout) Comparator() func(a, b ir.Value) int {
	return ir.ByField(l.SortBy)
}

// NewList creates the list variant the layout describes.
func (l Layout) NewList(src list.Sources[ir.Value], obs list.Observers[ir.Value], opts ...list.Option) *list.List[ir.Value] {
	if l.Mode == ModeSorted {
		return list.NewSorted(src, obs, l.Comparator(), opts...)
	}
	return list.New(src, obs, opts...)
}
