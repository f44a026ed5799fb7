package eventfile

import (
	"errors"
	"fmt"

	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/list"
)

// Stream is a decoded event file.
type Stream struct {
	// Path is the file the stream was read from, if any.
	Path    string
	Mode    string
	SortBy  string
	Records []Record
}

// Record is one event of a stream.
type Record struct {
	// Kind is added, removed, changed, moved or loaded.
	Kind string
	Key  string
	// After names the preceding sibling; nil places the entry first.
	After *string
	Value ir.Value
	// Signal is the payload of a loaded record.
	Signal ir.Value
	// Channel overrides the delivery channel. Empty means Kind.
	Channel string
	// Line is the 1-based source line, 0 if unknown.
	Line int
}

// Layout returns the list layout the stream asks for.
func (s *Stream) Layout() engine.Layout {
	mode, err := engine.ParseMode(s.Mode)
	if err != nil {
		mode = engine.Mode(s.Mode)
	}
	return engine.Layout{Mode: mode, SortBy: s.SortBy}
}

// Comparator returns the value ordering of a sorted stream.
func (s *Stream) Comparator() func(a, b ir.Value) int {
	return s.Layout().Comparator()
}

// Validate checks the stream structurally. It does not apply events, so
// contract violations such as unknown keys are only found by a dry run.
func (s *Stream) Validate() error {
	var errs []error
	if err := s.Layout().Validate(); err != nil {
		errs = append(errs, err)
	}
	for i, r := range s.Records {
		if err := r.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.where(i), err))
		}
	}
	return errors.Join(errs...)
}

func (r Record) where(i int) string {
	if r.Line > 0 {
		return fmt.Sprintf("event %d (line %d)", i+1, r.Line)
	}
	return fmt.Sprintf("event %d", i+1)
}

func (r Record) validate() error {
	ch, err := engine.ParseChannel(r.Kind)
	if err != nil {
		return err
	}
	if r.Channel != "" {
		over, err := engine.ParseChannel(r.Channel)
		if err != nil {
			return fmt.Errorf("channel: %w", err)
		}
		if err := crossesLoaded(ch, over); err != nil {
			return err
		}
	}
	if ch == engine.ChannelLoaded {
		if r.Key != "" || r.After != nil || r.Value != nil {
			return fmt.Errorf("loaded events carry only a signal")
		}
		return nil
	}
	if r.Key == "" {
		return fmt.Errorf("%s event requires a key", r.Kind)
	}
	if r.Signal != nil {
		return fmt.Errorf("signal is only valid on loaded events")
	}
	if r.After != nil && ch != engine.ChannelAdded && ch != engine.ChannelMoved {
		return fmt.Errorf("after is only valid on added and moved events")
	}
	// A move replaces the value like a change; without one the entry would
	// silently become null.
	if ch == engine.ChannelMoved && r.Value == nil {
		return fmt.Errorf("moved event requires a value")
	}
	return nil
}

// crossesLoaded rejects channel overrides between the load-completion
// channel and the mutation channels. The list tells a mutation on the wrong
// mutation channel apart, but a mutation on the loaded channel would just
// mark the list loaded.
func crossesLoaded(kind, over engine.Channel) error {
	switch {
	case kind == engine.ChannelLoaded && over != engine.ChannelLoaded:
		return fmt.Errorf("channel: loaded events cannot be sent on %s", over)
	case kind != engine.ChannelLoaded && over == engine.ChannelLoaded:
		return fmt.Errorf("channel: %s events cannot be sent on loaded", kind)
	}
	return nil
}

// Hint returns the placement hint of the record.
func (r Record) Hint() list.Hint {
	if r.After == nil {
		return list.First()
	}
	return list.After(*r.After)
}

// Delivery converts the record into an engine delivery.
func (r Record) Delivery() (engine.Delivery, error) {
	ch, err := engine.ParseChannel(r.Kind)
	if err != nil {
		return engine.Delivery{}, err
	}
	if ch == engine.ChannelLoaded {
		if r.Channel != "" && r.Channel != "loaded" {
			return engine.Delivery{}, fmt.Errorf("channel: loaded events cannot be sent on %s", r.Channel)
		}
		return engine.LoadComplete(r.Signal), nil
	}

	value := r.Value
	if value == nil {
		value = ir.Null{}
	}
	ev := list.Event[ir.Value]{
		Kind:  list.Kind(ch),
		Entry: list.Entry[ir.Value]{Key: r.Key, Value: value},
		Hint:  r.Hint(),
	}
	if r.Channel == "" {
		return engine.Mutation(ev), nil
	}
	over, err := engine.ParseChannel(r.Channel)
	if err != nil {
		return engine.Delivery{}, err
	}
	if err := crossesLoaded(ch, over); err != nil {
		return engine.Delivery{}, err
	}
	return engine.On(over, ev), nil
}

// Deliveries converts every record, in order.
func (s *Stream) Deliveries() ([]engine.Delivery, error) {
	out := make([]engine.Delivery, 0, len(s.Records))
	for i, r := range s.Records {
		d, err := r.Delivery()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.where(i), err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Enqueue converts every record and submits it to e.
func (s *Stream) Enqueue(e *engine.Engine) error {
	ds, err := s.Deliveries()
	if err != nil {
		return err
	}
	for _, d := range ds {
		if !e.Enqueue(d) {
			return fmt.Errorf("engine stopped")
		}
	}
	return nil
}
