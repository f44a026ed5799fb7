package engine

import (
	"fmt"

	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/list"
	"github.com/roach88/listsync/internal/store"
)

// Channel identifies the feed a delivery is emitted on.
type Channel int

const (
	// ChannelAdded carries added events.
	ChannelAdded Channel = iota + 1
	// ChannelRemoved carries removed events.
	ChannelRemoved
	// ChannelChanged carries changed events.
	ChannelChanged
	// ChannelMoved carries moved events.
	ChannelMoved
	// ChannelLoaded carries the load-completion signal.
	ChannelLoaded
)

// String returns the channel name used in event files and the journal.
func (c Channel) String() string {
	switch c {
	case ChannelLoaded:
		return "loaded"
	case ChannelAdded, ChannelRemoved, ChannelChanged, ChannelMoved:
		return list.Kind(c).String()
	default:
		return "unknown"
	}
}

// ParseChannel parses a channel name.
func ParseChannel(s string) (Channel, error) {
	if s == "loaded" {
		return ChannelLoaded, nil
	}
	k, err := list.ParseKind(s)
	if err != nil {
		return 0, fmt.Errorf("unknown channel %q", s)
	}
	return ChannelFor(k), nil
}

// ChannelFor returns the channel that carries events of kind k.
func ChannelFor(k list.Kind) Channel {
	return Channel(k)
}

// Delivery is one unit of work for the engine: a mutation event on one of
// the four mutation channels, or a load-completion signal.
//
// Seq is zero until the engine dispatches the delivery.
type Delivery struct {
	Seq     int64
	Channel Channel
	Event   list.Event[ir.Value]
	Signal  ir.Value
}

// Mutation builds a delivery for ev on the channel matching its kind.
func Mutation(ev list.Event[ir.Value]) Delivery {
	return Delivery{Channel: ChannelFor(ev.Kind), Event: ev}
}

// On builds a delivery for ev on an explicit channel. An event whose kind
// disagrees with the channel is rejected by the list.
func On(ch Channel, ev list.Event[ir.Value]) Delivery {
	return Delivery{Channel: ch, Event: ev}
}

// LoadComplete builds a load-completion delivery.
func LoadComplete(signal ir.Value) Delivery {
	if signal == nil {
		signal = ir.Null{}
	}
	return Delivery{Channel: ChannelLoaded, Signal: signal}
}

// Key returns the entry key of a mutation delivery.
func (d Delivery) Key() string {
	return d.Event.Entry.Key
}

// String renders the delivery for logs.
func (d Delivery) String() string {
	if d.Channel == ChannelLoaded {
		return fmt.Sprintf("#%d loaded", d.Seq)
	}
	return fmt.Sprintf("#%d %s %s (%s)", d.Seq, d.Channel, d.Key(), d.Event.Hint)
}

// Record converts a dispatched delivery and its outcome to a journal row.
func (d Delivery) Record(session string, err error) store.Event {
	rec := store.Event{
		Session:   session,
		Seq:       d.Seq,
		Kind:      d.Channel.String(),
		Applied:   err == nil,
		ErrorCode: errorCode(err),
	}
	if d.Channel == ChannelLoaded {
		rec.Value = d.Signal
		return rec
	}
	rec.Key = d.Event.Entry.Key
	rec.Value = d.Event.Entry.Value
	rec.AfterKey, rec.HasAfter = d.Event.Hint.Key()
	return rec
}

// FromRecord rebuilds the delivery that a journal row describes.
func FromRecord(rec store.Event) (Delivery, error) {
	ch, err := ParseChannel(rec.Kind)
	if err != nil {
		return Delivery{}, fmt.Errorf("event %s/%d: %w", rec.Session, rec.Seq, err)
	}
	if ch == ChannelLoaded {
		d := LoadComplete(rec.Value)
		d.Seq = rec.Seq
		return d, nil
	}

	hint := list.First()
	if rec.HasAfter {
		hint = list.After(rec.AfterKey)
	}
	value := rec.Value
	if value == nil {
		value = ir.Null{}
	}
	return Delivery{
		Seq:     rec.Seq,
		Channel: ch,
		Event: list.Event[ir.Value]{
			Kind:  list.Kind(ch),
			Entry: list.Entry[ir.Value]{Key: rec.Key, Value: value},
			Hint:  hint,
		},
	}, nil
}

// errorCode returns the sync error code of err, "ERROR" for any other
// failure, or "" for success.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := list.CodeOf(err); code != "" {
		return string(code)
	}
	return "ERROR"
}
