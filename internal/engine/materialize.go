package engine

import (
	"fmt"

	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/list"
	"github.com/roach88/listsync/internal/store"
)

// Notification is one observer callback, stamped with the seq of the
// delivery that caused it.
//
// For moves Index is the origin and To the destination; otherwise To is
// list.NoIndex. Loaded notifications carry the signal in Value.
type Notification struct {
	Seq   int64    `json:"seq"`
	Kind  string   `json:"kind"`
	Index int      `json:"index"`
	To    int      `json:"to"`
	Key   string   `json:"key,omitempty"`
	Value ir.Value `json:"value"`
}

// String renders the notification in trace form.
func (n Notification) String() string {
	switch n.Kind {
	case "loaded":
		return fmt.Sprintf("#%d loaded", n.Seq)
	case "moved":
		return fmt.Sprintf("#%d moved %s %d->%d", n.Seq, n.Key, n.Index, n.To)
	default:
		return fmt.Sprintf("#%d %s %s @%d", n.Seq, n.Kind, n.Key, n.Index)
	}
}

// Materializer wires an Engine to a List and records every notification.
type Materializer struct {
	engine *Engine
	list   *list.List[ir.Value]
	layout Layout
	trace  []Notification
	// observe is the subscribed channel subset in channel order, nil for all.
	observe []Channel
}

type materializerConfig struct {
	engineOpts []Option
	listOpts   []list.Option
	observe    map[Channel]bool
}

// MaterializerOption configures a Materializer.
type MaterializerOption func(*materializerConfig)

// WithEngineOptions passes options to the underlying Engine.
func WithEngineOptions(opts ...Option) MaterializerOption {
	return func(c *materializerConfig) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// WithListOptions passes options to the underlying List.
func WithListOptions(opts ...list.Option) MaterializerOption {
	return func(c *materializerConfig) {
		c.listOpts = append(c.listOpts, opts...)
	}
}

// ObserveOnly restricts the observers to the given channels. Channels left
// out are never subscribed, so their deliveries do not reach the list.
func ObserveOnly(channels ...Channel) MaterializerOption {
	return func(c *materializerConfig) {
		c.observe = make(map[Channel]bool, len(channels))
		for _, ch := range channels {
			c.observe[ch] = true
		}
	}
}

// NewMaterializer creates an engine and a list with the given layout.
func NewMaterializer(layout Layout, opts ...MaterializerOption) (*Materializer, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if layout.Mode == "" {
		layout.Mode = ModeSibling
	}

	var cfg materializerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Materializer{
		engine:  New(cfg.engineOpts...),
		layout:  layout,
		observe: observedChannels(cfg.observe),
	}
	m.list = layout.NewList(m.engine.Sources(), m.observers(cfg.observe), cfg.listOpts...)
	return m, nil
}

func observedChannels(observe map[Channel]bool) []Channel {
	if observe == nil {
		return nil
	}
	out := []Channel{}
	for ch := ChannelAdded; ch <= ChannelLoaded; ch++ {
		if observe[ch] {
			out = append(out, ch)
		}
	}
	return out
}

func (m *Materializer) observers(observe map[Channel]bool) list.Observers[ir.Value] {
	on := func(ch Channel) bool {
		return observe == nil || observe[ch]
	}
	index := func(kind string) list.IndexFunc[ir.Value] {
		return func(i int, e list.Entry[ir.Value]) {
			m.record(Notification{Kind: kind, Index: i, To: list.NoIndex, Key: e.Key, Value: e.Value})
		}
	}

	var obs list.Observers[ir.Value]
	if on(ChannelAdded) {
		obs.Added = index("added")
	}
	if on(ChannelRemoved) {
		obs.Removed = index("removed")
	}
	if on(ChannelChanged) {
		obs.Changed = index("changed")
	}
	if on(ChannelMoved) {
		obs.Moved = func(from, to int, e list.Entry[ir.Value]) {
			m.record(Notification{Kind: "moved", Index: from, To: to, Key: e.Key, Value: e.Value})
		}
	}
	if on(ChannelLoaded) {
		obs.Loaded = func(signal any) {
			v, err := ir.FromGo(signal)
			if err != nil {
				v = ir.Null{}
			}
			m.record(Notification{Kind: "loaded", Index: list.NoIndex, To: list.NoIndex, Value: v})
		}
	}
	return obs
}

func (m *Materializer) record(n Notification) {
	n.Seq = m.engine.Seq()
	m.trace = append(m.trace, n)
}

// Engine returns the underlying engine.
func (m *Materializer) Engine() *Engine {
	return m.engine
}

// List returns the materialized list.
func (m *Materializer) List() *list.List[ir.Value] {
	return m.list
}

// Layout returns the list layout.
func (m *Materializer) Layout() Layout {
	return m.layout
}

// Trace returns the recorded notifications in dispatch order.
func (m *Materializer) Trace() []Notification {
	out := make([]Notification, len(m.trace))
	copy(out, m.trace)
	return out
}

// Hash returns the state hash of the current sequence.
func (m *Materializer) Hash() (string, error) {
	entries := m.list.Entries()
	keys := make([]string, len(entries))
	vals := make([]ir.Value, len(entries))
	for i, e := range entries {
		keys[i], vals[i] = e.Key, e.Value
	}
	return ir.StateHash(keys, vals)
}

// SessionRecord describes the session for the journal.
func (m *Materializer) SessionRecord(source string) store.Session {
	sess := store.Session{
		ID:     m.engine.Session(),
		Mode:   string(m.layout.Mode),
		SortBy: m.layout.SortBy,
		Source: source,
	}
	if m.observe != nil {
		sess.Observe = make([]string, len(m.observe))
		for i, ch := range m.observe {
			sess.Observe[i] = ch.String()
		}
	}
	return sess
}

// Snapshot captures the current sequence for the journal.
func (m *Materializer) Snapshot() (store.Snapshot, error) {
	hash, err := m.Hash()
	if err != nil {
		return store.Snapshot{}, err
	}
	snap := store.Snapshot{
		Session: m.engine.Session(),
		Seq:     m.engine.Seq(),
		Hash:    hash,
		Loaded:  m.list.Loaded(),
		Entries: make([]store.SnapshotEntry, 0, m.list.Len()),
	}
	for _, e := range m.list.All() {
		snap.Entries = append(snap.Entries, store.SnapshotEntry{Key: e.Key, Value: e.Value})
	}
	return snap, nil
}

// Close releases the list's subscriptions. Safe to call more than once.
func (m *Materializer) Close() {
	m.list.Clear()
}
