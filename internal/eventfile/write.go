package eventfile

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/list"
	"github.com/roach88/listsync/internal/store"
)

// FromJournal rebuilds a stream from journaled events. Rejected events are
// kept so the stream reproduces the original rejections, except kind
// mismatches: the journal records only the channel, so such a row would
// replay as a valid event. Events on channels the session did not observe
// never reached the list and are dropped.
func FromJournal(sess store.Session, events []store.Event) *Stream {
	s := &Stream{Mode: sess.Mode, SortBy: sess.SortBy}
	for _, ev := range events {
		if ev.ErrorCode == string(list.ErrCodeKindMismatch) {
			continue
		}
		if sess.Observe != nil && !slices.Contains(sess.Observe, ev.Kind) {
			continue
		}
		rec := Record{Kind: ev.Kind}
		if ev.Kind == "loaded" {
			rec.Signal = ev.Value
		} else {
			rec.Key = ev.Key
			rec.Value = ev.Value
			if ev.HasAfter {
				after := ev.AfterKey
				rec.After = &after
			}
		}
		s.Records = append(s.Records, rec)
	}
	return s
}

// WriteYAML encodes s in the YAML form accepted by ParseYAML.
func (s *Stream) WriteYAML(w io.Writer) error {
	doc := map[string]any{}
	if s.Mode != "" {
		doc["mode"] = s.Mode
	}
	if s.SortBy != "" {
		doc["sort_by"] = s.SortBy
	}
	events := make([]map[string]any, 0, len(s.Records))
	for _, r := range s.Records {
		events = append(events, r.yamlFields())
	}
	doc["events"] = events

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

// MarshalYAML returns the YAML encoding of s.
func (s *Stream) MarshalYAML() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.WriteYAML(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r Record) yamlFields() map[string]any {
	m := map[string]any{"kind": r.Kind}
	if r.Key != "" {
		m["key"] = r.Key
	}
	if r.After != nil {
		m["after"] = *r.After
	}
	if r.Value != nil {
		m["value"] = ir.ToGo(r.Value)
	}
	if r.Signal != nil {
		m["signal"] = ir.ToGo(r.Signal)
	}
	if r.Channel != "" {
		m["channel"] = r.Channel
	}
	return m
}
