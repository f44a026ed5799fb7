package eventfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/listsync/internal/ir"
)

// LoadError reports a malformed stream file.
type LoadError struct {
	Path    string
	Line    int
	Message string
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Load reads a stream file, choosing the decoder by extension.
func Load(path string) (*Stream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event file: %w", err)
	}

	var s *Stream
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		s, err = ParseYAML(data)
	case ".json":
		s, err = ParseJSON(data)
	case ".jsonl":
		s, err = ParseJSONL(data)
	case ".cue":
		s, err = ParseCUE(path, data)
	default:
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("unsupported extension %q", ext)}
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	s.Path = path
	return s, nil
}

// yamlStream is the YAML shape of a stream.
type yamlStream struct {
	Mode   string       `yaml:"mode"`
	SortBy string       `yaml:"sort_by"`
	Events []yamlRecord `yaml:"events"`
}

type yamlRecord struct {
	Kind    string  `yaml:"kind"`
	Key     string  `yaml:"key"`
	After   *string `yaml:"after"`
	Value   any     `yaml:"value"`
	Signal  any     `yaml:"signal"`
	Channel string  `yaml:"channel"`
	line    int
}

var yamlRecordFields = []string{"kind", "key", "after", "value", "signal", "channel"}

// UnmarshalYAML records the source line of each event. Node.Decode does not
// inherit KnownFields, so unknown keys are checked here.
func (r *yamlRecord) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			k := node.Content[i]
			if !slices.Contains(yamlRecordFields, k.Value) {
				return fmt.Errorf("line %d: field %s not found in event", k.Line, k.Value)
			}
		}
	}
	type plain yamlRecord
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = yamlRecord(p)
	r.line = node.Line
	// "value: null" must stay distinguishable from an absent value.
	if r.Value == nil && hasKey(node, "value") {
		r.Value = ir.Null{}
	}
	return nil
}

func hasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

// ParseYAML decodes a YAML stream. Unknown fields are rejected.
func ParseYAML(data []byte) (*Stream, error) {
	var raw yamlStream
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	s := &Stream{Mode: raw.Mode, SortBy: raw.SortBy}
	for i, r := range raw.Events {
		rec, err := newRecord(r.Kind, r.Key, r.After, r.Value, r.Signal, r.Channel, r.line)
		if err != nil {
			return nil, &LoadError{Line: r.line, Message: fmt.Sprintf("event %d: %v", i+1, err)}
		}
		s.Records = append(s.Records, rec)
	}
	return s, nil
}

func newRecord(kind, key string, after *string, value, signal any, channel string, line int) (Record, error) {
	rec := Record{Kind: kind, Key: key, After: after, Channel: channel, Line: line}
	if value != nil {
		v, err := ir.FromGo(value)
		if err != nil {
			return Record{}, fmt.Errorf("value: %w", err)
		}
		rec.Value = v
	}
	if signal != nil {
		v, err := ir.FromGo(signal)
		if err != nil {
			return Record{}, fmt.Errorf("signal: %w", err)
		}
		rec.Signal = v
	}
	return rec, nil
}

// jsonRecord is the JSON shape of one event. Payloads stay raw so integers
// are decoded by ir.ParseJSON without passing through float64.
type jsonRecord struct {
	Kind    string          `json:"kind"`
	Key     string          `json:"key"`
	After   *string         `json:"after"`
	Value   json.RawMessage `json:"value"`
	Signal  json.RawMessage `json:"signal"`
	Channel string          `json:"channel"`

	// Header fields (JSONL first line only).
	Mode   string `json:"mode"`
	SortBy string `json:"sort_by"`
}

type jsonStream struct {
	Mode   string       `json:"mode"`
	SortBy string       `json:"sort_by"`
	Events []jsonRecord `json:"events"`
}

func (r jsonRecord) toRecord(line int) (Record, error) {
	rec := Record{Kind: r.Kind, Key: r.Key, After: r.After, Channel: r.Channel, Line: line}
	if len(r.Value) > 0 {
		v, err := ir.ParseJSON(r.Value)
		if err != nil {
			return Record{}, fmt.Errorf("value: %w", err)
		}
		rec.Value = v
	}
	if len(r.Signal) > 0 {
		v, err := ir.ParseJSON(r.Signal)
		if err != nil {
			return Record{}, fmt.Errorf("signal: %w", err)
		}
		rec.Signal = v
	}
	return rec, nil
}

func strictJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ParseJSON decodes a single-document JSON stream.
func ParseJSON(data []byte) (*Stream, error) {
	var raw jsonStream
	if err := strictJSON(data, &raw); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	s := &Stream{Mode: raw.Mode, SortBy: raw.SortBy}
	for i, r := range raw.Events {
		if r.Mode != "" || r.SortBy != "" {
			return nil, &LoadError{Message: fmt.Sprintf("event %d: mode and sort_by belong at the top level", i+1)}
		}
		rec, err := r.toRecord(0)
		if err != nil {
			return nil, &LoadError{Message: fmt.Sprintf("event %d: %v", i+1, err)}
		}
		s.Records = append(s.Records, rec)
	}
	return s, nil
}

// ParseJSONL decodes one JSON record per line. Blank lines and lines
// starting with '#' are skipped. The first record may instead be a header
// carrying only mode and sort_by.
func ParseJSONL(data []byte) (*Stream, error) {
	s := &Stream{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var r jsonRecord
		if err := strictJSON([]byte(text), &r); err != nil {
			return nil, &LoadError{Line: line, Message: err.Error()}
		}

		if r.Kind == "" && (r.Mode != "" || r.SortBy != "") {
			if len(s.Records) > 0 {
				return nil, &LoadError{Line: line, Message: "header must precede all events"}
			}
			s.Mode, s.SortBy = r.Mode, r.SortBy
			continue
		}
		if r.Mode != "" || r.SortBy != "" {
			return nil, &LoadError{Line: line, Message: "mode and sort_by are only valid in the header"}
		}

		rec, err := r.toRecord(line)
		if err != nil {
			return nil, &LoadError{Line: line, Message: err.Error()}
		}
		s.Records = append(s.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan JSONL: %w", err)
	}
	return s, nil
}
