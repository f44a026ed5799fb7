package eventfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listsync/internal/engine"
	"github.com/roach88/listsync/internal/ir"
	"github.com/roach88/listsync/internal/list"
)

func strPtr(s string) *string { return &s }

func TestValidate_Valid(t *testing.T) {
	s := &Stream{Records: []Record{
		{Kind: "added", Key: "a", Value: ir.Int(1)},
		{Kind: "added", Key: "b", After: strPtr("a")},
		{Kind: "moved", Key: "a", After: strPtr("b"), Value: ir.Null{}},
		{Kind: "changed", Key: "b", Value: ir.Int(2)},
		{Kind: "added", Key: "q", Channel: "changed"},
		{Kind: "removed", Key: "a"},
		{Kind: "loaded", Signal: ir.String("done"), Channel: "loaded"},
	}}
	assert.NoError(t, s.Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		stream Stream
		want   string
	}{
		{
			name:   "unknown kind",
			stream: Stream{Records: []Record{{Kind: "inserted", Key: "a"}}},
			want:   `unknown channel "inserted"`,
		},
		{
			name:   "missing key",
			stream: Stream{Records: []Record{{Kind: "added"}}},
			want:   "added event requires a key",
		},
		{
			name:   "after on change",
			stream: Stream{Records: []Record{{Kind: "changed", Key: "a", After: strPtr("b")}}},
			want:   "after is only valid on added and moved events",
		},
		{
			name:   "loaded with key",
			stream: Stream{Records: []Record{{Kind: "loaded", Key: "a"}}},
			want:   "loaded events carry only a signal",
		},
		{
			name:   "signal on mutation",
			stream: Stream{Records: []Record{{Kind: "added", Key: "a", Signal: ir.Null{}}}},
			want:   "signal is only valid on loaded events",
		},
		{
			name:   "bad channel",
			stream: Stream{Records: []Record{{Kind: "added", Key: "a", Channel: "sideways"}}},
			want:   "channel:",
		},
		{
			name:   "mutation on loaded channel",
			stream: Stream{Records: []Record{{Kind: "added", Key: "a", Value: ir.Int(1), Channel: "loaded"}}},
			want:   "added events cannot be sent on loaded",
		},
		{
			name:   "loaded on mutation channel",
			stream: Stream{Records: []Record{{Kind: "loaded", Channel: "changed"}}},
			want:   "loaded events cannot be sent on changed",
		},
		{
			name:   "moved without value",
			stream: Stream{Records: []Record{{Kind: "moved", Key: "a", After: strPtr("b")}}},
			want:   "moved event requires a value",
		},
		{
			name:   "sort_by without sorted mode",
			stream: Stream{SortBy: "score"},
			want:   "sort_by",
		},
		{
			name:   "bad mode",
			stream: Stream{Mode: "shuffled"},
			want:   "shuffled",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stream.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ReportsLineAndAllErrors(t *testing.T) {
	s := &Stream{Records: []Record{
		{Kind: "added", Line: 3},
		{Kind: "removed", Line: 4},
	}}
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event 1 (line 3)")
	assert.Contains(t, err.Error(), "event 2 (line 4)")
}

func TestRecord_Delivery(t *testing.T) {
	d, err := Record{Kind: "added", Key: "b", After: strPtr("a"), Value: ir.Int(7)}.Delivery()
	require.NoError(t, err)
	assert.Equal(t, engine.ChannelAdded, d.Channel)
	assert.Equal(t, list.KindAdded, d.Event.Kind)
	assert.Equal(t, list.After("a"), d.Event.Hint)
	assert.Equal(t, ir.Int(7), d.Event.Entry.Value)

	d, err = Record{Kind: "removed", Key: "b"}.Delivery()
	require.NoError(t, err)
	assert.Equal(t, ir.Null{}, d.Event.Entry.Value, "missing value becomes null")
	assert.Equal(t, list.First(), d.Event.Hint)

	d, err = Record{Kind: "loaded"}.Delivery()
	require.NoError(t, err)
	assert.Equal(t, engine.ChannelLoaded, d.Channel)
	assert.Equal(t, ir.Null{}, d.Signal)
}

func TestRecord_DeliveryChannelOverride(t *testing.T) {
	d, err := Record{Kind: "added", Key: "a", Channel: "changed"}.Delivery()
	require.NoError(t, err)
	assert.Equal(t, engine.ChannelChanged, d.Channel)
	assert.Equal(t, list.KindAdded, d.Event.Kind, "kind is kept so the list can reject the mismatch")
}

func TestRecord_DeliveryRejectsLoadedCrossing(t *testing.T) {
	_, err := Record{Kind: "changed", Key: "a", Value: ir.Int(1), Channel: "loaded"}.Delivery()
	assert.ErrorContains(t, err, "changed events cannot be sent on loaded")

	_, err = Record{Kind: "loaded", Channel: "added"}.Delivery()
	assert.ErrorContains(t, err, "loaded events cannot be sent on added")
}

func TestStream_EnqueueAndDrain(t *testing.T) {
	s, err := Load("testdata/sibling.yaml")
	require.NoError(t, err)

	m, err := engine.NewMaterializer(s.Layout())
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, s.Enqueue(m.Engine()))
	assert.Equal(t, len(s.Records), m.Engine().Pending())
	require.NoError(t, m.Engine().Drain(t.Context()))

	assert.Equal(t, []string{"b", "a"}, m.List().Keys())
	assert.True(t, m.List().Loaded())
}

func TestStream_EnqueueStoppedEngine(t *testing.T) {
	s := &Stream{Records: []Record{{Kind: "added", Key: "a"}}}
	e := engine.New()
	e.Stop()
	assert.Error(t, s.Enqueue(e))
}

func TestStream_Comparator(t *testing.T) {
	s := &Stream{Mode: "sorted", SortBy: "score"}
	cmp := s.Comparator()
	lo := ir.MustFromGo(map[string]any{"score": 1})
	hi := ir.MustFromGo(map[string]any{"score": 5})
	assert.Negative(t, cmp(lo, hi))
	assert.Positive(t, cmp(hi, lo))
}
