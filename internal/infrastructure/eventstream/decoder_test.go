package eventstream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, raw string) []Event {
	t.Helper()
	dec := NewDecoder(strings.NewReader(raw))
	var events []Event
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestDecoder(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Event
	}{
		{
			name: "single data line",
			raw:  "data: {\"a\":1}\n\n",
			want: []Event{{Data: `{"a":1}`}},
		},
		{
			name: "multi line data is joined",
			raw:  "data: one\ndata: two\n\n",
			want: []Event{{Data: "one\ntwo"}},
		},
		{
			name: "comments and blank lines are skipped",
			raw:  ": ping\n\n\ndata: x\n\n",
			want: []Event{{Data: "x"}},
		},
		{
			name: "event id and retry fields",
			raw:  "event: message\nid: 7\nretry: 3000\ndata: y\n\n",
			want: []Event{{Event: "message", ID: "7", Retry: 3000, Data: "y"}},
		},
		{
			name: "id persists across events",
			raw:  "id: 1\ndata: a\n\ndata: b\n\n",
			want: []Event{{ID: "1", Data: "a"}, {ID: "1", Data: "b"}},
		},
		{
			name: "no space after colon",
			raw:  "data:tight\n\n",
			want: []Event{{Data: "tight"}},
		},
		{
			name: "crlf line endings",
			raw:  "data: win\r\n\r\n",
			want: []Event{{Data: "win"}},
		},
		{
			name: "trailing event without blank line",
			raw:  "data: first\n\ndata: last",
			want: []Event{{Data: "first"}, {Data: "last"}},
		},
		{
			name: "event without data is not dispatched",
			raw:  "event: ping\n\ndata: real\n\n",
			want: []Event{{Data: "real"}},
		},
		{
			name: "empty stream",
			raw:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, readAll(t, tt.raw))
		})
	}
}

func TestDecoder_LargeEvent(t *testing.T) {
	big := strings.Repeat("x", 256*1024)
	events := readAll(t, "data: "+big+"\n\n")
	require.Len(t, events, 1)
	assert.Len(t, events[0].Data, len(big))
}
