package eventstream

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

const (
	scannerInitialBuffer = 12 * 1024        // 12KB
	scannerMaxBuffer     = 10 * 1024 * 1024 // 10MB
)

// Event is one dispatched server-sent event.
type Event struct {
	ID    string
	Event string
	Data  string
	Retry int
}

// Decoder reads server-sent events from a byte stream.
type Decoder struct {
	scanner *bufio.Scanner
	lastID  string
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)
	return &Decoder{scanner: scanner}
}

// Next returns the next event. It returns io.EOF when the stream ends; a
// trailing event without its blank line is still delivered.
func (d *Decoder) Next() (Event, error) {
	var (
		data    strings.Builder
		hasData bool
		ev      Event
	)

	for d.scanner.Scan() {
		line := d.scanner.Text()

		if line == "" {
			if !hasData {
				ev = Event{}
				continue
			}
			ev.ID = d.lastID
			ev.Data = strings.TrimSuffix(data.String(), "\n")
			return ev, nil
		}

		// Comments keep the connection alive.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if found {
			value = strings.TrimPrefix(value, " ")
		}

		switch field {
		case "data":
			data.WriteString(value)
			data.WriteByte('\n')
			hasData = true
		case "event":
			ev.Event = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				d.lastID = value
			}
		case "retry":
			if n, err := strconv.Atoi(value); err == nil {
				ev.Retry = n
			}
		}
	}

	if err := d.scanner.Err(); err != nil {
		return Event{}, err
	}
	if hasData {
		ev.ID = d.lastID
		ev.Data = strings.TrimSuffix(data.String(), "\n")
		return ev, nil
	}
	return Event{}, io.EOF
}
