// Package sse decodes a newline-delimited event stream into the gateway's
// neutral stream events. Each meaningful line is a "data:" marker followed
// by a JSON payload; a "[DONE]" sentinel or transport close ends the
// sequence. Partial lines are buffered across chunk boundaries and emitted
// only once complete. Malformed payloads are skipped with a diagnostic.
package sse

import (
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aschepis/llmgate/llm"
)

const (
	marker       = "data:"
	doneSentinel = "[DONE]"
)

// wireEvent is the JSON shape of one streamed record.
type wireEvent struct {
	ID    string `json:"id"`
	Model string `json:"model"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

// Decoder implements llm.Stream over an open transport stream. It is
// single-consumer and non-restartable.
type Decoder struct {
	buf       *lineReader
	body      io.Closer
	logger    zerolog.Logger
	event     *llm.StreamEvent
	err       error
	done      bool
	skipped   int
	closeOnce sync.Once
}

// lineReader assembles complete lines from an arbitrary chunked byte stream.
// A chunk boundary may split a line mid-record; partial data is buffered
// until the terminating newline (or EOF) arrives.
type lineReader struct {
	src     io.Reader
	pending []byte
	chunk   []byte
	eof     bool
}

func newLineReader(src io.Reader) *lineReader {
	return &lineReader{src: src, chunk: make([]byte, 4096)}
}

// next returns the next complete line without its terminator. At EOF any
// buffered remainder is returned as a final line. The second result is false
// once the stream is exhausted; a read failure is returned as err.
func (lr *lineReader) next() (string, bool, error) {
	for {
		if idx := indexNewline(lr.pending); idx >= 0 {
			line := string(lr.pending[:idx])
			lr.pending = lr.pending[idx+1:]
			return strings.TrimSuffix(line, "\r"), true, nil
		}

		if lr.eof {
			if len(lr.pending) > 0 {
				line := string(lr.pending)
				lr.pending = nil
				return strings.TrimSuffix(line, "\r"), true, nil
			}
			return "", false, nil
		}

		n, err := lr.src.Read(lr.chunk)
		if n > 0 {
			lr.pending = append(lr.pending, lr.chunk[:n]...)
		}
		if err == io.EOF {
			lr.eof = true
			continue
		}
		if err != nil {
			return "", false, err
		}
	}
}

func indexNewline(b []byte) int {
	for i, c := range b {
		if c == '\n' {
			return i
		}
	}
	return -1
}

// NewDecoder wraps an open raw stream. A non-success transport status
// observed before any bytes are read is a terminal error for the whole
// sequence, and the body is closed.
func NewDecoder(raw *llm.RawStream, logger zerolog.Logger) (*Decoder, error) {
	if raw.Status < 200 || raw.Status >= 300 {
		_ = raw.Body.Close()
		return nil, llm.NewTransportError(raw.Status, "stream request rejected before first byte", nil)
	}
	return &Decoder{
		buf:    newLineReader(raw.Body),
		body:   raw.Body,
		logger: logger.With().Str("component", "sse").Logger(),
	}, nil
}

// Next advances to the next decoded event. It returns false once the
// sentinel arrives, the transport closes, or a read error occurs.
func (d *Decoder) Next() bool {
	if d.done || d.err != nil {
		return false
	}

	for {
		line, ok, err := d.buf.next()
		if err != nil {
			d.err = llm.NewTransportError(0, "stream read failed", err)
			d.done = true
			return false
		}
		if !ok {
			// Transport close ends the sequence.
			d.done = true
			return false
		}

		if line == "" || strings.HasPrefix(line, ":") {
			continue // blank lines and keepalive comments
		}
		if !strings.HasPrefix(line, marker) {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, marker))
		if payload == doneSentinel {
			d.done = true
			return false
		}

		var we wireEvent
		if uerr := json.Unmarshal([]byte(payload), &we); uerr != nil {
			// Malformed fragments are skipped to maximize partial
			// availability; the sequence itself stays healthy.
			d.skipped++
			d.logger.Debug().Err(uerr).Str("payload", truncate(payload, 120)).Msg("Skipping malformed stream line")
			continue
		}

		d.event = &llm.StreamEvent{
			ID:           we.ID,
			Model:        we.Model,
			Delta:        we.Delta.Content,
			FinishReason: we.FinishReason,
			Done:         we.FinishReason != "",
		}
		return true
	}
}

// Event returns the current event. Only valid after Next returned true.
func (d *Decoder) Event() *llm.StreamEvent {
	return d.event
}

// Err returns the terminal error, if any. A sequence ended by the sentinel
// or a clean transport close has a nil Err.
func (d *Decoder) Err() error {
	return d.err
}

// Close releases the underlying body. Safe to call more than once.
func (d *Decoder) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.done = true
		err = d.body.Close()
	})
	return err
}

// Skipped reports how many malformed lines were dropped.
func (d *Decoder) Skipped() int {
	return d.skipped
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ llm.Stream = (*Decoder)(nil)
