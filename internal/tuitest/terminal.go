package tuitest

import (
	"bytes"
	"fmt"
	"io"
)

const (
	defaultForeground = "cccc/cccc/cccc"
	defaultBackground = "0000/0000/0000"
	queryTail         = 64
)

// termQuery is a terminal query lipgloss and bubbletea send at startup, with the
// reply a real emulator would give.
type termQuery struct {
	query []byte
	reply []byte
}

// terminalResponder answers cursor-position and colour queries so programs
// that wait for them do not stall inside the PTY.
type terminalResponder struct {
	w       io.Writer
	buf     []byte
	queries []termQuery
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{
		w:       w,
		buf:     make([]byte, 0, 128),
		queries: colourQueries(defaultForeground, defaultBackground),
	}
}

func colourQueries(fg, bg string) []termQuery {
	queries := []termQuery{{query: []byte("\x1b[6n"), reply: []byte("\x1b[1;1R")}}
	for _, osc := range []struct {
		code   int
		colour string
	}{{10, fg}, {11, bg}} {
		for _, term := range []string{"\x07", "\x1b\\"} {
			queries = append(queries, termQuery{
				query: []byte(fmt.Sprintf("\x1b]%d;?%s", osc.code, term)),
				reply: []byte(fmt.Sprintf("\x1b]%d;rgb:%s%s", osc.code, osc.colour, term)),
			})
		}
	}
	return queries
}

// Process scans a chunk of program output. A short tail is kept between calls
// so queries split across reads are still seen.
func (tr *terminalResponder) Process(chunk []byte) {
	tr.buf = append(tr.buf, chunk...)
	for tr.answerNext() {
	}
	if len(tr.buf) > 4*queryTail {
		tr.buf = tr.buf[len(tr.buf)-queryTail:]
	}
}

// answerNext replies to the earliest pending query in the buffer.
func (tr *terminalResponder) answerNext() bool {
	first, at := -1, len(tr.buf)
	for i, p := range tr.queries {
		if idx := bytes.Index(tr.buf, p.query); idx >= 0 && idx < at {
			first, at = i, idx
		}
	}
	if first < 0 {
		return false
	}
	p := tr.queries[first]
	tr.buf = tr.buf[at+len(p.query):]
	_, _ = tr.w.Write(p.reply)
	return true
}
