package mediapipe

import (
	"bufio"
	"io"
	"strings"

	"github.com/meltforce/movassist/internal/pose"
)

// Provider streams frames from a JSONL recording. It implements
// ingest.Provider: io.EOF at end of stream, ErrMalformedFrame for broken
// lines (the caller decides whether to hold or abort).
type Provider struct {
	scanner   *bufio.Scanner
	nextIndex int
	done      bool
}

// NewProvider creates a provider reading from r.
func NewProvider(r io.Reader) *Provider {
	sc := bufio.NewScanner(r)
	// Recordings with all 33 landmarks run a few KB per line.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Provider{scanner: sc}
}

// Next returns the next frame. Blank lines are skipped.
func (p *Provider) Next() (*pose.Frame, error) {
	if p.done {
		return nil, io.EOF
	}
	for p.scanner.Scan() {
		line := strings.TrimSpace(p.scanner.Text())
		if line == "" {
			continue
		}
		f, err := ParseFrame([]byte(line), p.nextIndex)
		if err != nil {
			p.nextIndex++
			return nil, err
		}
		p.nextIndex = f.Index + 1
		return f, nil
	}
	p.done = true
	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
