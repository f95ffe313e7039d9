package core

import "strings"

// LineBuffer splits chunked network reads into complete lines. The trailing
// partial line is held back until a later chunk completes it, so a JSON
// payload torn across two reads is never surfaced half-parsed.
type LineBuffer struct {
	pending strings.Builder
}

// Append adds one chunk and returns every line completed by it.
func (b *LineBuffer) Append(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	b.pending.Write(chunk)

	buffered := b.pending.String()
	if !strings.Contains(buffered, "\n") {
		return nil
	}

	parts := strings.Split(buffered, "\n")
	rest := parts[len(parts)-1]
	lines := parts[:len(parts)-1]

	b.pending.Reset()
	b.pending.WriteString(rest)

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, strings.TrimSuffix(line, "\r"))
	}
	return out
}

// Rest returns the held-back partial line without consuming it.
func (b *LineBuffer) Rest() string {
	return b.pending.String()
}

// SSEDecoder extracts "data:" payloads from server-sent-event framing fed in
// arbitrary chunk sizes. Lines that are not data lines are ignored; payloads
// the caller finds malformed should be reported via MarkSkipped so the
// tolerance stays observable.
type SSEDecoder struct {
	lines   LineBuffer
	skipped int
}

const sseDataPrefix = "data:"

// Feed consumes one chunk and returns the data payloads it completed.
func (d *SSEDecoder) Feed(chunk []byte) []string {
	var payloads []string
	for _, line := range d.lines.Append(chunk) {
		if !strings.HasPrefix(line, sseDataPrefix) {
			continue
		}
		payloads = append(payloads, strings.TrimSpace(strings.TrimPrefix(line, sseDataPrefix)))
	}
	return payloads
}

// MarkSkipped records one malformed payload that was silently dropped.
func (d *SSEDecoder) MarkSkipped() {
	d.skipped++
}

// Skipped returns how many payloads were dropped as malformed.
func (d *SSEDecoder) Skipped() int {
	return d.skipped
}
