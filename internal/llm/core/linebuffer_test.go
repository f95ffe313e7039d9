package core

import (
	"reflect"
	"testing"
)

func TestLineBufferHoldsBackPartialLine(t *testing.T) {
	t.Parallel()

	var buf LineBuffer

	if lines := buf.Append([]byte("data: {\"te")); lines != nil {
		t.Fatalf("incomplete chunk should yield no lines, got %v", lines)
	}
	if buf.Rest() != "data: {\"te" {
		t.Fatalf("unexpected held-back rest: %q", buf.Rest())
	}

	lines := buf.Append([]byte("xt\":\"hi\"}\ndata: ["))
	want := []string{`data: {"text":"hi"}`}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("Append() = %v, want %v", lines, want)
	}
	if buf.Rest() != "data: [" {
		t.Fatalf("unexpected rest after split: %q", buf.Rest())
	}
}

func TestLineBufferSplitsMultipleLinesPerChunk(t *testing.T) {
	t.Parallel()

	var buf LineBuffer
	lines := buf.Append([]byte("one\r\ntwo\n\nthree"))
	want := []string{"one", "two", ""}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("Append() = %#v, want %#v", lines, want)
	}
	if buf.Rest() != "three" {
		t.Fatalf("unexpected rest: %q", buf.Rest())
	}
}

func TestSSEDecoderExtractsDataPayloads(t *testing.T) {
	t.Parallel()

	var dec SSEDecoder

	payloads := dec.Feed([]byte("event: delta\ndata: {\"a\":1}\n\ndata:"))
	if !reflect.DeepEqual(payloads, []string{`{"a":1}`}) {
		t.Fatalf("Feed() = %v", payloads)
	}

	payloads = dec.Feed([]byte(" [DONE]\n"))
	if !reflect.DeepEqual(payloads, []string{"[DONE]"}) {
		t.Fatalf("Feed() = %v", payloads)
	}
}

func TestSSEDecoderSkipAccounting(t *testing.T) {
	t.Parallel()

	var dec SSEDecoder
	if dec.Skipped() != 0 {
		t.Fatalf("new decoder should have zero skips")
	}
	dec.MarkSkipped()
	dec.MarkSkipped()
	if dec.Skipped() != 2 {
		t.Fatalf("Skipped() = %d, want 2", dec.Skipped())
	}
}
