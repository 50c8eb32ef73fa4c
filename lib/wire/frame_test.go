package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// chunkedReader returns at most chunk bytes per Read call, simulating
// TCP stream fragmentation
type chunkedReader struct {
	r     io.Reader
	chunk int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(p) > c.chunk {
		p = p[:c.chunk]
	}
	return c.r.Read(p)
}

func TestWriteReadRoundTrip(t *testing.T) {
	payload := []byte("hello frame")

	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if buf.Len() != FrameSize {
		t.Fatalf("Expected %d bytes on the wire, got %d", FrameSize, buf.Len())
	}

	frame, err := ReadFrame(&buf, make([]byte, FrameSize))
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !bytes.Equal(frame[:len(payload)], payload) {
		t.Errorf("Payload prefix doesn't match: expected %q, got %q", payload, frame[:len(payload)])
	}
	for i := len(payload); i < FrameSize; i++ {
		if frame[i] != 0 {
			t.Fatalf("Expected zero padding at offset %d, got %d", i, frame[i])
		}
	}
}

// TestReadFramePartialReads tests that short reads are retried until a
// full frame has accumulated
func TestReadFramePartialReads(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 100)

	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	frame, err := ReadFrame(&chunkedReader{r: &buf, chunk: 7}, make([]byte, FrameSize))
	if err != nil {
		t.Fatalf("ReadFrame with fragmented input failed: %v", err)
	}
	if !bytes.Equal(frame[:len(payload)], payload) {
		t.Error("Fragmented frame doesn't match the written payload")
	}
}

// TestReadFrameCleanClose tests that EOF before the first byte is an
// orderly shutdown
func TestReadFrameCleanClose(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil), make([]byte, FrameSize))
	if !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF on closed peer, got %v", err)
	}
}

// TestReadFrameTruncated tests that a disconnect mid-frame is an error,
// not a valid short frame
func TestReadFrameTruncated(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(make([]byte, FrameSize/2)), make([]byte, FrameSize))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Expected io.ErrUnexpectedEOF on truncated frame, got %v", err)
	}
}

func TestWriteFrameOverflow(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, make([]byte, FrameSize+1)); err == nil {
		t.Error("Expected error writing an oversized payload")
	}
	if buf.Len() != 0 {
		t.Error("Oversized payload must not reach the wire")
	}
}

func TestReadFrameSmallBuffer(t *testing.T) {
	if _, err := ReadFrame(bytes.NewReader(make([]byte, FrameSize)), make([]byte, 16)); err == nil {
		t.Error("Expected error for undersized frame buffer")
	}
}
