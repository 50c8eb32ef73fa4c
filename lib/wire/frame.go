package wire

import (
	"fmt"
	"io"
)

// FrameSize is the fixed size in bytes of every protocol frame,
// handshake and steady state alike. One fixed-size read loop serves
// the whole connection lifetime.
const FrameSize = 4096

// WriteFrame writes payload as a single frame: the payload bytes
// followed by zero padding up to FrameSize. It returns an error if the
// payload does not fit in one frame or if the frame cannot be written
// in full.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > FrameSize {
		return fmt.Errorf("payload of %d bytes exceeds frame size %d", len(payload), FrameSize)
	}

	frame := make([]byte, FrameSize)
	copy(frame, payload)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// ReadFrame reads exactly one frame into buf, retrying short reads
// until FrameSize bytes have arrived. buf must be at least FrameSize
// long; the returned slice is buf[:FrameSize].
//
// io.EOF is returned untouched when the peer closed the connection
// before the first byte; a disconnect mid-frame surfaces as
// io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader, buf []byte) ([]byte, error) {
	if len(buf) < FrameSize {
		return nil, fmt.Errorf("frame buffer of %d bytes is smaller than frame size %d", len(buf), FrameSize)
	}

	if _, err := io.ReadFull(r, buf[:FrameSize]); err != nil {
		return nil, err
	}
	return buf[:FrameSize], nil
}
