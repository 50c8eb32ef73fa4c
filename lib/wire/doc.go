// Package wire implements the frame layer of the conver protocol.
//
// Every value exchanged over a connection travels in exactly one
// fixed-size frame: the serialized payload followed by zero padding up
// to FrameSize. Readers accumulate bytes until a full frame is
// available, so TCP fragmentation can never surface a short frame to
// the codec; writers always transmit the full frame. A clean io.EOF
// before the first byte of a frame is the orderly-shutdown signal.
package wire
