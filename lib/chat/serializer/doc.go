// Package serializer provides the codec shared by every byte surface
// of conver: the wire protocol frames, the handshake identity and the
// values stored in the Redis backend all use the same serializer, so
// the external store stays schema-compatible with the wire format.
//
// Three implementations are provided behind one interface:
//
//   - binarySerializerImpl: custom length-prefixed binary format,
//     compact and allocation-light. This is the default.
//
//   - jsonSerializerImpl: JSON encoding, useful for debugging and
//     interoperability, at the cost of larger payloads.
//
//   - gobSerializerImpl: Go's gob encoding, kept for completeness.
//
// All implementations are stateless and safe for concurrent use. The
// deserializers read only the meaningful prefix of their input, so a
// zero-padded frame decodes the same as the bare payload.
package serializer
