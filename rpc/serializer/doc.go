// Package serializer encodes pose samples.
//
// Key Components:
//
//   - IPoseSerializer: interface implemented by every format.
//
//   - jsonSerializerImpl: the format of the JSON payload sent to clients.
//     Fields appear in the order position, scale, rotation; float32 values are
//     printed with the shortest representation that parses back to the same
//     bits.
//
//   - binarySerializerImpl: a fixed 36 byte record (nine big endian float32
//     values) used for compact pose dumps written by the fetch command.
//
// All serializers are stateless and safe for concurrent use.
package serializer
