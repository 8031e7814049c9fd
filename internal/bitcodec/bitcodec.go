// Package bitcodec reads and writes signed and unsigned 8/16/32-bit
// integers at byte offsets within a buffer. The console's own payload
// integers are little-endian; CRC bytes sent on the wire are
// big-endian, which is why both byte orders are offered here rather
// than hard-coding one.
package bitcodec

import "encoding/binary"

// Uint8 reads an unsigned byte at offset.
func Uint8(buf []byte, offset int) uint8 {
	return buf[offset]
}

// Int8 reads a signed byte at offset.
func Int8(buf []byte, offset int) int8 {
	return int8(buf[offset])
}

// Uint16LE reads a little-endian unsigned 16-bit integer at offset.
func Uint16LE(buf []byte, offset int) uint16 {
	return binary.LittleEndian.Uint16(buf[offset : offset+2])
}

// Int16LE reads a little-endian signed 16-bit integer at offset.
func Int16LE(buf []byte, offset int) int16 {
	return int16(Uint16LE(buf, offset))
}

// Uint16BE reads a big-endian unsigned 16-bit integer at offset, the
// byte order the console uses for CRC values on the wire.
func Uint16BE(buf []byte, offset int) uint16 {
	return binary.BigEndian.Uint16(buf[offset : offset+2])
}

// Uint32LE reads a little-endian unsigned 32-bit integer at offset.
func Uint32LE(buf []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(buf[offset : offset+4])
}

// Int32LE reads a little-endian signed 32-bit integer at offset.
func Int32LE(buf []byte, offset int) int32 {
	return int32(Uint32LE(buf, offset))
}

// PutUint8 writes an unsigned byte at offset.
func PutUint8(buf []byte, offset int, v uint8) {
	buf[offset] = v
}

// PutInt8 writes a signed byte at offset.
func PutInt8(buf []byte, offset int, v int8) {
	buf[offset] = byte(v)
}

// PutUint16LE writes a little-endian unsigned 16-bit integer at offset.
func PutUint16LE(buf []byte, offset int, v uint16) {
	binary.LittleEndian.PutUint16(buf[offset:offset+2], v)
}

// PutInt16LE writes a little-endian signed 16-bit integer at offset.
func PutInt16LE(buf []byte, offset int, v int16) {
	PutUint16LE(buf, offset, uint16(v))
}

// PutUint16BE writes a big-endian unsigned 16-bit integer at offset.
func PutUint16BE(buf []byte, offset int, v uint16) {
	binary.BigEndian.PutUint16(buf[offset:offset+2], v)
}

// PutUint32LE writes a little-endian unsigned 32-bit integer at offset.
func PutUint32LE(buf []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], v)
}

// PutInt32LE writes a little-endian signed 32-bit integer at offset.
func PutInt32LE(buf []byte, offset int, v int32) {
	PutUint32LE(buf, offset, uint32(v))
}
