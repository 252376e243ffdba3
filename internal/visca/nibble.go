package visca

// ToNibbles splits v into the four big-endian 4-bit groups VISCA uses for
// positional and setting parameters. Bits above 16 are dropped.
func ToNibbles(v uint16) [4]byte {
	return [4]byte{
		byte(v>>12) & 0x0F,
		byte(v>>8) & 0x0F,
		byte(v>>4) & 0x0F,
		byte(v) & 0x0F,
	}
}

// FromNibbles reassembles a value from nibble bytes, most significant first.
// Only the low 4 bits of each byte are used.
func FromNibbles(nibbles []byte) uint16 {
	var v uint16
	for _, n := range nibbles {
		v = v<<4 | uint16(n&0x0F)
	}
	return v
}

// nibblesOf truncates a signed value to 16 bits before splitting it, so the
// auto sentinel -1 encodes as 0F 0F 0F 0F.
func nibblesOf(v int) [4]byte {
	return ToNibbles(uint16(v))
}
