package hal

// rgb565 packs 8-bit channels as rrrrrggggggbbbbb.
func rgb565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// rgb888From565 unpacks p, scaling each channel back to 0..255.
func rgb888From565(p uint16) (r, g, b uint8) {
	return widen(p>>11&0x1f, 0x1f), widen(p>>5&0x3f, 0x3f), widen(p&0x1f, 0x1f)
}

func widen(v, max uint16) uint8 {
	return uint8(uint32(v) * 255 / uint32(max))
}
