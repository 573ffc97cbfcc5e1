package proto

// parseEscape decodes the escape sequence at the start of b.
//
// A lone ESC at the end of a chunk is the Escape key; an incomplete CSI or SS3
// sequence reports ok=false so the caller buffers it. Recognised sequences
// other than Up and Down are consumed and yield key 0.
func parseEscape(b []byte) (consumed int, key Key, ok bool) {
	if len(b) == 0 || b[0] != 0x1b {
		return 0, 0, true
	}
	if len(b) == 1 {
		return 1, KeyEscape, true
	}
	switch b[1] {
	case '[':
		if len(b) < 3 {
			return 0, 0, false
		}
		switch b[2] {
		case 'A':
			return 3, KeyUp, true
		case 'B':
			return 3, KeyDown, true
		}
		n := consumeCSI(b)
		if n == 0 {
			return 0, 0, false
		}
		return n, 0, true
	case 'O':
		// SS3, sent by terminals in application cursor mode.
		if len(b) < 3 {
			return 0, 0, false
		}
		switch b[2] {
		case 'A':
			return 3, KeyUp, true
		case 'B':
			return 3, KeyDown, true
		}
		return 3, 0, true
	case 0x1b:
		return 1, KeyEscape, true
	default:
		// Alt+key: treat as Escape followed by the key.
		return 1, KeyEscape, true
	}
}

// consumeCSI returns the length of the CSI sequence at the start of b, or 0
// when its final byte has not arrived yet.
func consumeCSI(b []byte) int {
	for i := 2; i < len(b); i++ {
		if b[i] >= 0x40 && b[i] <= 0x7e {
			return i + 1
		}
	}
	return 0
}
