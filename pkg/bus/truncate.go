package bus

// Truncate applies the bounded-read contract to a raw response: the
// data is cut at maxLen first, then at the first NUL byte. The result
// aliases b.
func Truncate(b []byte, maxLen int) []byte {
	if maxLen >= 0 && len(b) > maxLen {
		b = b[:maxLen]
	}
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
