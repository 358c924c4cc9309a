//go:build mcu

package strconvx

// Same signatures as strconv without pulling it into firmware images.

func Itoa(i int) string {
	if i < 0 {
		return "-" + FormatUint(uint64(-int64(i)), 10)
	}
	return FormatUint(uint64(i), 10)
}

// FormatUint supports bases 2..36; others fall back to 10.
func FormatUint(u uint64, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	if u == 0 {
		return "0"
	}
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	var buf [64]byte
	i := len(buf)
	b := uint64(base)
	for u > 0 {
		i--
		buf[i] = digits[u%b]
		u /= b
	}
	return string(buf[i:])
}
