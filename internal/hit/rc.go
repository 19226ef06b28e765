package hit

var complement [256]byte

func init() {
	pairs := []struct{ a, b byte }{
		{'A', 'T'}, {'C', 'G'}, {'U', 'A'},
		{'R', 'Y'}, {'K', 'M'}, {'B', 'V'}, {'D', 'H'},
		{'S', 'S'}, {'W', 'W'}, {'N', 'N'},
	}
	for _, p := range pairs {
		complement[p.a] = p.b
		complement[p.a|0x20] = p.b | 0x20
		if p.a != 'U' {
			complement[p.b] = p.a
			complement[p.b|0x20] = p.a | 0x20
		}
	}
}

// Complement returns the complementary base, preserving case. Bytes outside
// the nucleotide/IUPAC table (gaps, stop symbols, digits) are returned as is.
func Complement(b byte) byte {
	if c := complement[b]; c != 0 {
		return c
	}
	return b
}

// RevComp returns the reverse complement of seq as a new string.
func RevComp(seq string) string {
	n := len(seq)
	if n == 0 {
		return ""
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = Complement(seq[n-1-i])
	}
	return string(out)
}
