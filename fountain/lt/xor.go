package lt

// xorBytes XORs src into dst.
// src may be shorter than dst; the missing tail is treated as zero.
func xorBytes(dst, src []byte) {
	for i, b := range src[:min(len(src), len(dst))] {
		dst[i] ^= b
	}
}
