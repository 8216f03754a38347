package fingerprint

// Sampling thresholds for comparing very large signatures.
const (
	sampleThreshold = 10000
	sampleWindow    = 2000
)

// Similarity scores how alike two fingerprints are, in [0, 1].
// Identical inputs always score 1. Grossly different lengths short-circuit:
// when the length ratio is under 0.5 the score is just that ratio halved,
// since positional comparison of such strings is noise.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	la, lb := float64(len(a)), float64(len(b))
	lengthRatio := la / lb
	if lb < la {
		lengthRatio = lb / la
	}
	if lengthRatio < 0.5 {
		return lengthRatio * 0.5
	}

	return 0.4*lengthRatio + 0.6*positionalMatch(a, b)
}

// positionalMatch is the fraction of aligned positions holding the same
// byte. Inputs beyond the sampling threshold are compared over head,
// middle and tail windows instead of the full strings.
func positionalMatch(a, b string) float64 {
	if len(a) > sampleThreshold || len(b) > sampleThreshold {
		head := matchRatio(window(a, 0), window(b, 0))
		mid := matchRatio(window(a, 1), window(b, 1))
		tail := matchRatio(window(a, 2), window(b, 2))
		return (head + mid + tail) / 3
	}
	return matchRatio(a, b)
}

// window extracts the head (0), middle (1) or tail (2) sample of s.
func window(s string, which int) string {
	if len(s) <= sampleWindow {
		return s
	}
	switch which {
	case 0:
		return s[:sampleWindow]
	case 1:
		mid := len(s) / 2
		lo := mid - sampleWindow/2
		return s[lo : lo+sampleWindow]
	default:
		return s[len(s)-sampleWindow:]
	}
}

func matchRatio(a, b string) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	matches := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(n)
}
