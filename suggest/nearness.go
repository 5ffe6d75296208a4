package suggest

import "strings"

// Nearness is a bounded similarity score in [0,1], 1 meaning identical
//
//	a == b             -> 1
//	a substring of b   -> len(a)/len(b)
//	b substring of a   -> len(b)/len(a)
//	otherwise          -> 2*min(|a|,|b|)/(|a|+|b|)
func Nearness(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := runeLen(a), runeLen(b)
	if la == 0 || lb == 0 {
		return 0
	}
	if strings.Contains(b, a) {
		return float64(la) / float64(lb)
	}
	if strings.Contains(a, b) {
		return float64(lb) / float64(la)
	}
	return 2 * float64(min(la, lb)) / float64(la+lb)
}

func runeLen(s string) int {
	return len([]rune(s))
}
