package imaging

// MaxScale is the largest downscale factor the decoder will apply.
const MaxScale = 8

// SelectScale returns the smallest power-of-two s ≤ MaxScale such that
// w/s ≤ maxW and h/s ≤ maxH, using integer division like the output size does.
func SelectScale(w, h, maxW, maxH int) (int, error) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, ErrCorrupt
	}
	for s := 1; s <= MaxScale; s *= 2 {
		if w/s <= maxW && h/s <= maxH {
			return s, nil
		}
	}
	return 0, ErrTooLarge
}
