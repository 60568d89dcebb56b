package shape

import "github.com/pkg/errors"

// Mod returns a modulo b mapped onto [0, |b|). Mod(x, 0) is 0.
func Mod(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	r := a % b
	if r < 0 {
		if b < 0 {
			b = -b
		}
		r += b
	}
	return r
}

// NormalizeAxis maps an axis index in [-rank, rank) onto [0, rank).
func NormalizeAxis(axis int64, rank int) (int, error) {
	r := int64(rank)
	if axis < -r || axis >= r {
		return 0, errors.Wrapf(ErrAxisOutOfRange, "axis %d not in [%d, %d)", axis, -r, r)
	}
	if axis < 0 {
		axis += r
	}
	return int(axis), nil
}
