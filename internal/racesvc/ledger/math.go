package ledger

import "errors"

// ErrOverflow is returned when a fee computation would wrap.
var ErrOverflow = errors.New("math overflow")

// MulU64 multiplies with overflow checking.
func MulU64(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/a != b {
		return 0, ErrOverflow
	}
	return product, nil
}

// AddU64 adds with overflow checking.
func AddU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// SubU64 subtracts with underflow checking.
func SubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// PercentageOf returns floor(value * pct / 100) with overflow checking.
func PercentageOf(value, pct uint64) (uint64, error) {
	product, err := MulU64(value, pct)
	if err != nil {
		return 0, err
	}
	return product / 100, nil
}

// SaturatingSub subtracts, flooring at zero. Used where the remainder side of
// a split must absorb rounding so the parts sum exactly.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
