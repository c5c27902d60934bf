package reward

import "fmt"

// HamacherProduct computes the Hamacher t-norm of a and b, a smooth
// conjunction of two [0, 1] sub-rewards:
//
//	h(a, b) = ab / (a + b - ab)
//
// with h(0, 0) = 0. The product is 0 whenever either argument is 0 and
// h(1, 1) = 1.
func HamacherProduct(a, b float64) float64 {
	if !(0 <= a && a <= 1) || !(0 <= b && b <= 1) {
		panic(fmt.Sprintf("hamacherProduct: arguments must be in [0, 1] "+
			"\n\thave(%v, %v)", a, b))
	}

	denominator := a + b - a*b
	if denominator <= 0 {
		return 0.0
	}
	return (a * b) / denominator
}
