package geom

// Point is a fixed-width numeric row: the feature vector of one table row or
// one window step.
type Point []float64

func (v Point) Dim(idx int) float64 {
	return v[idx]
}

// Equal reports element-wise equality.
func (v Point) Equal(v1 Point) bool {
	if len(v) != len(v1) {
		return false
	}
	for i := range v {
		if v[i] != v1[i] {
			return false
		}
	}
	return true
}
