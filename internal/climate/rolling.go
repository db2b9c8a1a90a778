package climate

// TrailingMean computes the mean over the trailing window ending at each
// index. Positions before the window fills are nil. A non-positive window
// yields all nil.
func TrailingMean(values []float64, window int) []*float64 {
	means := make([]*float64, len(values))
	if window <= 0 {
		return means
	}

	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		mean := sum / float64(window)
		means[i] = &mean
	}
	return means
}
