package roster

// SplitEvenly partitions items into n contiguous chunks whose lengths differ by at most one.
// Which chunks receive the extra item is random. It returns nil when n <= 0; chunks may be
// empty when n exceeds len(items).
func SplitEvenly[T any](rng Rand, items []T, n int) [][]T {
	if n <= 0 {
		return nil
	}
	chunks := make([][]T, 0, n)
	rest := items
	for remaining := n; remaining > 0; remaining-- {
		size := len(rest) / remaining
		leftover := len(rest) % remaining
		if leftover > 0 && rng.Float64() < float64(leftover)/float64(remaining) {
			size++
		}
		chunks = append(chunks, rest[:size:size])
		rest = rest[size:]
	}
	return chunks
}
