package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitEvenly(t *testing.T) {
	rng := NewRand(3)
	for length := 0; length <= 23; length++ {
		items := make([]int, length)
		for i := range items {
			items[i] = i
		}
		for n := 1; n <= length+2; n++ {
			chunks := SplitEvenly(rng, items, n)
			assert.Len(t, chunks, n)

			var joined []int
			smallest, largest := length, 0
			for _, c := range chunks {
				joined = append(joined, c...)
				smallest = min(smallest, len(c))
				largest = max(largest, len(c))
			}
			if length == 0 {
				assert.Empty(t, joined)
			} else {
				assert.Equal(t, items, joined, "L=%d n=%d", length, n)
			}
			assert.LessOrEqual(t, largest-smallest, 1, "L=%d n=%d", length, n)
		}
	}
}

func TestSplitEvenlyNonPositiveCount(t *testing.T) {
	assert.Nil(t, SplitEvenly(NewRand(1), []int{1, 2}, 0))
	assert.Nil(t, SplitEvenly(NewRand(1), []int{1, 2}, -1))
}

func TestSplitEvenlyChunksDoNotAlias(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	chunks := SplitEvenly(reverseRand{}, items, 2)
	chunks[0] = append(chunks[0], "x")
	assert.Equal(t, []string{"a", "b", "c", "d"}, items)
}
