package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	assert.Equal(t, []int{2, 4, 6}, Map([]int{1, 2, 3}, func(n int) int { return n * 2 }))
	assert.NotNil(t, Map([]int(nil), func(n int) int { return n }))
}

func TestUniqueKeepsFirstOccurrence(t *testing.T) {
	assert.Equal(t, []uint{3, 1, 2}, Unique([]uint{3, 1, 3, 2, 1}))
	assert.Empty(t, Unique([]uint(nil)))
}

func TestReduce(t *testing.T) {
	sum := Reduce([]int{1, 2, 3}, 10, func(acc, n int) int { return acc + n })
	assert.Equal(t, 16, sum)
}
