package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntnStaysInRange(t *testing.T) {
	r := New()
	for i := 0; i < 1000; i++ {
		v := r.Intn(7)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 7)
	}
	assert.Equal(t, 0, r.Intn(0))
}

func TestShufflePreservesElements(t *testing.T) {
	r := New()
	values := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	r.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })

	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, values)
}

type fixedIntn struct {
	results []int
	calls   []int
}

func (f *fixedIntn) Intn(n int) int {
	f.calls = append(f.calls, n)
	r := f.results[0]
	f.results = f.results[1:]
	return r
}

func TestShuffleDrawsFromShrinkingRange(t *testing.T) {
	f := &fixedIntn{results: []int{0, 0, 0}}
	values := []string{"a", "b", "c", "d"}
	Shuffle(f, len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })

	// Each step picks j from [0, i] so every permutation is reachable
	assert.Equal(t, []int{4, 3, 2}, f.calls)
	assert.Equal(t, []string{"b", "c", "d", "a"}, values)
}

func TestStringUsesAlphabet(t *testing.T) {
	s := New().String(16, "AB")
	assert.Len(t, s, 16)
	for _, c := range s {
		assert.Contains(t, "AB", string(c))
	}
}
