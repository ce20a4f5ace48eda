package app

import (
	"math/rand"
	"time"
)

// Shuffle returns a uniformly random permutation of items using Fisher-Yates
// on a copy. The input is never modified and nil yields an empty slice.
func Shuffle[T any](rnd *rand.Rand, items []T) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	if rnd == nil {
		rnd = newRand()
	}
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// ShuffleWithLimit shuffles items and keeps at most limit of them; limit <= 0 keeps all.
func ShuffleWithLimit[T any](rnd *rand.Rand, items []T, limit int) []T {
	shuffled := Shuffle(rnd, items)
	if limit <= 0 || limit > len(shuffled) {
		limit = len(shuffled)
	}
	return shuffled[:limit]
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
