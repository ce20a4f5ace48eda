package app_test

import (
	"math/rand"
	"sort"
	"testing"

	"quizdeck/internal/app"
)

func TestShuffleIsPermutationAndLeavesInputAlone(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	input := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	original := append([]int(nil), input...)

	for i := 0; i < 50; i++ {
		out := app.Shuffle(rnd, input)
		if len(out) != len(input) {
			t.Fatalf("expected %d items, got %d", len(input), len(out))
		}
		sorted := append([]int(nil), out...)
		sort.Ints(sorted)
		for j := range sorted {
			if sorted[j] != original[j] {
				t.Fatalf("shuffle is not a permutation: %v", out)
			}
		}
	}
	for i := range input {
		if input[i] != original[i] {
			t.Fatalf("input mutated: %v", input)
		}
	}
}

func TestShuffleEmpty(t *testing.T) {
	if out := app.Shuffle[string](nil, nil); out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}

func TestShuffleEventuallyReorders(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	input := []string{"a", "b", "c", "d"}
	for i := 0; i < 100; i++ {
		out := app.Shuffle(rnd, input)
		for j := range out {
			if out[j] != input[j] {
				return
			}
		}
	}
	t.Fatalf("100 shuffles never changed the order")
}

func TestShuffleWithLimit(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	input := []int{1, 2, 3, 4, 5}
	if got := app.ShuffleWithLimit(rnd, input, 2); len(got) != 2 {
		t.Fatalf("expected 2 items, got %v", got)
	}
	if got := app.ShuffleWithLimit(rnd, input, 0); len(got) != 5 {
		t.Fatalf("limit 0 should keep everything, got %v", got)
	}
	if got := app.ShuffleWithLimit(rnd, input, 99); len(got) != 5 {
		t.Fatalf("limit above length should keep everything, got %v", got)
	}
}
