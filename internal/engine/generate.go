package engine

import (
	"math/rand/v2"

	"github.com/m-mizutani/goerr/v2"
)

// Product returns the cartesian product of two level lists, first list
// varying slowest.
func Product[A, B, C any](as []A, bs []B, combine func(A, B) C) []C {
	out := make([]C, 0, len(as)*len(bs))
	for _, a := range as {
		for _, b := range bs {
			out = append(out, combine(a, b))
		}
	}
	return out
}

// Replicate concatenates n copies of items.
func Replicate[T any](items []T, n int) []T {
	if n <= 0 {
		return nil
	}
	out := make([]T, 0, len(items)*n)
	for i := 0; i < n; i++ {
		out = append(out, items...)
	}
	return out
}

// Shuffle permutes items in place.
func Shuffle[T any](r *rand.Rand, items []T) {
	r.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
}

// Sample draws k distinct elements without replacement, in draw order.
func Sample[T any](r *rand.Rand, universe []T, k int) ([]T, error) {
	if k < 0 || k > len(universe) {
		return nil, goerr.New("sample larger than population",
			goerr.V("k", k), goerr.V("population", len(universe)))
	}
	idx := r.Perm(len(universe))[:k]
	out := make([]T, k)
	for i, j := range idx {
		out[i] = universe[j]
	}
	return out, nil
}

// Complement returns the members of universe not in subset, in universe order.
func Complement[T comparable](universe, subset []T) []T {
	used := make(map[T]struct{}, len(subset))
	for _, v := range subset {
		used[v] = struct{}{}
	}
	out := make([]T, 0, len(universe))
	for _, v := range universe {
		if _, ok := used[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

// Choice picks one element uniformly at random.
func Choice[T any](r *rand.Rand, items []T) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, goerr.New("cannot choose from an empty sequence")
	}
	return items[r.IntN(len(items))], nil
}
