// Package collection provides small generic slice helpers.
//
//	ids := collection.Map(items, func(it models.OrderItem) uint { return it.ProductID })
//	farmers := collection.Unique(farmerIDs)
//	total := collection.Reduce(items, decimal.Zero, func(acc decimal.Decimal, it models.OrderItem) decimal.Decimal {
//	    return acc.Add(it.Total)
//	})
package collection

// Map transforms each element of s using fn. The result is never nil.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// Unique returns s without duplicates, keeping first occurrences in order.
func Unique[T comparable](s []T) []T {
	seen := make(map[T]struct{}, len(s))
	out := make([]T, 0, len(s))
	for _, v := range s {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Reduce folds s into a single value using fn, starting with initial.
func Reduce[T, R any](s []T, initial R, fn func(carry R, item T) R) R {
	carry := initial
	for _, v := range s {
		carry = fn(carry, v)
	}
	return carry
}
