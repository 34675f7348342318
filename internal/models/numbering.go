package models

// NextNumber returns max(existing)+1, or 1 for an empty collection.
func NextNumber(existing []int) int {
	highest := 0
	for _, n := range existing {
		if n > highest {
			highest = n
		}
	}
	return highest + 1
}

// ReconcileCounter returns the number to hand out next given the cached
// counter and the numbers already issued. The counter never falls behind
// the collection, and never rewinds after deletions.
func ReconcileCounter(cached int, existing []int) int {
	next := NextNumber(existing)
	if cached > next {
		return cached
	}
	return next
}
