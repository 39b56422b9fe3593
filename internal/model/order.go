package model

import (
	"cmp"
	"slices"
)

// SortNewestFirst orders tasks by CreatedAt descending, ties broken by ID.
func SortNewestFirst(tasks []Task) {
	slices.SortFunc(tasks, func(a, b Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
