// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package dataset

import (
	"errors"
	"fmt"
)

// Sentinel errors for dataset operations.
var (
	// ErrDatasetUnavailable indicates the backing data could not be loaded.
	// The store never partially initializes; this error means no catalog
	// or matrix is available at all.
	ErrDatasetUnavailable = errors.New("dataset unavailable")

	// ErrNotFound indicates no catalog item matched a title lookup.
	ErrNotFound = errors.New("title not found")

	// ErrIndexOutOfRange indicates an item index outside the catalog bounds.
	// Callers are expected to pass validated indices; hitting this error is
	// a programming bug, not a user condition.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Item is a single catalog entry. Items are immutable once loaded.
type Item struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Store holds the immutable movie catalog and the precomputed pairwise
// similarity matrix. All lookups are read-only and lock-free; the store is
// built once at startup and never mutated afterwards, so it is safe for
// concurrent use without synchronization.
//
// Titles are not guaranteed unique in the catalog. LookupByTitle resolves
// duplicates to the first occurrence in load order, which keeps results
// stable across runs.
type Store struct {
	items      []Item
	titleIndex map[string]int
	matrix     [][]float64
}

// NewStore builds a store from a catalog and its similarity matrix.
// The matrix must be square with one row per catalog item; any shape
// mismatch is reported as ErrDatasetUnavailable since it means the two
// artifacts do not belong together.
func NewStore(items []Item, matrix [][]float64) (*Store, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty catalog", ErrDatasetUnavailable)
	}
	if len(matrix) != len(items) {
		return nil, fmt.Errorf("%w: matrix has %d rows for %d items",
			ErrDatasetUnavailable, len(matrix), len(items))
	}
	for i, row := range matrix {
		if len(row) != len(items) {
			return nil, fmt.Errorf("%w: matrix row %d has %d columns, want %d",
				ErrDatasetUnavailable, i, len(row), len(items))
		}
	}

	// First occurrence wins for duplicate titles.
	titleIndex := make(map[string]int, len(items))
	for i, item := range items {
		if _, exists := titleIndex[item.Title]; !exists {
			titleIndex[item.Title] = i
		}
	}

	return &Store{
		items:      items,
		titleIndex: titleIndex,
		matrix:     matrix,
	}, nil
}

// Count returns the number of catalog items.
func (s *Store) Count() int {
	return len(s.items)
}

// LookupByTitle returns the catalog index of the first item with the given
// title, or ErrNotFound if no item has that title.
func (s *Store) LookupByTitle(title string) (int, error) {
	idx, ok := s.titleIndex[title]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, title)
	}
	return idx, nil
}

// ItemAt returns the catalog item at index i.
func (s *Store) ItemAt(i int) (Item, error) {
	if i < 0 || i >= len(s.items) {
		return Item{}, fmt.Errorf("%w: %d (count %d)", ErrIndexOutOfRange, i, len(s.items))
	}
	return s.items[i], nil
}

// Row returns row i of the similarity matrix: the similarity of item i to
// every item in catalog order. The returned slice is a view into the
// store's matrix, not a copy; callers must not modify it.
func (s *Store) Row(i int) ([]float64, error) {
	if i < 0 || i >= len(s.matrix) {
		return nil, fmt.Errorf("%w: %d (count %d)", ErrIndexOutOfRange, i, len(s.matrix))
	}
	return s.matrix[i], nil
}

// Titles returns all catalog titles in load order. The slice is freshly
// allocated and safe for callers to retain.
func (s *Store) Titles() []string {
	titles := make([]string, len(s.items))
	for i, item := range s.items {
		titles[i] = item.Title
	}
	return titles
}
