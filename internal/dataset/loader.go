// Cinegraph - Movie Recommendation and Metadata Enrichment Service
// Copyright 2026 Cinegraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package dataset

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

// Load reads the catalog and similarity matrix artifacts and builds a Store.
//
// The catalog is a JSON array of items ({"id": ..., "title": ...}) and the
// matrix is a JSON 2-D array of floats in row-major order, same ordering as
// the catalog. A matrix file ending in ".gz" is transparently decompressed.
//
// Loading is all-or-nothing: any read, decode, or shape error is reported
// as ErrDatasetUnavailable and no Store is returned.
func Load(catalogPath, matrixPath string) (*Store, error) {
	items, err := loadCatalog(catalogPath)
	if err != nil {
		return nil, err
	}

	matrix, err := loadMatrix(matrixPath)
	if err != nil {
		return nil, err
	}

	return NewStore(items, matrix)
}

func loadCatalog(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open catalog: %v", ErrDatasetUnavailable, err)
	}
	defer f.Close()

	var items []Item
	if err := json.NewDecoder(f).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode catalog %s: %v", ErrDatasetUnavailable, path, err)
	}
	return items, nil
}

func loadMatrix(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open matrix: %v", ErrDatasetUnavailable, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: gunzip matrix %s: %v", ErrDatasetUnavailable, path, err)
		}
		defer gz.Close()
		r = gz
	}

	var matrix [][]float64
	if err := json.NewDecoder(r).Decode(&matrix); err != nil {
		return nil, fmt.Errorf("%w: decode matrix %s: %v", ErrDatasetUnavailable, path, err)
	}
	return matrix, nil
}
