// Package vectorindex implements a flat exhaustive-scan similarity index over
// fixed-dimension float64 vectors, with a simple binary on-disk format.
package vectorindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
)

const (
	fileMagic   = "FLIX"
	fileVersion = 1
)

// ErrDimensionMismatch is returned when a vector's length differs from the
// index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Result is one search hit: the insertion position of the vector and its
// squared L2 distance from the query.
type Result struct {
	Position int
	Distance float64
}

// FlatIndex stores vectors in insertion order and answers nearest-neighbor
// queries by scanning all of them. It is not safe for concurrent mutation.
type FlatIndex struct {
	dim     int
	vectors [][]float64
}

// New returns an empty index for vectors of the given dimension.
func New(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Dimension returns the vector dimension the index accepts.
func (ix *FlatIndex) Dimension() int { return ix.dim }

// Len returns the number of stored vectors.
func (ix *FlatIndex) Len() int { return len(ix.vectors) }

// Add appends a vector and returns its position.
func (ix *FlatIndex) Add(vec []float64) (int, error) {
	if len(vec) != ix.dim {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), ix.dim)
	}
	stored := make([]float64, ix.dim)
	copy(stored, vec)
	ix.vectors = append(ix.vectors, stored)
	return len(ix.vectors) - 1, nil
}

// Search returns the k vectors nearest to query by squared L2 distance, in
// ascending order. Equal distances rank by lower position. k larger than the
// index is clamped.
func (ix *FlatIndex) Search(query []float64, k int) ([]Result, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), ix.dim)
	}
	if k <= 0 || ix.Len() == 0 {
		return nil, nil
	}
	results := make([]Result, len(ix.vectors))
	for i, vec := range ix.vectors {
		var dist float64
		for j, q := range query {
			d := q - vec[j]
			dist += d * d
		}
		results[i] = Result{Position: i, Distance: dist}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Distance < results[b].Distance
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Save writes the index to path atomically.
func (ix *FlatIndex) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := ix.write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

func (ix *FlatIndex) write(w io.Writer) error {
	if _, err := w.Write([]byte(fileMagic)); err != nil {
		return err
	}
	header := []interface{}{
		uint32(fileVersion),
		uint32(ix.dim),
		uint64(len(ix.vectors)),
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	buf := make([]byte, 8)
	for _, vec := range ix.vectors {
		for _, f := range vec {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads an index from path and verifies it holds vectors of the
// expected dimension.
func Load(path string, dim int) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, fmt.Errorf("read index header: %w", err)
	}
	if string(magic) != fileMagic {
		return nil, fmt.Errorf("not an index file: bad magic %q", magic)
	}
	var version, fileDim uint32
	var count uint64
	if err := binary.Read(f, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("read index version: %w", err)
	}
	if version != fileVersion {
		return nil, fmt.Errorf("unsupported index version %d", version)
	}
	if err := binary.Read(f, binary.LittleEndian, &fileDim); err != nil {
		return nil, fmt.Errorf("read index dimension: %w", err)
	}
	if int(fileDim) != dim {
		return nil, fmt.Errorf("%w: file has %d, want %d", ErrDimensionMismatch, fileDim, dim)
	}
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read index count: %w", err)
	}

	ix := New(dim)
	buf := make([]byte, 8)
	for i := uint64(0); i < count; i++ {
		vec := make([]float64, dim)
		for j := 0; j < dim; j++ {
			if _, err := io.ReadFull(f, buf); err != nil {
				return nil, fmt.Errorf("read vector %d: %w", i, err)
			}
			vec[j] = math.Float64frombits(binary.LittleEndian.Uint64(buf))
		}
		ix.vectors = append(ix.vectors, vec)
	}
	return ix, nil
}
