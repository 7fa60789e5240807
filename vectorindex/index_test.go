package vectorindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchOrdersByDistance(t *testing.T) {
	ix := New(2)
	for _, vec := range [][]float64{
		{10, 0},
		{1, 0},
		{3, 0},
	} {
		_, err := ix.Add(vec)
		require.NoError(t, err)
	}

	results, err := ix.Search([]float64{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Position)
	assert.Equal(t, 2, results[1].Position)
	assert.InDelta(t, 1.0, results[0].Distance, 1e-12)
	assert.InDelta(t, 9.0, results[1].Distance, 1e-12)
}

func TestSearchTiesRankByPosition(t *testing.T) {
	ix := New(2)
	for _, vec := range [][]float64{
		{1, 0},
		{0, 1},
		{-1, 0},
	} {
		_, err := ix.Add(vec)
		require.NoError(t, err)
	}

	results, err := ix.Search([]float64{0, 0}, 3)
	require.NoError(t, err)
	positions := []int{results[0].Position, results[1].Position, results[2].Position}
	assert.Equal(t, []int{0, 1, 2}, positions)
}

func TestSearchClampsK(t *testing.T) {
	ix := New(1)
	_, err := ix.Add([]float64{1})
	require.NoError(t, err)

	results, err := ix.Search([]float64{0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := New(3)
	results, err := ix.Search([]float64{0, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAddRejectsWrongDimension(t *testing.T) {
	ix := New(3)
	_, err := ix.Add([]float64{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ix := New(3)
	vectors := [][]float64{
		{0.1, 0.2, 0.3},
		{-1.5, 2.25, 0},
	}
	for _, vec := range vectors {
		_, err := ix.Add(vec)
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "main_vector_index.bin")
	require.NoError(t, ix.Save(path))

	loaded, err := Load(path, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())

	results, err := loaded.Search([]float64{0.1, 0.2, 0.3}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, results[0].Position)
	assert.InDelta(t, 0, results[0].Distance, 1e-12)
}

func TestLoadRejectsWrongDimension(t *testing.T) {
	ix := New(2)
	_, err := ix.Add([]float64{1, 2})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "main_vector_index.bin")
	require.NoError(t, ix.Save(path))

	_, err = Load(path, 4)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
