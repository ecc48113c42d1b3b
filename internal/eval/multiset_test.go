package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultisetAddCancelsToZero(t *testing.T) {
	m := NewMultiset()
	m.Add(row(1, 2), 2)
	m.Add(row(1, 2), -2)

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, int64(0), m.Count(row(1, 2)))
}

func TestMultisetEqual(t *testing.T) {
	a := NewMultiset()
	a.Add(row(1), 1)
	a.Add(row(2), -3)

	b := NewMultiset()
	b.Add(row(2), -3)
	b.Add(row(1), 1)

	assert.True(t, a.Equal(b))

	b.Add(row(1), 1)
	assert.False(t, a.Equal(b))
}

func TestMultisetSortedOrder(t *testing.T) {
	m := NewMultiset()
	m.Add(row(2, 1), 1)
	m.Add(row(1, 9), 1)
	m.Add(row(1, 2), 1)

	got := m.Sorted()
	assert.Equal(t, []Entry{
		{Row: row(1, 2), Count: 1},
		{Row: row(1, 9), Count: 1},
		{Row: row(2, 1), Count: 1},
	}, got)
}

func TestMultisetDistinguishesRowWidths(t *testing.T) {
	m := NewMultiset()
	m.Add(row(1, 2), 1)
	m.Add(row(12), 1)

	assert.Equal(t, 2, m.Len())
}
