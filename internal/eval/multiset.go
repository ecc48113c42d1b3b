package eval

import (
	"slices"
	"strconv"
	"strings"
)

// Multiset is a finite collection of rows with signed multiplicities.
// Rows with multiplicity zero are not stored.
type Multiset struct {
	mult map[string]int64
	rows map[string][]int64
}

// Entry is one row of a multiset with its multiplicity.
type Entry struct {
	Row   []int64
	Count int64
}

func NewMultiset() *Multiset {
	return &Multiset{
		mult: make(map[string]int64),
		rows: make(map[string][]int64),
	}
}

// Add adjusts the multiplicity of row by n, dropping the row when the
// total reaches zero.
func (m *Multiset) Add(row []int64, n int64) {
	if n == 0 {
		return
	}
	k := rowKey(row)
	total := m.mult[k] + n
	if total == 0 {
		delete(m.mult, k)
		delete(m.rows, k)
		return
	}
	m.mult[k] = total
	if _, ok := m.rows[k]; !ok {
		m.rows[k] = row
	}
}

// Count returns the multiplicity of row.
func (m *Multiset) Count(row []int64) int64 {
	return m.mult[rowKey(row)]
}

// Len returns the number of distinct rows with nonzero multiplicity.
func (m *Multiset) Len() int {
	return len(m.mult)
}

// Equal reports whether both multisets hold the same rows with the same
// multiplicities.
func (m *Multiset) Equal(o *Multiset) bool {
	if len(m.mult) != len(o.mult) {
		return false
	}
	for k, n := range m.mult {
		if o.mult[k] != n {
			return false
		}
	}
	return true
}

// Sorted returns the entries in lexicographic row order.
func (m *Multiset) Sorted() []Entry {
	out := make([]Entry, 0, len(m.mult))
	for k, n := range m.mult {
		out = append(out, Entry{Row: m.rows[k], Count: n})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return slices.Compare(a.Row, b.Row)
	})
	return out
}

func rowKey(row []int64) string {
	var b strings.Builder
	for i, v := range row {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(v, 10))
	}
	return b.String()
}
