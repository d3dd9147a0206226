package dsp

// History keeps the last Cap() spectrum snapshots in a ring.
type History struct {
	rows   [][]float64
	cursor int
	filled int
}

// NewHistory allocates capacity rows of bins values each.
func NewHistory(capacity, bins int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	rows := make([][]float64, capacity)
	for i := range rows {
		rows[i] = make([]float64, bins)
	}
	return &History{rows: rows}
}

// Push copies row into the slot under the cursor and advances it.
func (h *History) Push(row []float64) {
	copy(h.rows[h.cursor], row)
	h.cursor = (h.cursor + 1) % len(h.rows)
	if h.filled < len(h.rows) {
		h.filled++
	}
}

// Rows returns the stored snapshots, oldest first.
func (h *History) Rows() [][]float64 {
	out := make([][]float64, 0, h.filled)
	start := 0
	if h.filled == len(h.rows) {
		start = h.cursor
	}
	for i := 0; i < h.filled; i++ {
		out = append(out, h.rows[(start+i)%len(h.rows)])
	}
	return out
}

// Cursor returns the index the next Push writes to.
func (h *History) Cursor() int { return h.cursor }

// Len returns how many rows hold data.
func (h *History) Len() int { return h.filled }

// Cap returns the ring capacity.
func (h *History) Cap() int { return len(h.rows) }
