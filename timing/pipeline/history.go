package pipeline

// History is the append-only log of cycle records produced by a run.
// Only the pipeline appends; readers get copies.
type History struct {
	records []CycleRecord
}

func (h *History) append(record CycleRecord) {
	h.records = append(h.records, record)
}

func (h *History) reset() {
	h.records = nil
}

// Len returns the number of recorded cycles.
func (h *History) Len() int {
	return len(h.records)
}

// At returns the i-th record (cycle i+1).
func (h *History) At(i int) CycleRecord {
	return h.records[i]
}

// Last returns the most recent record, if any.
func (h *History) Last() (CycleRecord, bool) {
	if len(h.records) == 0 {
		return CycleRecord{}, false
	}
	return h.records[len(h.records)-1], true
}

// Records returns a copy of all records in cycle order.
func (h *History) Records() []CycleRecord {
	out := make([]CycleRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Each calls fn for every record in cycle order until fn returns false.
func (h *History) Each(fn func(CycleRecord) bool) {
	for _, r := range h.records {
		if !fn(r) {
			return
		}
	}
}
