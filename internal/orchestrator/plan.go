package orchestrator

// Plan is the chunk layout of a run.
type Plan struct {
	Count int
	Size  int64
}

// NewPlan splits amount into round(amount / chunkSize) chunks of chunkSize
// values, rounding half up and never producing fewer than one chunk. A single
// chunk holds exactly amount values.
//
// With several chunks, Count*Size can differ from amount by up to half a
// chunk in either direction. amount=25, chunkSize=10 yields 3 chunks of 10.
func NewPlan(amount, chunkSize int64) Plan {
	count, rem := amount/chunkSize, amount%chunkSize
	if rem >= chunkSize-rem {
		count++
	}
	if count <= 1 {
		return Plan{Count: 1, Size: amount}
	}
	return Plan{Count: int(count), Size: chunkSize}
}

// Total returns the number of values the plan produces.
func (p Plan) Total() int64 {
	return int64(p.Count) * p.Size
}
