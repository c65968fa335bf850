package pipeline

// RunStats tracks aggregate counters and byte totals across a conversion run.
type RunStats struct {
	Total            int // Pending entries at run start.
	Converted        int
	Failed           int
	Skipped          int
	TotalInputBytes  int64
	TotalOutputBytes int64
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}

// Done reports how many entries have finished, either way.
func (s *RunStats) Done() int { return s.Converted + s.Failed }
