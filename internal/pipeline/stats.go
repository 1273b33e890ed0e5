package pipeline

// RunStats tracks aggregate counters across a batch run. It is written only
// by the single driving goroutine.
type RunStats struct {
	Total   int
	Current int
	Updated int
	Skipped int
	Failed  int
}
