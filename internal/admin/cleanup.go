package admin

// CleanupPass is the outcome of one deletion pass of the reset
// cascade.
type CleanupPass struct {
	Name    string
	Deleted int64
	Err     error
}

// CleanupReport collects the passes in execution order.
type CleanupReport []CleanupPass

// Deleted sums the messages removed across all successful passes.
func (r CleanupReport) Deleted() int64 {
	var total int64
	for _, pass := range r {
		if pass.Err == nil {
			total += pass.Deleted
		}
	}
	return total
}

// Failures counts the passes that errored.
func (r CleanupReport) Failures() int {
	n := 0
	for _, pass := range r {
		if pass.Err != nil {
			n++
		}
	}
	return n
}
