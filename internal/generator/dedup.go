package generator

// dedupTracker suppresses re-emission of test names within one session.
// The name is the sole dedup key; two distinct tests that share a name
// collide and the second is dropped. Only the session's single consumption
// loop touches it, so no locking is needed.
type dedupTracker struct {
	emitted map[string]struct{}
}

func newDedupTracker() *dedupTracker {
	return &dedupTracker{emitted: make(map[string]struct{})}
}

func (d *dedupTracker) shouldEmit(name string) bool {
	_, seen := d.emitted[name]
	return !seen
}

func (d *dedupTracker) markEmitted(name string) {
	d.emitted[name] = struct{}{}
}
