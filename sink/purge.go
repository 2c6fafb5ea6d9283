package sink

// purgeCounter tracks processed samples since the last purge by event
// sequence number, so samples the dispatcher dropped before reaching a sink
// still count toward its cadence. Events without a sequence number count as one.
type purgeCounter struct {
	since   uint64
	lastSeq uint64
}

func (c *purgeCounter) advance(seq uint64) {
	switch {
	case seq > c.lastSeq:
		c.since += seq - c.lastSeq
		c.lastSeq = seq
	default:
		c.since++
	}
}

func (c *purgeCounter) due(every uint64) bool {
	return every > 0 && c.since >= every
}

func (c *purgeCounter) reset() {
	c.since = 0
}
