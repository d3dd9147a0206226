package timeline

// Cursor walks a timeline for a consumer whose time only moves forward,
// keeping the scan position between calls. A Cursor is not safe for
// concurrent use; give each consumer its own.
type Cursor struct {
	tl    *Timeline
	index int
}

// NewCursor starts a cursor before the first event.
func (t *Timeline) NewCursor() *Cursor {
	return &Cursor{tl: t}
}

// Advance skips events that ended before now and returns the event
// containing now, if any. Call Reset after seeking backwards.
func (c *Cursor) Advance(now float64) (BassEvent, bool) {
	events := c.tl.events
	for c.index < len(events) && events[c.index].End < now {
		c.index++
	}
	if c.index < len(events) && events[c.index].Contains(now) {
		return events[c.index], true
	}
	return BassEvent{}, false
}

// Index returns the position of the next event that has not ended.
func (c *Cursor) Index() int { return c.index }

// Reset rewinds to the first event.
func (c *Cursor) Reset() { c.index = 0 }
