// Package timing accumulates wall-clock time spent in named sections of the
// training loop for the periodic status report.
package timing

import (
	"fmt"
	"strings"
	"time"
)

type section struct {
	count int
	total time.Duration
}

// Clock accumulates elapsed time per section. A nil *Clock is valid and
// measures nothing, so callers can probe unconditionally.
//
// The intended pattern threads a timestamp through a sequence of stages:
//
//	t := clock.Start()
//	...stage one...
//	t = clock.End("one", t)
//	...stage two...
//	t = clock.End("two", t)
type Clock struct {
	order    []string
	sections map[string]*section
}

// New returns an empty Clock.
func New() *Clock {
	return &Clock{sections: make(map[string]*section)}
}

// Start returns the current time, or the zero time on a nil Clock.
func (c *Clock) Start() time.Time {
	if c == nil {
		return time.Time{}
	}
	return time.Now()
}

// End charges the time elapsed since t to the named section and returns the
// current time, so consecutive stages can chain. On a nil Clock it returns
// the zero time.
func (c *Clock) End(name string, t time.Time) time.Time {
	if c == nil {
		return time.Time{}
	}
	now := time.Now()
	s := c.sections[name]
	if s == nil {
		s = &section{}
		c.sections[name] = s
		c.order = append(c.order, name)
	}
	s.count++
	s.total += now.Sub(t)
	return now
}

// Stats renders one line per section, in first-use order, with the call
// count, total and mean elapsed time.
func (c *Clock) Stats() string {
	if c == nil || len(c.order) == 0 {
		return ""
	}
	var b strings.Builder
	for i, name := range c.order {
		if i > 0 {
			b.WriteByte('\n')
		}
		s := c.sections[name]
		mean := s.total / time.Duration(s.count)
		fmt.Fprintf(&b, "%-16s %8d calls  total %12v  mean %10v", name, s.count, s.total, mean)
	}
	return b.String()
}
