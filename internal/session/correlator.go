// Package session holds the single in-flight OLQ question set between the
// fetch that issued it and the submission that consumes it.
package session

import (
	"sync"

	"github.com/kingrea/careerpath/internal/career"
)

// Correlator binds a question set to the session it arrived with. Binding a
// new set replaces the previous one outright.
type Correlator struct {
	mu   sync.Mutex
	set  career.QuestionSet
	held bool
}

// Bind stores set, discarding whatever was held before.
func (c *Correlator) Bind(set career.QuestionSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = set
	c.held = true
}

// Held reports whether a question set is waiting to be submitted.
func (c *Correlator) Held() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held
}

// Questions returns the held questions in server order.
func (c *Correlator) Questions() []career.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.held {
		return nil
	}
	return c.set.Questions()
}

// SessionID returns the correlation token of the held set, if it has one.
func (c *Correlator) SessionID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.held {
		return "", false
	}
	return c.set.SessionID()
}

// Snapshot returns the held set without releasing it.
func (c *Correlator) Snapshot() (career.QuestionSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set, c.held
}

// Release drops the held set after a successful submission.
func (c *Correlator) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = career.QuestionSet{}
	c.held = false
}
