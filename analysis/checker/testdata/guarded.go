package main

import "sync"

type counter struct {
	mu sync.Mutex
	n  int // guardedby: mu
}

func (c *counter) bump() {
	c.n++
}

func (c *counter) bumpLocked() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	c.n++
}

// guardedby: this.mu
func (c *counter) reset() {
	c.n = 0
}

func (c *counter) callReset() {
	c.reset()
}

func main() {
	c := new(counter)
	c.bump()
}
