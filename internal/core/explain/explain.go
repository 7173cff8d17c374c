// Package explain collects counters and timings for --explain output.
package explain

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Explain receives counters and timings for --explain output.
type Explain interface {
	KV(key string, value any)
	Timer(name string) func()
}

type nop struct{}

func (nop) KV(string, any)      {}
func (nop) Timer(string) func() { return func() {} }

// OrNop returns e, or a no-op Explain when e is nil.
func OrNop(e Explain) Explain {
	if e == nil {
		return nop{}
	}
	return e
}

// Collector is an Explain that remembers the order keys and timers were
// first reported in, so the text form reads like the pipeline ran.
type Collector struct {
	mu      sync.Mutex
	format  string
	keys    []string
	kv      map[string]any
	timers  []string
	timings map[string]time.Duration
}

// NewCollector returns a Collector that emits format ("text" or "json").
func NewCollector(format string) *Collector {
	format = strings.TrimSpace(format)
	if format == "" {
		format = "text"
	}
	return &Collector{
		format:  format,
		kv:      map[string]any{},
		timings: map[string]time.Duration{},
	}
}

func (c *Collector) KV(key string, value any) {
	key = strings.TrimSpace(key)
	if c == nil || key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.kv[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.kv[key] = value
}

func (c *Collector) Timer(name string) func() {
	name = strings.TrimSpace(name)
	if c == nil || name == "" {
		return func() {}
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.timings[name]; !ok {
			c.timers = append(c.timers, name)
		}
		c.timings[name] += d
	}
}

// Value returns the last value reported for key.
func (c *Collector) Value(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.kv[key]
	return v, ok
}

func (c *Collector) Emit(w io.Writer) error {
	if c == nil || w == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.format == "json" {
		doc := make(map[string]any, len(c.kv)+1)
		for k, v := range c.kv {
			doc[k] = v
		}
		if len(c.timings) > 0 {
			ms := make(map[string]int64, len(c.timings))
			for k, d := range c.timings {
				ms[k] = d.Milliseconds()
			}
			doc["timings_ms"] = ms
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	if _, err := fmt.Fprintln(w, "explain:"); err != nil {
		return err
	}
	for _, k := range c.keys {
		if _, err := fmt.Fprintf(w, "  %s: %v\n", k, c.kv[k]); err != nil {
			return err
		}
	}
	for _, name := range c.timers {
		if _, err := fmt.Fprintf(w, "  elapsed_ms_%s: %d\n", name, c.timings[name].Milliseconds()); err != nil {
			return err
		}
	}
	return nil
}
