package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	unauthorized    uint64
	totalDurationMs uint64

	mu   sync.Mutex
	jobs map[string]*jobCounts
}

type jobCounts struct {
	Runs     uint64 `json:"runs"`
	Failures uint64 `json:"failures"`
}

func New() *Collector {
	return &Collector{jobs: map[string]*jobCounts{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == http.StatusTooManyRequests {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	if status == http.StatusUnauthorized {
		atomic.AddUint64(&c.unauthorized, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordJob(jobType string, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts, ok := c.jobs[jobType]
	if !ok {
		counts = &jobCounts{}
		c.jobs[jobType] = counts
	}
	counts.Runs++
	if failed {
		counts.Failures++
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	unauthorized := atomic.LoadUint64(&c.unauthorized)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	jobs := make(map[string]jobCounts, len(c.jobs))
	for name, counts := range c.jobs {
		jobs[name] = *counts
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":     total,
		"errorsTotal":       errs,
		"rateLimitedTotal":  limited,
		"unauthorizedTotal": unauthorized,
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"jobs":              jobs,
	}
}
