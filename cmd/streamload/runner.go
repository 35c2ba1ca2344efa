package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type stats struct {
	connected   atomic.Int64
	connectErrs atomic.Int64
	streamErrs  atomic.Int64
	heartbeats  atomic.Int64

	mu       sync.Mutex
	byDomain map[string]int64
}

func newStats() *stats {
	return &stats{byDomain: make(map[string]int64)}
}

func (s *stats) event(domain string) {
	s.mu.Lock()
	s.byDomain[domain]++
	s.mu.Unlock()
}

func (s *stats) events() (total int64, byDomain map[string]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDomain = make(map[string]int64, len(s.byDomain))
	for d, n := range s.byDomain {
		byDomain[d] = n
		total += n
	}
	return total, byDomain
}

func (s *stats) summary(elapsed time.Duration) string {
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	total, byDomain := s.events()

	domains := make([]string, 0, len(byDomain))
	for d := range byDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	parts := make([]string, 0, len(domains))
	for _, d := range domains {
		parts = append(parts, fmt.Sprintf("%s=%d", d, byDomain[d]))
	}

	return fmt.Sprintf("done: connected=%d connect_errs=%d stream_errs=%d heartbeats=%d events=%d [%s] elapsed=%s events/s=%.2f",
		s.connected.Load(), s.connectErrs.Load(), s.streamErrs.Load(), s.heartbeats.Load(),
		total, strings.Join(parts, " "), elapsed.Truncate(time.Millisecond), float64(total)/elapsed.Seconds())
}

type runner struct {
	client      *http.Client
	url         string
	lastEventID string
	stats       *stats
}

func (r *runner) subscribe(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		r.stats.connectErrs.Add(1)
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	if r.lastEventID != "" {
		req.Header.Set("Last-Event-ID", r.lastEventID)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.stats.connectErrs.Add(1)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.stats.connectErrs.Add(1)
		return
	}
	r.stats.connected.Add(1)

	if err := consume(resp.Body, r.stats); err != nil && ctx.Err() == nil {
		r.stats.streamErrs.Add(1)
	}
}

// consume reads server-sent events until the body ends, counting events per domain.
func consume(body io.Reader, st *stats) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var domain string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			domain = ""
		case strings.HasPrefix(line, ":"):
			st.heartbeats.Add(1)
		case strings.HasPrefix(line, "event:"):
			domain = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if domain == "" {
				domain = "message"
			}
			st.event(domain)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}

func (r *runner) report(ctx context.Context, logger *zap.Logger, start time.Time) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			total, _ := r.stats.events()
			logger.Info("status",
				zap.Int64("connected", r.stats.connected.Load()),
				zap.Int64("connect_errs", r.stats.connectErrs.Load()),
				zap.Int64("stream_errs", r.stats.streamErrs.Load()),
				zap.Int64("events", total),
				zap.Duration("elapsed", time.Since(start).Truncate(time.Second)),
			)
		}
	}
}
