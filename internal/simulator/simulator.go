// Package simulator is the stand-in for a network layer: it decorates the
// synchronous backend operations with a uniform artificial latency and an
// append-only request log broadcast to subscribers. It adds no semantics of
// its own; swapping the latency to zero gives tests the undecorated behavior.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/knowledgebot/backend/internal/metrics"
	"github.com/knowledgebot/backend/internal/repository"
	"github.com/knowledgebot/backend/pkg/logger"
)

// DefaultLatency mirrors the original product's fixed round-trip delay.
const DefaultLatency = 400 * time.Millisecond

// ErrNoRoute reports a dispatch to an endpoint missing from the route table.
// This is a programming error, not a simulated 404: no log entry is recorded.
var ErrNoRoute = errors.New("simulator: no route for endpoint")

// LogEntry is one synthetic request record.
type LogEntry struct {
	Method    string    `json:"method"`
	Endpoint  string    `json:"endpoint"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Payload   string    `json:"payload,omitempty"`
}

// Request carries the decoded call into a handler. ID holds the trailing
// path parameter for routes registered with a parameter segment.
type Request struct {
	ID   string
	Body any
}

// Handler executes one backend operation.
type Handler func(ctx context.Context, req Request) (any, error)

// Route binds an endpoint to its operation. SuccessStatus distinguishes
// creation (201) from plain success (200); failures are mapped uniformly by
// the dispatcher.
type Route struct {
	Method        string
	Path          string
	HasParam      bool
	SuccessStatus int
	Handler       Handler
	// Summary produces the payload summary recorded in the log entry.
	Summary func(req Request, result any) string
}

// Dispatcher imposes the latency, resolves routes, and maintains the log and
// subscriber registry.
type Dispatcher struct {
	latency time.Duration
	routes  []Route

	mu      sync.Mutex
	logs    []LogEntry
	subs    map[int]func(LogEntry)
	nextSub int
}

func New(latency time.Duration, routes []Route) *Dispatcher {
	return &Dispatcher{
		latency: latency,
		routes:  routes,
		subs:    make(map[int]func(LogEntry)),
	}
}

// Subscribe registers a callback invoked synchronously for every new log
// entry. The returned func removes the subscription.
func (d *Dispatcher) Subscribe(fn func(LogEntry)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}

// Logs returns a copy of the append-only request log.
func (d *Dispatcher) Logs() []LogEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]LogEntry{}, d.logs...)
}

func (d *Dispatcher) Get(ctx context.Context, endpoint string) (any, error) {
	return d.Do(ctx, "GET", endpoint, nil)
}

func (d *Dispatcher) Post(ctx context.Context, endpoint string, body any) (any, error) {
	return d.Do(ctx, "POST", endpoint, body)
}

func (d *Dispatcher) Put(ctx context.Context, endpoint string, body any) (any, error) {
	return d.Do(ctx, "PUT", endpoint, body)
}

func (d *Dispatcher) Delete(ctx context.Context, endpoint string) (any, error) {
	return d.Do(ctx, "DELETE", endpoint, nil)
}

// Do dispatches one simulated request: wait the fixed latency, run the
// operation, record exactly one log entry reflecting the outcome, and notify
// every subscriber once.
func (d *Dispatcher) Do(ctx context.Context, method, endpoint string, body any) (any, error) {
	route, id, ok := d.resolve(method, endpoint)
	if !ok {
		logger.Error("Dispatched to unmapped endpoint",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
		)
		return nil, fmt.Errorf("%w: %s %s", ErrNoRoute, method, endpoint)
	}

	start := time.Now()
	if d.latency > 0 {
		select {
		case <-time.After(d.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	req := Request{ID: id, Body: body}
	result, err := route.Handler(ctx, req)

	status := route.SuccessStatus
	if err != nil {
		if errors.Is(err, repository.ErrUnauthorized) {
			status = 401
		} else {
			status = 500
		}
	}

	entry := LogEntry{
		Method:    method,
		Endpoint:  endpoint,
		Status:    status,
		Timestamp: time.Now(),
	}
	if err == nil && route.Summary != nil {
		entry.Payload = route.Summary(req, result)
	}
	d.record(entry)

	metrics.RequestTotal.WithLabelValues(method, route.Path, fmt.Sprintf("%d", status)).Inc()
	metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Warn("Simulated request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", status),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Debug("Simulated request completed",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", status),
	)
	return result, nil
}

func (d *Dispatcher) resolve(method, endpoint string) (Route, string, bool) {
	for _, r := range d.routes {
		if r.Method != method {
			continue
		}
		if !r.HasParam {
			if r.Path == endpoint {
				return r, "", true
			}
			continue
		}
		prefix := r.Path + "/"
		if strings.HasPrefix(endpoint, prefix) {
			id := strings.TrimPrefix(endpoint, prefix)
			if id != "" && !strings.Contains(id, "/") {
				return r, id, true
			}
		}
	}
	return Route{}, "", false
}

func (d *Dispatcher) record(entry LogEntry) {
	d.mu.Lock()
	d.logs = append(d.logs, entry)
	callbacks := make([]func(LogEntry), 0, len(d.subs))
	for _, fn := range d.subs {
		callbacks = append(callbacks, fn)
	}
	d.mu.Unlock()

	for _, fn := range callbacks {
		fn(entry)
	}
}
