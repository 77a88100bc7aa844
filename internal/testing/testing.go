// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
)

// MockAdapter is a test double for services.Adapter
//
// Results are keyed by query. Gates, when set for a query, hold the call until the channel is closed or the context ends.
type MockAdapter struct {
	Src     models.Source
	Results map[string][]models.Track
	Err     error
	Gates   map[string]chan struct{}
	OnCall  func(query string)

	mu    sync.Mutex
	calls []string
}

// NewMockAdapter creates a [MockAdapter] for src returning results.
func NewMockAdapter(src models.Source, results map[string][]models.Track) *MockAdapter {
	return &MockAdapter{Src: src, Results: results, Gates: map[string]chan struct{}{}}
}

func (m *MockAdapter) Source() models.Source { return m.Src }

func (m *MockAdapter) Search(ctx context.Context, query string) ([]models.Track, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	gate := m.Gates[query]
	hook := m.OnCall
	m.mu.Unlock()

	if hook != nil {
		hook(query)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	tracks := m.Results[query]
	out := make([]models.Track, len(tracks))
	copy(out, tracks)
	return out, nil
}

// Calls returns the queries received so far.
func (m *MockAdapter) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Gate installs a gate for query and returns the function that releases it.
func (m *MockAdapter) Gate(query string) (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.Gates[query] = ch
	m.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// FakeScheduler is a manually advanced [shared.Scheduler].
//
// Actions run synchronously on the goroutine calling [FakeScheduler.Advance], in due-time order.
type FakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *FakeScheduler
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

// NewFakeScheduler creates a [FakeScheduler] at time zero.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

// AfterFunc implements [shared.Scheduler].
func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) shared.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &fakeTimer{s: s, at: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every action that becomes due, including ones scheduled by fired actions.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.nextDue(target)
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = next.at
		next.fired = true
		s.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of actions waiting to fire.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Now returns the elapsed fake time.
func (s *FakeScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *FakeScheduler) nextDue(target time.Duration) *fakeTimer {
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	return due[0]
}

// FixedRand is a deterministic random source for the playlist builder.
//
// Float64 cycles through Floats (0 when empty). IntN cycles through Ints modulo n, or returns n-1 when Ints is empty,
// which makes a Fisher-Yates shuffle leave the order untouched.
type FixedRand struct {
	Floats []float64
	Ints   []int

	fi, ii int
}

func (r *FixedRand) Float64() float64 {
	if len(r.Floats) == 0 {
		return 0
	}
	v := r.Floats[r.fi%len(r.Floats)]
	r.fi++
	return v
}

func (r *FixedRand) IntN(n int) int {
	if len(r.Ints) == 0 {
		return n - 1
	}
	v := r.Ints[r.ii%len(r.Ints)] % n
	r.ii++
	return v
}

// RecordingOutput is a test double for player.Output that records every call.
type RecordingOutput struct {
	mu      sync.Mutex
	Source  string
	Loads   []string
	Plays   int
	Pauses  int
	Stops   int
	PlayErr error
	playing bool
}

func (o *RecordingOutput) Load(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Source = url
	o.Loads = append(o.Loads, url)
	o.playing = false
	return nil
}

func (o *RecordingOutput) Play(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Plays++
	if o.PlayErr != nil {
		return o.PlayErr
	}
	o.playing = true
	return nil
}

func (o *RecordingOutput) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Pauses++
	o.playing = false
	return nil
}

func (o *RecordingOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Stops++
	o.Source = ""
	o.playing = false
	return nil
}

// Playing reports whether Play succeeded since the last Load, Pause or Stop.
func (o *RecordingOutput) Playing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}

// LoadCount returns the number of Load calls.
func (o *RecordingOutput) LoadCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.Loads)
}

// Drain collects every event currently buffered in ch.
func Drain(ch <-chan models.Event) []models.Event {
	var events []models.Event
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			return events
		}
	}
}

// FindEvents returns the events of the given kind.
func FindEvents(events []models.Event, kind models.EventKind) []models.Event {
	var out []models.Event
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// SyncBuffer is a [bytes.Buffer] safe for concurrent writers, such as several loggers derived with With.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}
