package listing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQuietPeriod is how long search text must stay unchanged before it
// is committed.
const DefaultQuietPeriod = time.Second

// CommitFunc runs a committed search. ctx is cancelled as soon as a newer
// Submit arrives or the Debouncer is closed.
type CommitFunc func(ctx context.Context, text string)

// Debouncer collapses bursts of search text into a single commit.
type Debouncer struct {
	base  context.Context
	quiet time.Duration

	mu      sync.Mutex
	seq     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	closed  bool
	pending sync.WaitGroup

	committed atomic.Uint64
}

// NewDebouncer returns a Debouncer whose commit contexts derive from base.
func NewDebouncer(base context.Context, quiet time.Duration) *Debouncer {
	if quiet < 0 {
		quiet = 0
	}
	return &Debouncer{base: base, quiet: quiet}
}

// Submit supersedes any pending or running commit and schedules text.
// Empty text is committed without waiting for the quiet period.
func (d *Debouncer) Submit(text string, commit CommitFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.supersedeLocked()

	d.seq++
	seq := d.seq
	ctx, cancel := context.WithCancel(d.base)
	d.cancel = cancel

	d.pending.Add(1)
	if text == "" {
		go d.run(ctx, seq, text, commit)
		return
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		d.run(ctx, seq, text, commit)
	})
}

func (d *Debouncer) run(ctx context.Context, seq uint64, text string, commit CommitFunc) {
	defer d.pending.Done()

	d.mu.Lock()
	current := !d.closed && d.seq == seq && ctx.Err() == nil
	if current {
		d.timer = nil
	}
	d.mu.Unlock()
	if !current {
		return
	}

	d.committed.Add(1)
	commit(ctx, text)
}

// supersedeLocked stops the pending timer and cancels the running commit.
func (d *Debouncer) supersedeLocked() {
	if d.timer != nil {
		if d.timer.Stop() {
			d.pending.Done()
		}
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Committed returns how many submissions have been committed.
func (d *Debouncer) Committed() uint64 {
	return d.committed.Load()
}

// Close cancels everything outstanding and waits for running commits to
// return. Later Submits are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.supersedeLocked()
	d.mu.Unlock()

	d.pending.Wait()
}
