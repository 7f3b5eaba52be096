// Package opstatus tracks long-running backend operations by key: loading
// state, the last failure, retry counts, and a cancellation token per run.
package opstatus

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	// ErrCancelled is the context cause for a token cancelled by the user.
	ErrCancelled = errors.New("operation cancelled")
	// ErrSuperseded is the context cause for a token replaced by a newer Start.
	ErrSuperseded = errors.New("operation superseded")

	errCleared = errors.New("operation cleared")
)

// Record is the observable state of one operation key. A key with no record is idle.
type Record struct {
	Key            string          `json:"key"`
	IsLoading      bool            `json:"isLoading"`
	LoadingMessage string          `json:"loadingMessage,omitempty"`
	Error          *OperationError `json:"error,omitempty"`
	RetryCount     int             `json:"retryCount"`
}

// Token identifies a single run of an operation. Only the most recent token
// for a key is live; results reported under any other token are dropped.
type Token struct {
	key    string
	gen    uint64
	ctx    context.Context
	cancel context.CancelCauseFunc
}

func (t *Token) Key() string        { return t.key }
func (t *Token) Generation() uint64 { return t.gen }

// Context is cancelled when the token is invalidated; pass it to the request.
func (t *Token) Context() context.Context { return t.ctx }

// Cancelled reports whether the token has been invalidated.
func (t *Token) Cancelled() bool { return t.ctx.Err() != nil }

type entry struct {
	rec Record
	tok *Token
}

// Change is delivered to subscribers after every state transition.
type Change struct {
	Key     string
	Record  Record
	Present bool
}

// Registry is safe for concurrent use. Construct one per application and pass it down.
type Registry struct {
	mu      sync.Mutex
	base    context.Context
	entries map[string]*entry
	gens    map[string]uint64
	offline bool

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

func New(base context.Context) *Registry {
	if base == nil {
		base = context.Background()
	}
	return &Registry{
		base:    base,
		entries: map[string]*entry{},
		gens:    map[string]uint64{},
		subs:    map[int]func(Change){},
	}
}

// Start begins a new run of key and returns its token. Any previous run's
// token is invalidated (its context is cancelled with ErrSuperseded) and any
// previous error is cleared. RetryCount carries over.
func (r *Registry) Start(key, message string) *Token {
	r.mu.Lock()
	e := r.entries[key]
	if e == nil {
		e = &entry{rec: Record{Key: key}}
		r.entries[key] = e
	}
	prev := e.tok
	r.gens[key]++
	ctx, cancel := context.WithCancelCause(r.base)
	tok := &Token{key: key, gen: r.gens[key], ctx: ctx, cancel: cancel}
	e.tok = tok
	e.rec.IsLoading = true
	e.rec.LoadingMessage = message
	e.rec.Error = nil
	ch := Change{Key: key, Record: e.rec, Present: true}
	r.mu.Unlock()

	if prev != nil {
		prev.cancel(ErrSuperseded)
	}
	r.notify(ch)
	return tok
}

// live reports whether tok is the current token for its key. Caller holds mu.
func (r *Registry) live(tok *Token) (*entry, bool) {
	if tok == nil {
		return nil, false
	}
	e := r.entries[tok.key]
	if e == nil || e.tok != tok || tok.Cancelled() {
		return nil, false
	}
	return e, true
}

// Live reports whether tok may still mutate state.
func (r *Registry) Live(tok *Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.live(tok)
	return ok
}

// Fail records err for tok's run. Stale tokens are ignored and Fail returns false.
func (r *Registry) Fail(tok *Token, err error) bool {
	r.mu.Lock()
	e, ok := r.live(tok)
	if !ok {
		r.mu.Unlock()
		return false
	}
	oe := Translate(err, r.offline)
	e.rec.IsLoading = false
	e.rec.LoadingMessage = ""
	e.rec.Error = &oe
	ch := Change{Key: tok.key, Record: e.rec, Present: true}
	r.mu.Unlock()

	r.notify(ch)
	return true
}

// Succeed ends tok's run and clears the record. Stale tokens are ignored.
func (r *Registry) Succeed(tok *Token) bool {
	return r.SucceedWith(tok, nil)
}

// SucceedWith is Succeed with apply run under the registry lock while tok is
// still live, so no newer Start for the key can interleave with it. apply
// must not call back into the registry.
func (r *Registry) SucceedWith(tok *Token, apply func()) bool {
	r.mu.Lock()
	if _, ok := r.live(tok); !ok {
		r.mu.Unlock()
		return false
	}
	if apply != nil {
		apply()
	}
	delete(r.entries, tok.key)
	r.mu.Unlock()

	tok.cancel(errCleared)
	r.notify(Change{Key: tok.key})
	return true
}

// Clear removes the record for key and invalidates its token. No-op when idle.
func (r *Registry) Clear(key string) {
	r.remove(key, errCleared)
}

// Cancel signals the live token (aborting its request) and clears the record
// immediately rather than waiting for the request to unwind.
func (r *Registry) Cancel(key string) bool {
	return r.remove(key, ErrCancelled)
}

func (r *Registry) remove(key string, cause error) bool {
	r.mu.Lock()
	e := r.entries[key]
	if e == nil {
		r.mu.Unlock()
		return false
	}
	delete(r.entries, key)
	tok := e.tok
	r.mu.Unlock()

	if tok != nil {
		tok.cancel(cause)
	}
	r.notify(Change{Key: key})
	return true
}

// IncrementRetry bumps the retry counter without touching loading or error state.
func (r *Registry) IncrementRetry(key string) int {
	r.mu.Lock()
	e := r.entries[key]
	if e == nil {
		e = &entry{rec: Record{Key: key}}
		r.entries[key] = e
	}
	e.rec.RetryCount++
	n := e.rec.RetryCount
	ch := Change{Key: key, Record: e.rec, Present: true}
	r.mu.Unlock()

	r.notify(ch)
	return n
}

// Get returns a copy of key's record.
func (r *Registry) Get(key string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entries[key]
	if e == nil {
		return Record{}, false
	}
	return copyRecord(e.rec), true
}

// Snapshot returns copies of all records, sorted by key.
func (r *Registry) Snapshot() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, copyRecord(e.rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Loading returns the keys with a run in flight.
func (r *Registry) Loading() []string {
	var out []string
	for _, rec := range r.Snapshot() {
		if rec.IsLoading {
			out = append(out, rec.Key)
		}
	}
	return out
}

// SetOffline marks the client as confirmed offline; network failures recorded
// while offline are not retryable.
func (r *Registry) SetOffline(v bool) {
	r.mu.Lock()
	r.offline = v
	r.mu.Unlock()
}

func (r *Registry) Offline() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offline
}

// Subscribe registers fn for every state change and returns an unsubscribe func.
// fn runs on the goroutine that caused the change.
func (r *Registry) Subscribe(fn func(Change)) func() {
	r.subMu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	r.subMu.Unlock()
	return func() {
		r.subMu.Lock()
		delete(r.subs, id)
		r.subMu.Unlock()
	}
}

func (r *Registry) notify(ch Change) {
	ch.Record = copyRecord(ch.Record)
	r.subMu.Lock()
	fns := make([]func(Change), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()
	for _, fn := range fns {
		fn(ch)
	}
}

func copyRecord(rec Record) Record {
	if rec.Error != nil {
		e := *rec.Error
		rec.Error = &e
	}
	return rec
}
