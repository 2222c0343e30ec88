package settings

import "sync"

// refreshReq is one pending presentation refresh. State is captured at
// enqueue time; requests for the same setting coalesce so only the latest
// state is delivered.
type refreshReq struct {
	plugin   string
	key      string
	hidden   bool
	disabled bool
}

// refresher decouples setting writes from surface mutations: enqueue never
// blocks and returns before any delivery runs, so the caller's synchronous
// code observes its own write before any side effect, and a setting is never
// re-entered mid-write.
type refresher struct {
	mu      sync.Mutex
	pending map[string]refreshReq
	order   []string

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	deliver  func(refreshReq)
}

func newRefresher(deliver func(refreshReq)) *refresher {
	r := &refresher{
		pending: make(map[string]refreshReq),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		deliver: deliver,
	}
	go r.loop()
	return r
}

func (r *refresher) enqueue(req refreshReq) {
	k := req.plugin + "\x00" + req.key
	r.mu.Lock()
	if _, exists := r.pending[k]; !exists {
		r.order = append(r.order, k)
	}
	r.pending[k] = req
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *refresher) loop() {
	for {
		select {
		case <-r.wake:
			r.drain()
		case <-r.done:
			r.drain()
			return
		}
	}
}

func (r *refresher) drain() {
	r.mu.Lock()
	keys := r.order
	batch := r.pending
	r.order = nil
	r.pending = make(map[string]refreshReq)
	r.mu.Unlock()

	for _, k := range keys {
		r.deliver(batch[k])
	}
}

func (r *refresher) close() {
	r.stopOnce.Do(func() { close(r.done) })
}
