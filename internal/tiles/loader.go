package tiles

import (
	"container/heap"
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/helioforge/planetview/internal/logger"
	"github.com/helioforge/planetview/internal/texture"
	"github.com/helioforge/planetview/pkg/vecmath"
)

// DefaultConcurrency bounds simultaneous tile fetches when unconfigured.
const DefaultConcurrency = 6

// DefaultFetchTimeout bounds one tile fetch when unconfigured.
const DefaultFetchTimeout = 10 * time.Second

// Priority weights. Lower score dispatches first: coarse levels establish
// full-planet coverage cheaply, then camera-facing and nearby tiles win.
// Distance is normalized by the sphere radius so the weights are
// scale-independent.
const (
	coarseWeight = 16.0
	angleWeight  = 4.0
	distWeight   = 1.0
)

type request struct {
	url   string
	tile  *Tile
	score float64
	index int // heap bookkeeping

	cancel    context.CancelFunc
	abandoned bool
}

type completion struct {
	req *request
	tex *texture.Texture
	err error
}

// requestHeap is a min-heap over request score.
type requestHeap []*request

func (h requestHeap) Len() int            { return len(h) }
func (h requestHeap) Less(i, j int) bool  { return h[i].score < h[j].score }
func (h requestHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *requestHeap) Push(x interface{}) { r := x.(*request); r.index = len(*h); *h = append(*h, r) }
func (h *requestHeap) Pop() interface{} {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return r
}

// Loader is the priority-ordered, concurrency-limited tile fetch
// scheduler. All methods except the spawned fetch goroutines run on the
// cooperative thread; fetch results come back through a channel and are
// applied on the next Apply call, never concurrently with a traversal.
type Loader struct {
	fetcher texture.Fetcher
	cache   *texture.Cache
	limit   int
	timeout time.Duration
	radius  float64

	queue    requestHeap
	queued   map[*Tile]*request
	inflight map[*Tile]*request
	active   int
	results  chan completion

	camPos vecmath.Vec3
	camDir vecmath.Vec3
	hasCam bool
}

// NewLoader creates a scheduler fetching through fetcher into cache.
func NewLoader(fetcher texture.Fetcher, cache *texture.Cache, limit int, timeout time.Duration, radius float64) *Loader {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Loader{
		fetcher:  fetcher,
		cache:    cache,
		limit:    limit,
		timeout:  timeout,
		radius:   radius,
		queued:   make(map[*Tile]*request),
		inflight: make(map[*Tile]*request),
		// Sized to the concurrency limit so fetch goroutines never block
		// delivering their result.
		results: make(chan completion, limit),
	}
}

// Enqueue adds a fetch request for the tile unless one is already queued
// or the tile is already requested or loaded.
func (l *Loader) Enqueue(url string, t *Tile) {
	if t.State != StateIdle {
		return
	}
	if _, ok := l.queued[t]; ok {
		return
	}

	req := &request{url: url, tile: t, score: l.score(t)}
	heap.Push(&l.queue, req)
	l.queued[t] = req
	queueDepth.Set(float64(len(l.queued)))
}

// Reprioritize re-sorts the pending queue against the current camera.
// In-flight fetches are not reordered or canceled.
func (l *Loader) Reprioritize(camPos, camDir vecmath.Vec3) {
	l.camPos = camPos
	l.camDir = camDir.Normalize()
	l.hasCam = true

	for _, req := range l.queue {
		if !req.abandoned {
			req.score = l.score(req.tile)
		}
	}
	heap.Init(&l.queue)
}

// score is the dispatch priority: lower is sooner.
func (l *Loader) score(t *Tile) float64 {
	s := float64(t.ID.Level) * coarseWeight
	if !l.hasCam {
		return s
	}
	toTile := t.Center.Sub(l.camPos)
	s += l.camDir.AngleTo(toTile) * angleWeight
	if l.radius > 0 {
		s += toTile.Length() / l.radius * distWeight
	}
	return s
}

// Drain dispatches queued requests in priority order while the active
// fetch count is below the concurrency limit.
func (l *Loader) Drain() {
	for l.active < l.limit && l.queue.Len() > 0 {
		req := heap.Pop(&l.queue).(*request)
		if req.abandoned {
			continue
		}
		delete(l.queued, req.tile)
		queueDepth.Set(float64(len(l.queued)))

		req.tile.State = StateRequested
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		req.cancel = cancel
		l.inflight[req.tile] = req
		l.active++
		fetchesInflight.Set(float64(l.active))

		go func(req *request) {
			tex, err := l.fetcher.Fetch(ctx, req.url)
			l.results <- completion{req: req, tex: tex, err: err}
		}(req)
	}
}

// Apply consumes completed fetches: successes populate the cache and bind
// the texture to the tile, failures revert the tile to idle. onLoaded is
// invoked for every tile that reaches the loaded state. Apply never
// blocks; it then continues draining the queue.
func (l *Loader) Apply(onLoaded func(*Tile)) {
	applied := 0
	for {
		select {
		case c := <-l.results:
			l.finish(c, onLoaded)
			applied++
		default:
			if applied > 0 {
				l.Drain()
			}
			return
		}
	}
}

func (l *Loader) finish(c completion, onLoaded func(*Tile)) {
	req := c.req
	req.cancel()
	l.active--
	fetchesInflight.Set(float64(l.active))
	if l.inflight[req.tile] == req {
		delete(l.inflight, req.tile)
	}

	if req.abandoned {
		// The tile left the retained set mid-flight. A late success still
		// warms the cache for a re-approach; the dead node is not touched.
		if c.err == nil {
			l.cache.Put(req.url, c.tex)
		}
		return
	}

	if c.err != nil {
		// No automatic retry: the tile reverts to idle and a future
		// traversal that still wants it re-enqueues it.
		req.tile.State = StateIdle
		fetchesTotal.WithLabelValues("error").Inc()
		logger.Warn("tile fetch failed",
			zap.String("url", req.url),
			zap.Error(c.err),
		)
		return
	}

	l.cache.Put(req.url, c.tex)
	req.tile.Mesh.Material.Texture = c.tex
	req.tile.State = StateLoaded
	fetchesTotal.WithLabelValues("ok").Inc()

	if onLoaded != nil {
		onLoaded(req.tile)
	}
}

// Abandon drops any pending request for the tile and cancels an in-flight
// one. Called when the tile leaves the retained set.
func (l *Loader) Abandon(t *Tile) {
	if req, ok := l.queued[t]; ok {
		req.abandoned = true // lazily skipped by Drain
		delete(l.queued, t)
		queueDepth.Set(float64(len(l.queued)))
	}
	if req, ok := l.inflight[t]; ok {
		req.abandoned = true
		req.cancel()
	}
}

// Active returns the current in-flight fetch count.
func (l *Loader) Active() int { return l.active }

// QueueLen returns the number of pending (not yet dispatched) requests.
func (l *Loader) QueueLen() int { return len(l.queued) }

// Close cancels all in-flight fetches. Queued requests are dropped.
func (l *Loader) Close() {
	for _, req := range l.inflight {
		req.abandoned = true
		req.cancel()
	}
	for _, req := range l.queued {
		req.abandoned = true
	}
	l.queued = make(map[*Tile]*request)
	l.queue = nil
	queueDepth.Set(0)
}
