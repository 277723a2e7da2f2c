package tiles

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/helioforge/planetview/internal/geo"
	"github.com/helioforge/planetview/internal/texture"
	"github.com/helioforge/planetview/pkg/vecmath"
)

// fakeFetcher serves canned results and records call order and the peak
// number of simultaneous fetches.
type fakeFetcher struct {
	mu          sync.Mutex
	fail        bool
	gate        chan struct{} // when non-nil, fetches block until it closes
	order       []string
	inflight    int
	maxInflight int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*texture.Texture, error) {
	f.mu.Lock()
	f.order = append(f.order, url)
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	gate := f.gate
	fail := f.fail
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errors.New("synthetic fetch failure")
	}
	return &texture.Texture{URL: url}, nil
}

func (f *fakeFetcher) urls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func (f *fakeFetcher) peak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInflight
}

// testURL builds a unique URL per index for cap tests.
func testURL(i int) string {
	return "tile-" + string(rune('a'+i))
}

func testTile(level, col, row int) *Tile {
	return newTile(geo.TileID{Level: level, Col: col, Row: row}, 100, 2, 6)
}

// pump applies completions on the cooperative goroutine until cond holds.
func pump(t *testing.T, l *Loader, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		l.Apply(nil)
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestLoaderEnqueueDedup(t *testing.T) {
	l := NewLoader(&fakeFetcher{}, texture.NewCache(8), 2, time.Second, 100)
	tile := testTile(1, 0, 0)

	l.Enqueue("u", tile)
	l.Enqueue("u", tile)
	require.Equal(t, 1, l.QueueLen())
}

func TestLoaderEnqueueSkipsNonIdle(t *testing.T) {
	l := NewLoader(&fakeFetcher{}, texture.NewCache(8), 2, time.Second, 100)

	requested := testTile(1, 0, 0)
	requested.State = StateRequested
	l.Enqueue("a", requested)

	loaded := testTile(1, 1, 0)
	loaded.State = StateLoaded
	l.Enqueue("b", loaded)

	require.Equal(t, 0, l.QueueLen())
}

func TestLoaderSuccessBindsAndCaches(t *testing.T) {
	cache := texture.NewCache(8)
	l := NewLoader(&fakeFetcher{}, cache, 2, time.Second, 100)
	tile := testTile(1, 0, 0)

	l.Enqueue("url-1", tile)
	l.Drain()
	require.Equal(t, StateRequested, tile.State)

	pump(t, l, func() bool { return tile.State == StateLoaded })

	require.NotNil(t, tile.Mesh.Material.Texture)
	require.Equal(t, "url-1", tile.Mesh.Material.Texture.URL)
	cached, ok := cache.Get("url-1")
	require.True(t, ok)
	require.Same(t, tile.Mesh.Material.Texture, cached)
	require.Equal(t, 0, l.Active())
}

func TestLoaderFailureRevertsToIdle(t *testing.T) {
	l := NewLoader(&fakeFetcher{fail: true}, texture.NewCache(8), 2, time.Second, 100)
	tile := testTile(1, 0, 0)

	l.Enqueue("url-1", tile)
	l.Drain()
	pump(t, l, func() bool { return tile.State == StateIdle })

	require.Nil(t, tile.Mesh.Material.Texture)

	// The tile is eligible for re-enqueue; no automatic retry happened.
	require.Equal(t, 0, l.QueueLen())
	l.Enqueue("url-1", tile)
	require.Equal(t, 1, l.QueueLen())
}

func TestLoaderConcurrencyCap(t *testing.T) {
	const limit = 3
	f := &fakeFetcher{gate: make(chan struct{})}
	l := NewLoader(f, texture.NewCache(32), limit, time.Minute, 100)

	tiles := make([]*Tile, 10)
	for i := range tiles {
		tiles[i] = testTile(2, i%8, i/8)
		l.Enqueue(testURL(i), tiles[i])
	}
	l.Drain()

	require.Equal(t, limit, l.Active())
	require.Equal(t, len(tiles)-limit, l.QueueLen())

	close(f.gate)
	pump(t, l, func() bool {
		for _, tile := range tiles {
			if tile.State != StateLoaded {
				return false
			}
		}
		return true
	})

	require.LessOrEqual(t, f.peak(), limit)
	require.Equal(t, 0, l.Active())
	require.Equal(t, 0, l.QueueLen())
}

func TestLoaderPriorityCoarseFirst(t *testing.T) {
	f := &fakeFetcher{}
	// limit 1 forces strictly sequential dispatch in priority order.
	l := NewLoader(f, texture.NewCache(8), 1, time.Second, 100)

	fine := testTile(4, 0, 0)
	coarse := testTile(1, 0, 0)
	medium := testTile(2, 0, 0)

	l.Enqueue("fine", fine)
	l.Enqueue("coarse", coarse)
	l.Enqueue("medium", medium)

	l.Drain()
	pump(t, l, func() bool {
		return fine.State == StateLoaded && coarse.State == StateLoaded && medium.State == StateLoaded
	})

	require.Equal(t, []string{"coarse", "medium", "fine"}, f.urls())
}

func TestLoaderReprioritizeFavorsFacingAndNear(t *testing.T) {
	f := &fakeFetcher{}
	l := NewLoader(f, texture.NewCache(8), 1, time.Second, 100)

	// Same level; the camera sits on the +Z axis looking at the planet.
	// The near-side tile scores better than the far-side one.
	front := testTile(2, 4, 1) // lon ~ 0 on the +Z side
	back := testTile(2, 0, 1)  // lon ~ -pi on the -Z side

	l.Enqueue("back", back)
	l.Enqueue("front", front)

	camPos := vecmath.Vec3{Z: 300}
	l.Reprioritize(camPos, vecmath.Vec3{Z: -1})

	l.Drain()
	pump(t, l, func() bool {
		return front.State == StateLoaded && back.State == StateLoaded
	})

	require.Equal(t, []string{"front", "back"}, f.urls())
}

func TestLoaderAbandonQueued(t *testing.T) {
	f := &fakeFetcher{}
	l := NewLoader(f, texture.NewCache(8), 2, time.Second, 100)
	tile := testTile(1, 0, 0)

	l.Enqueue("u", tile)
	l.Abandon(tile)
	require.Equal(t, 0, l.QueueLen())

	l.Drain()
	require.Equal(t, 0, l.Active())
	require.Empty(t, f.urls())
}

func TestLoaderAbandonInflightCancels(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	l := NewLoader(f, texture.NewCache(8), 2, time.Minute, 100)
	tile := testTile(1, 0, 0)

	l.Enqueue("u", tile)
	l.Drain()
	require.Equal(t, 1, l.Active())

	l.Abandon(tile)

	// The canceled context unblocks the fetch without closing the gate.
	pump(t, l, func() bool { return l.Active() == 0 })
	require.Nil(t, tile.Mesh.Material.Texture)
}

func TestLoaderFetchTimeout(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	l := NewLoader(f, texture.NewCache(8), 2, 20*time.Millisecond, 100)
	tile := testTile(1, 0, 0)

	l.Enqueue("u", tile)
	l.Drain()

	pump(t, l, func() bool { return tile.State == StateIdle })
	require.Equal(t, 0, l.Active())
}

func TestLoaderCloseCancelsInflight(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	l := NewLoader(f, texture.NewCache(8), 4, time.Minute, 100)

	tiles := []*Tile{testTile(1, 0, 0), testTile(1, 1, 0), testTile(1, 2, 0)}
	for i, tile := range tiles {
		l.Enqueue(testURL(i), tile)
	}
	l.Drain()
	require.Equal(t, 3, l.Active())

	l.Close()
	pump(t, l, func() bool { return l.Active() == 0 })
	for _, tile := range tiles {
		require.Nil(t, tile.Mesh.Material.Texture)
	}
}
