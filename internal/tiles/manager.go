package tiles

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/helioforge/planetview/internal/geo"
	"github.com/helioforge/planetview/internal/logger"
	"github.com/helioforge/planetview/internal/scene"
	"github.com/helioforge/planetview/internal/texture"
	"github.com/helioforge/planetview/pkg/vecmath"
)

const (
	// splitPixelThreshold is the projected size above which (strictly) a
	// tile subdivides.
	splitPixelThreshold = 120.0

	// backfaceDotThreshold culls tiles facing away from the camera. The
	// slack below zero keeps tiles just past the horizon visible.
	backfaceDotThreshold = -0.2

	// DefaultSegments is the per-tile mesh resolution when unconfigured.
	DefaultSegments = 16

	// DefaultMaxLevel is the deepest quadtree level when unconfigured.
	DefaultMaxLevel = 6

	placeholderSegments = 24
)

// Options configures a Manager.
type Options struct {
	Radius       float64       // sphere radius in scene units
	BaseURL      string        // tile source root; trailing slash stripped
	Extension    string        // image extension; leading dot stripped
	MinLevel     int           // level of the eagerly created root grid
	MaxLevel     int           // deepest level the selector descends to
	Segments     int           // mesh resolution per tile edge
	Anisotropy   float64       // texture filtering hint
	Concurrency  int           // max simultaneous fetches
	CacheTiles   int           // texture cache capacity
	FetchTimeout time.Duration // per-request timeout
}

func (o Options) withDefaults() Options {
	if o.Radius <= 0 {
		o.Radius = 1
	}
	if o.MaxLevel <= 0 {
		o.MaxLevel = DefaultMaxLevel
	}
	if o.MinLevel < 0 {
		o.MinLevel = 0
	}
	if o.MinLevel > o.MaxLevel {
		o.MinLevel = o.MaxLevel
	}
	if o.Segments <= 0 {
		o.Segments = DefaultSegments
	}
	return o
}

// Manager owns the tile quadtree, the texture cache, and the load
// scheduler for one planet. It is driven once per frame by Update on a
// single cooperative thread; fetch goroutines never touch its state.
type Manager struct {
	opts   Options
	source Source
	graph  scene.Graph
	cache  *texture.Cache
	loader *Loader

	tiles    map[geo.TileID]*Tile
	roots    []*Tile
	retained map[geo.TileID]struct{}

	placeholder *scene.Mesh
	disposed    bool
}

// New creates a manager streaming tiles from opts.BaseURL through fetcher
// and attaching renderables to graph (a fresh Group when nil). Root tiles
// at MinLevel are created eagerly and their texture requests enqueued;
// the first Update dispatches them.
func New(opts Options, graph scene.Graph, fetcher texture.Fetcher) *Manager {
	opts = opts.withDefaults()
	if graph == nil {
		graph = scene.NewGroup()
	}

	cache := texture.NewCache(opts.CacheTiles)
	m := &Manager{
		opts:   opts,
		source: NewSource(opts.BaseURL, opts.Extension),
		graph:  graph,
		cache:  cache,
		loader: NewLoader(fetcher, cache, opts.Concurrency, opts.FetchTimeout, opts.Radius),
		tiles:  make(map[geo.TileID]*Tile),
	}

	// The whole-sphere placeholder hides the gaps until imagery arrives.
	m.placeholder = &scene.Mesh{
		Patch: geo.BuildSphere(opts.Radius, placeholderSegments),
		Material: &scene.Material{
			Detail:     scene.DetailMinimal,
			Anisotropy: opts.Anisotropy,
		},
	}
	m.graph.Add(m.placeholder)

	cols, rows := geo.GridSize(opts.MinLevel)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			t := m.newTrackedTile(geo.TileID{Level: opts.MinLevel, Col: col, Row: row})
			m.roots = append(m.roots, t)
			m.requestTexture(t)
		}
	}
	tilesLive.Set(float64(len(m.tiles)))

	logger.Info("tile manager created",
		zap.Int("root_tiles", len(m.roots)),
		zap.Int("min_level", opts.MinLevel),
		zap.Int("max_level", opts.MaxLevel),
		zap.Float64("radius", opts.Radius),
	)
	return m
}

// Root returns the scene graph attach point holding the tile meshes.
func (m *Manager) Root() scene.Graph { return m.graph }

// TileCount returns the number of tracked tile nodes.
func (m *Manager) TileCount() int { return len(m.tiles) }

// Update runs one frame of the selector: applies finished fetches,
// re-prioritizes the queue for the current camera, walks the quadtree
// deciding subdivision and visibility, sweeps abandoned branches, and
// dispatches queued fetches. All failures are absorbed and logged; Update
// never fails.
func (m *Manager) Update(cam scene.Camera, vp scene.Viewport) {
	if m.disposed {
		return
	}

	m.loader.Apply(func(*Tile) { m.dropPlaceholder() })

	fov := cam.VerticalFOV()
	if fov <= 0 {
		return
	}
	camPos := cam.Position()
	m.loader.Reprioritize(camPos, cam.Forward())
	pixelsPerRadian := float64(vp.ViewportHeight()) / fov

	m.retained = make(map[geo.TileID]struct{}, len(m.tiles))
	for _, root := range m.roots {
		m.updateTile(root, camPos, pixelsPerRadian)
	}
	m.sweep()

	m.loader.Drain()
	tilesLive.Set(float64(len(m.tiles)))
}

// updateTile recursively applies the per-node state machine.
func (m *Manager) updateTile(t *Tile, camPos vecmath.Vec3, pixelsPerRadian float64) {
	m.retained[t.ID] = struct{}{}

	normal := t.Center.Normalize()
	toCam := camPos.Sub(t.Center)
	if normal.Dot(toCam.Normalize()) < backfaceDotThreshold {
		// Facing away: drop the mesh and stop descending this frame.
		m.detach(t)
		return
	}

	arc := m.opts.Radius * t.LatSpan
	projected := 2 * math.Atan2(arc/2, toCam.Length()) * pixelsPerRadian

	if needsSplit(projected, t.ID.Level, m.opts.MaxLevel) {
		if !t.HasChildren() {
			m.subdivide(t)
		}
		for _, c := range t.children {
			m.updateTile(c, camPos, pixelsPerRadian)
		}
		// Keep the parent visible as a backdrop until all four children
		// have imagery, so subdivision never opens a hole.
		if m.childrenLoaded(t) {
			m.detach(t)
		} else {
			m.attach(t)
		}
		return
	}

	if t.HasChildren() {
		m.collapse(t)
	}
	m.attach(t)
	m.requestTexture(t)
}

// needsSplit is the LOD decision: strictly above the pixel threshold and
// not yet at the maximum level.
func needsSplit(projectedPx float64, level, maxLevel int) bool {
	return projectedPx > splitPixelThreshold && level < maxLevel
}

// subdivide creates all four children at once, each enqueuing its own
// texture request.
func (m *Manager) subdivide(t *Tile) {
	children := new([4]*Tile)
	for i, id := range t.ID.Children() {
		c := m.newTrackedTile(id)
		children[i] = c
		m.requestTexture(c)
	}
	t.children = children
}

// collapse destroys the tile's subtree, abandoning its fetches.
func (m *Manager) collapse(t *Tile) {
	for _, c := range t.children {
		m.destroySubtree(c)
	}
	t.children = nil
}

func (m *Manager) destroySubtree(t *Tile) {
	if t.HasChildren() {
		for _, c := range t.children {
			m.destroySubtree(c)
		}
		t.children = nil
	}
	m.detach(t)
	m.loader.Abandon(t)
	if t.State == StateRequested {
		t.State = StateIdle
	}
	delete(m.tiles, t.ID)
}

// sweep collapses subdivided tiles whose children were not retained this
// frame (back-facing or otherwise skipped branches).
func (m *Manager) sweep() {
	for _, root := range m.roots {
		m.sweepTile(root)
	}
}

func (m *Manager) sweepTile(t *Tile) {
	if !t.HasChildren() {
		return
	}
	// Children are created and retained as a unit, so checking one is
	// checking all four.
	if _, ok := m.retained[t.children[0].ID]; !ok {
		m.collapse(t)
		return
	}
	for _, c := range t.children {
		m.sweepTile(c)
	}
}

func (m *Manager) newTrackedTile(id geo.TileID) *Tile {
	t := newTile(id, m.opts.Radius, m.opts.Segments, m.opts.MaxLevel)
	t.Mesh.Material.Anisotropy = m.opts.Anisotropy
	m.tiles[id] = t
	return t
}

// requestTexture asks the cache first and only then the scheduler. A
// loaded tile whose texture was evicted out from under it reverts to
// idle here, so visible tiles always recover their imagery.
func (m *Manager) requestTexture(t *Tile) {
	if t.State == StateLoaded {
		if tex := t.Mesh.Material.Texture; tex != nil && !tex.Released() {
			return
		}
		t.Mesh.Material.Texture = nil
		t.State = StateIdle
	}
	if t.State != StateIdle {
		return
	}
	url := m.source.TileURL(t.ID)
	if tex, ok := m.cache.Get(url); ok {
		t.Mesh.Material.Texture = tex
		t.State = StateLoaded
		m.dropPlaceholder()
		return
	}
	m.loader.Enqueue(url, t)
}

func (m *Manager) childrenLoaded(t *Tile) bool {
	for _, c := range t.children {
		if c.State != StateLoaded {
			return false
		}
	}
	return true
}

func (m *Manager) attach(t *Tile) {
	if !t.attached {
		m.graph.Add(t.Mesh)
		t.attached = true
	}
}

func (m *Manager) detach(t *Tile) {
	if t.attached {
		m.graph.Remove(t.Mesh)
		t.attached = false
	}
}

// dropPlaceholder permanently discards the fallback sphere after the
// first tile texture appears.
func (m *Manager) dropPlaceholder() {
	if m.placeholder != nil {
		m.graph.Remove(m.placeholder)
		m.placeholder = nil
	}
}

// Dispose releases all tiles, cached textures, and the placeholder mesh.
// The manager must not be used afterwards.
func (m *Manager) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true

	for _, root := range m.roots {
		m.destroySubtree(root)
	}
	m.roots = nil
	m.loader.Close()
	m.cache.Clear()

	if m.placeholder != nil {
		m.graph.Remove(m.placeholder)
		m.placeholder = nil
	}
	tilesLive.Set(0)

	logger.Info("tile manager disposed")
}
