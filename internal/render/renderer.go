// Package render draws the streamed planet surface with OpenGL. It
// uploads patch geometry and tile imagery lazily on first draw and
// drops GPU buffers for meshes that have left the scene graph.
package render

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/helioforge/planetview/internal/logger"
	"github.com/helioforge/planetview/internal/scene"
	"github.com/helioforge/planetview/internal/texture"
	"github.com/helioforge/planetview/pkg/vecmath"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// gpuMesh is the uploaded form of a scene mesh.
type gpuMesh struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
	texture    *texture.Texture
	texID      uint32
	seen       bool
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config

	program      uint32
	locViewProj  int32
	locTexture   int32
	locUseTex    int32
	locBaseColor int32
	locLightDir  int32

	meshes map[*scene.Mesh]*gpuMesh
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		meshes: make(map[*scene.Mesh]*gpuMesh),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	// Patch winding is counter-clockwise seen from outside the planet.
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.ClearColor(0.01, 0.01, 0.02, 1.0) // Near-black space background

	program, err := compileProgram(surfaceVertexShader, surfaceFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("surface shader: %w", err)
	}
	r.program = program
	r.locViewProj = getUniform(program, "uViewProj")
	r.locTexture = getUniform(program, "uTexture")
	r.locUseTex = getUniform(program, "uUseTexture")
	r.locBaseColor = getUniform(program, "uBaseColor")
	r.locLightDir = getUniform(program, "uLightDir")

	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))
	return r, nil
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Draw renders every mesh currently attached to the group, uploading
// new geometry and imagery and sweeping buffers for detached meshes.
func (r *Renderer) Draw(group *scene.Group, view, proj vecmath.Mat4) {
	viewProj := proj.Mul(view).Float32()

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.locViewProj, 1, false, &viewProj[0])
	// Fixed sun from slightly above the +X/+Z quadrant.
	gl.Uniform3f(r.locLightDir, -0.5, -0.6, -0.62)
	gl.Uniform3f(r.locBaseColor, 0.55, 0.35, 0.24) // Bare-regolith fallback

	group.Each(func(m *scene.Mesh) {
		g := r.meshes[m]
		if g == nil {
			g = r.uploadMesh(m)
			r.meshes[m] = g
		}
		g.seen = true
		r.bindTexture(g, m.Material)

		gl.BindVertexArray(g.vao)
		gl.DrawElements(gl.TRIANGLES, g.indexCount, gl.UNSIGNED_INT, nil)
	})
	gl.BindVertexArray(0)

	r.sweep()
}

// uploadMesh interleaves the patch attributes into a single VBO with an
// index buffer.
func (r *Renderer) uploadMesh(m *scene.Mesh) *gpuMesh {
	p := m.Patch
	count := p.VertexCount()

	// position(3) + normal(3) + uv(2)
	vertices := make([]float32, 0, count*8)
	for i := 0; i < count; i++ {
		vertices = append(vertices,
			p.Positions[i*3], p.Positions[i*3+1], p.Positions[i*3+2],
			p.Normals[i*3], p.Normals[i*3+1], p.Normals[i*3+2],
			p.UVs[i*2], p.UVs[i*2+1],
		)
	}

	g := &gpuMesh{indexCount: int32(len(p.Indices))}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 8*4, 0)
	gl.EnableVertexAttribArray(0)

	// Normal (location 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 8*4, 3*4)
	gl.EnableVertexAttribArray(1)

	// TexCoord (location 2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, 8*4, 6*4)
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(p.Indices)*4, unsafe.Pointer(&p.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return g
}

// bindTexture uploads the material's texture on first use and selects
// it, or flags the untextured fallback path.
func (r *Renderer) bindTexture(g *gpuMesh, mat *scene.Material) {
	tex := mat.Texture
	if tex == nil || tex.Released() {
		gl.Uniform1i(r.locUseTex, 0)
		return
	}

	if g.texture != tex {
		g.texture = tex
		g.texID = r.uploadTexture(tex, mat)
	}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, g.texID)
	gl.Uniform1i(r.locTexture, 0)
	gl.Uniform1i(r.locUseTex, 1)
}

// uploadTexture pushes the decoded image to the GPU. Deletion is hooked
// into the texture's disposer so cache eviction frees the GPU copy.
func (r *Renderer) uploadTexture(tex *texture.Texture, mat *scene.Material) uint32 {
	img := tex.Image

	var texID uint32
	gl.GenTextures(1, &texID)
	gl.BindTexture(gl.TEXTURE_2D, texID)

	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA,
		int32(img.Bounds().Dx()), int32(img.Bounds().Dy()),
		0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))

	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	aniso := mat.Anisotropy
	if limit := mat.Detail.MaxAnisotropy(); aniso > limit {
		aniso = limit
	}
	if aniso > 1 {
		gl.TexParameterf(gl.TEXTURE_2D, gl.TEXTURE_MAX_ANISOTROPY, float32(aniso))
	}

	id := texID
	tex.SetDisposer(func() {
		gl.DeleteTextures(1, &id)
	})
	return texID
}

// sweep deletes GPU buffers for meshes that were not drawn this frame.
// Textures are left to the cache's eviction via the disposer.
func (r *Renderer) sweep() {
	for m, g := range r.meshes {
		if g.seen {
			g.seen = false
			continue
		}
		gl.DeleteVertexArrays(1, &g.vao)
		gl.DeleteBuffers(1, &g.vbo)
		gl.DeleteBuffers(1, &g.ebo)
		delete(r.meshes, m)
	}
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	for m, g := range r.meshes {
		gl.DeleteVertexArrays(1, &g.vao)
		gl.DeleteBuffers(1, &g.vbo)
		gl.DeleteBuffers(1, &g.ebo)
		delete(r.meshes, m)
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
		r.program = 0
	}
}
