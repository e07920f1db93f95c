package renderer

import (
	"fmt"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Recorder operation names reported by Count and Calls.
const (
	OpUse         = "shader.use"
	OpSet         = "shader.set"
	OpMeshBind    = "mesh.bind"
	OpMeshUnbind  = "mesh.unbind"
	OpDraw        = "mesh.draw"
	OpTexBind     = "texture.bind"
	OpTexUnbind   = "texture.unbind"
	OpBeginFrame  = "frame.begin"
	OpEndFrame    = "frame.end"
	OpPresent     = "frame.present"
	OpMeshCreate  = "mesh.create"
	OpTexCreate   = "texture.create"
	OpShadeCreate = "shader.create"
)

// ErrTypeCompile is the error type returned when a shader cannot be built.
const ErrTypeCompile = "shader_compile_error"

// Call is one recorded collaborator invocation.
type Call struct {
	Op  string
	ID  uint32
	Arg string
}

// RecorderOption is a functional option for configuring a Recorder.
type RecorderOption func(*Recorder)

// WithCallLog keeps every call in order, not only the per-operation counts.
//
// Parameters:
//   - enabled: true to keep the call log
//
// Returns:
//   - RecorderOption: option function to apply
func WithCallLog(enabled bool) RecorderOption {
	return func(r *Recorder) {
		r.logCalls = enabled
	}
}

// Recorder is a headless Renderer. It hands out handles whose methods only
// record that they were called, which makes draw traversal observable in tests
// and lets tools run without a window.
type Recorder struct {
	nextID   uint32
	logCalls bool
	calls    []Call
	counts   map[string]int
	uniforms map[uint32]map[string]any
}

var _ Renderer = &Recorder{}

// NewRecorder creates a Recorder configured with the given options.
//
// Parameters:
//   - options: functional options to configure the recorder
//
// Returns:
//   - *Recorder: the new recorder
func NewRecorder(options ...RecorderOption) *Recorder {
	r := &Recorder{
		counts:   make(map[string]int),
		uniforms: make(map[uint32]map[string]any),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *Recorder) record(op string, id uint32, arg string) {
	r.counts[op]++
	if r.logCalls {
		r.calls = append(r.calls, Call{Op: op, ID: id, Arg: arg})
	}
}

func (r *Recorder) id() uint32 {
	r.nextID++
	return r.nextID
}

// Count returns how many times op was recorded since the last Reset.
func (r *Recorder) Count(op string) int {
	return r.counts[op]
}

// Calls returns the ordered call log. It is empty unless WithCallLog was set.
func (r *Recorder) Calls() []Call {
	return r.calls
}

// Uniform returns the last value set for a uniform on the given shader.
func (r *Recorder) Uniform(shaderID uint32, name string) (any, bool) {
	v, ok := r.uniforms[shaderID][name]
	return v, ok
}

// Reset clears counts, the call log and recorded uniforms. Handle IDs keep
// increasing.
func (r *Recorder) Reset() {
	clear(r.counts)
	clear(r.uniforms)
	r.calls = r.calls[:0]
}

func (r *Recorder) Backend() BackendType {
	return BackendTypeRecorder
}

func (r *Recorder) NewShader(src ShaderSource) (Shader, error) {
	if src.Vertex == "" {
		return nil, errors.New("shader has no vertex stage").
			WithType(ErrTypeCompile).
			WithTag("label", src.Label)
	}
	s := &recordedShader{r: r, id: r.id()}
	r.record(OpShadeCreate, s.id, src.Label)
	return s, nil
}

func (r *Recorder) NewMesh(data MeshData) (Mesh, error) {
	m := &recordedMesh{r: r, id: r.id()}
	r.record(OpMeshCreate, m.id, data.Label)
	return m, nil
}

func (r *Recorder) NewTexture(data TextureData) (Texture, error) {
	t := &recordedTexture{r: r, id: r.id()}
	r.record(OpTexCreate, t.id, data.Label)
	return t, nil
}

func (r *Recorder) BeginFrame() error {
	r.record(OpBeginFrame, 0, "")
	return nil
}

func (r *Recorder) EndFrame() {
	r.record(OpEndFrame, 0, "")
}

func (r *Recorder) Present() {
	r.record(OpPresent, 0, "")
}

func (r *Recorder) Resize(width, height int) {}

func (r *Recorder) Close() {}

type recordedShader struct {
	r  *Recorder
	id uint32
}

func (s *recordedShader) ID() uint32 { return s.id }

func (s *recordedShader) Use() {
	s.r.record(OpUse, s.id, "")
}

func (s *recordedShader) Set(name string, value any) {
	u := s.r.uniforms[s.id]
	if u == nil {
		u = make(map[string]any)
		s.r.uniforms[s.id] = u
	}
	u[name] = value
	s.r.record(OpSet, s.id, name)
}

type recordedMesh struct {
	r  *Recorder
	id uint32
}

func (m *recordedMesh) ID() uint32 { return m.id }

func (m *recordedMesh) Bind() {
	m.r.record(OpMeshBind, m.id, "")
}

func (m *recordedMesh) Unbind() {
	m.r.record(OpMeshUnbind, m.id, "")
}

func (m *recordedMesh) Draw(mode RenderMode) {
	m.r.record(OpDraw, m.id, mode.String())
}

type recordedTexture struct {
	r  *Recorder
	id uint32
}

func (t *recordedTexture) ID() uint32 { return t.id }

func (t *recordedTexture) Bind(unit int) {
	t.r.record(OpTexBind, t.id, fmt.Sprint(unit))
}

func (t *recordedTexture) Unbind(unit int) {
	t.r.record(OpTexUnbind, t.id, fmt.Sprint(unit))
}
