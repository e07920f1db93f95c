package glrender

import (
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-scene/engine/batch"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
)

type shader struct {
	r         *Renderer
	program   uint32
	label     string
	locations map[string]int32
}

// NewShader compiles and links a GLSL vertex and fragment shader pair.
func (r *Renderer) NewShader(src renderer.ShaderSource) (renderer.Shader, error) {
	if src.Vertex == "" || src.Fragment == "" {
		return nil, errors.New("shader needs a vertex and a fragment stage").
			WithType(renderer.ErrTypeCompile).
			WithTag("shader", src.Label)
	}

	vs, err := compile(gl.VERTEX_SHADER, src.Vertex)
	if err != nil {
		return nil, errors.New("compiling vertex shader failed").
			WithType(renderer.ErrTypeCompile).
			WithTag("shader", src.Label).
			Wrap(err)
	}
	defer gl.DeleteShader(vs)
	fs, err := compile(gl.FRAGMENT_SHADER, src.Fragment)
	if err != nil {
		return nil, errors.New("compiling fragment shader failed").
			WithType(renderer.ErrTypeCompile).
			WithTag("shader", src.Label).
			Wrap(err)
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)
	gl.DetachShader(program, vs)
	gl.DetachShader(program, fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(msg))
		gl.DeleteProgram(program)
		return nil, errors.New("linking shader program failed").
			WithType(ErrTypeLink).
			WithTag("shader", src.Label).
			WithTag("log", strings.TrimRight(msg, "\x00"))
	}

	s := &shader{r: r, program: program, label: src.Label, locations: make(map[string]int32)}
	gl.UseProgram(program)
	for unit := range batch.MaxTextures {
		if loc := gl.GetUniformLocation(program, gl.Str(cstr(samplerName(unit)))); loc >= 0 {
			gl.Uniform1i(loc, int32(unit))
		}
	}
	gl.UseProgram(0)
	return s, nil
}

func compile(typ uint32, src string) (uint32, error) {
	handle := gl.CreateShader(typ)
	csources, free := gl.Strs(cstr(src))
	gl.ShaderSource(handle, 1, csources, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteShader(handle)
		return 0, errors.New(strings.TrimRight(msg, "\x00"))
	}
	return handle, nil
}

func (s *shader) ID() uint32 {
	return s.program
}

func (s *shader) Use() {
	gl.UseProgram(s.program)
}

func (s *shader) location(name string) int32 {
	if loc, ok := s.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(s.program, gl.Str(cstr(name)))
	s.locations[name] = loc
	if loc < 0 {
		s.r.warnOnce(s.label+"."+name, "uniform not found in program")
	}
	return loc
}

// Set uploads value to the named uniform of the program in use. Unknown
// uniforms are skipped.
func (s *shader) Set(name string, value any) {
	loc := s.location(name)
	if loc < 0 {
		return
	}
	switch v := value.(type) {
	case mgl32.Mat4:
		gl.UniformMatrix4fv(loc, 1, false, &v[0])
	case mgl32.Mat3:
		gl.UniformMatrix3fv(loc, 1, false, &v[0])
	case mgl32.Vec4:
		gl.Uniform4fv(loc, 1, &v[0])
	case mgl32.Vec3:
		gl.Uniform3fv(loc, 1, &v[0])
	case mgl32.Vec2:
		gl.Uniform2fv(loc, 1, &v[0])
	case float32:
		gl.Uniform1f(loc, v)
	case float64:
		gl.Uniform1f(loc, float32(v))
	case int:
		gl.Uniform1i(loc, int32(v))
	case int32:
		gl.Uniform1i(loc, v)
	case bool:
		b := int32(0)
		if v {
			b = 1
		}
		gl.Uniform1i(loc, b)
	default:
		s.r.warnOnce(s.label+"."+name, "unsupported uniform value type")
	}
}
