package renderer

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsCalls(t *testing.T) {
	r := NewRecorder(WithCallLog(true))

	s, err := r.NewShader(ShaderSource{Label: "basic", Vertex: "void main(){}"})
	require.NoError(t, err)
	m, err := r.NewMesh(MeshData{Label: "cube"})
	require.NoError(t, err)
	tex, err := r.NewTexture(TextureData{Label: "grass"})
	require.NoError(t, err)

	require.NotEqual(t, s.ID(), m.ID())
	require.NotEqual(t, m.ID(), tex.ID())

	s.Use()
	s.Set("model", float32(2))
	tex.Bind(0)
	m.Bind()
	m.Draw(RenderLines)
	m.Draw(RenderTriangles)
	m.Unbind()
	tex.Unbind(0)

	require.Equal(t, 1, r.Count(OpUse))
	require.Equal(t, 2, r.Count(OpDraw))
	require.Equal(t, 1, r.Count(OpTexBind))

	v, ok := r.Uniform(s.ID(), "model")
	require.True(t, ok)
	require.Equal(t, float32(2), v)

	calls := r.Calls()
	require.Equal(t, Call{Op: OpDraw, ID: m.ID(), Arg: "lines"}, calls[len(calls)-4])

	r.Reset()
	require.Zero(t, r.Count(OpDraw))
	require.Empty(t, r.Calls())
}

func TestRecorderRejectsEmptyShader(t *testing.T) {
	r := NewRecorder()
	_, err := r.NewShader(ShaderSource{Label: "broken"})
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeCompile))
}

func TestParseBackendType(t *testing.T) {
	tests := []struct {
		in      string
		want    BackendType
		wantErr bool
	}{
		{"", BackendTypeGL, false},
		{"GL", BackendTypeGL, false},
		{"webgpu", BackendTypeWGPU, false},
		{"headless", BackendTypeRecorder, false},
		{"vulkan", BackendTypeGL, true},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			got, err := ParseBackendType(test.in)
			if test.wantErr {
				require.True(t, errors.IsType(err, ErrTypeBackend))
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, got)
			require.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) BackendType {
	b, err := ParseBackendType(s)
	require.NoError(t, err)
	return b
}
