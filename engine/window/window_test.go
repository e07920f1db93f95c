package window

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEngineWindowDefaults(t *testing.T) {
	w := newEngineWindow()
	require.Equal(t, 1280, w.Width())
	require.Equal(t, 720, w.Height())
	require.Equal(t, ClientAPIOpenGL, w.api)
	require.False(t, w.IsRunning())
	require.Nil(t, w.SurfaceDescriptor())
	require.Error(t, w.Close())
}

func TestNewEngineWindowClampsSize(t *testing.T) {
	w := newEngineWindow(
		WithTitle("grid"),
		WithClientAPI(ClientAPINone),
		WithSizeLimits(400, 300, 800, 0),
		WithSize(2000, 100),
	)
	require.Equal(t, "grid", w.title)
	require.Equal(t, ClientAPINone, w.api)
	require.Equal(t, 800, w.Width())
	require.Equal(t, 300, w.Height())
}
