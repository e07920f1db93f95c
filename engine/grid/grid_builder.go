package grid

// DefaultCellSize is the cell edge length used when WithCellSize is not given.
const DefaultCellSize = 64

type settings struct {
	cellSize float32
	minY     float32
	maxY     float32
	margin   float32
}

func defaultSettings() settings {
	return settings{
		cellSize: DefaultCellSize,
		minY:     -256,
		maxY:     256,
	}
}

// GridBuilderOption is a functional option for configuring a Grid.
// The same options apply to grids of any node type.
type GridBuilderOption func(s *settings)

// WithCellSize sets the edge length of a grid cell in world units.
//
// Parameters:
//   - size: the cell size, must be positive
//
// Returns:
//   - GridBuilderOption: option function to apply
func WithCellSize(size float32) GridBuilderOption {
	return func(s *settings) {
		s.cellSize = size
	}
}

// WithVerticalExtent sets the y range assumed for every cell when culling
// against a camera frustum. Default is [-256, 256].
//
// Parameters:
//   - minY: the lowest y a node may reach
//   - maxY: the highest y a node may reach
//
// Returns:
//   - GridBuilderOption: option function to apply
func WithVerticalExtent(minY, maxY float32) GridBuilderOption {
	return func(s *settings) {
		s.minY, s.maxY = min(minY, maxY), max(minY, maxY)
	}
}

// WithCullMargin grows every cell's culling box so nodes overhanging their
// cell are not dropped.
func WithCullMargin(margin float32) GridBuilderOption {
	return func(s *settings) {
		s.margin = max(margin, 0)
	}
}
