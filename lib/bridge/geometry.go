package bridge

import "github.com/go-gl/mathgl/mgl32"

// Geometry is a textured quad drawn as a triangle strip. Indices names the
// two triangles the strip rasterizes, sharing the 1-2 diagonal.
type Geometry struct {
	Positions [4]mgl32.Vec2
	TexCoords [4]mgl32.Vec2
	Indices   [6]uint16
}

// QuadGeometry covers the whole viewport, with the first texture row at the
// top of the screen.
func QuadGeometry() Geometry {
	return Geometry{
		Positions: [4]mgl32.Vec2{
			{-1, 1},
			{-1, -1},
			{1, 1},
			{1, -1},
		},
		TexCoords: [4]mgl32.Vec2{
			{0, 0},
			{0, 1},
			{1, 0},
			{1, 1},
		},
		Indices: [6]uint16{0, 1, 2, 2, 1, 3},
	}
}

func (g Geometry) VertexCount() int32 {
	return int32(len(g.Positions))
}

func (g Geometry) PositionData() []float32 {
	return flatten(g.Positions[:])
}

func (g Geometry) TexCoordData() []float32 {
	return flatten(g.TexCoords[:])
}

func flatten(vs []mgl32.Vec2) []float32 {
	data := make([]float32, 0, 2*len(vs))
	for _, v := range vs {
		data = append(data, v.X(), v.Y())
	}
	return data
}
