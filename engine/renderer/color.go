package renderer

import (
	"github.com/Carmen-Shannon/oxy-vanguard/common"
)

// Color is a linear RGBA clear colour.
type Color struct {
	R, G, B, A float64
}

// DefaultBackground is the clear colour used while no clip contributes weight.
var DefaultBackground = Color{R: 0.1, G: 0.1, B: 0.1, A: 1}

// BlendColor mixes per-clip tints by the clips' current weights, so a cross-fade between two
// clips also fades the stage between their colours. Weights are clamped to [0, 1]. When the summed
// weight is below 1 the remainder is filled with DefaultBackground.
//
// Parameters:
//   - weights: the effective weight of each clip
//   - colors: the RGB tint of each clip, indexed like weights
//
// Returns:
//   - Color: the blended opaque colour
func BlendColor(weights []float32, colors [][3]float32) Color {
	n := len(weights)
	if len(colors) < n {
		n = len(colors)
	}

	var r, g, b, total float32
	for i := 0; i < n; i++ {
		w := common.Clamp(weights[i], 0, 1)
		r += colors[i][0] * w
		g += colors[i][1] * w
		b += colors[i][2] * w
		total += w
	}

	if total == 0 {
		return DefaultBackground
	}
	if total > 1 {
		return Color{R: float64(r / total), G: float64(g / total), B: float64(b / total), A: 1}
	}

	rest := float64(1 - total)
	return Color{
		R: float64(r) + DefaultBackground.R*rest,
		G: float64(g) + DefaultBackground.G*rest,
		B: float64(b) + DefaultBackground.B*rest,
		A: 1,
	}
}
