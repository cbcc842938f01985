package indicator

// MatrixPixels is the pixel count of the 5×5 matrix.
const MatrixPixels = 25

// Pattern is a brightness mask for the matrix, row-major from the top left.
type Pattern int

const (
	PatternEmpty Pattern = iota
	PatternAlert
)

func (p Pattern) String() string {
	switch p {
	case PatternEmpty:
		return "empty"
	case PatternAlert:
		return "alert"
	default:
		return "unknown"
	}
}

var masks = map[Pattern][MatrixPixels]float64{
	PatternEmpty: {},
	// exclamation mark
	PatternAlert: {
		0, 0, 0.2, 0, 0,
		0, 0, 0.2, 0, 0,
		0, 0, 0.2, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0.2, 0, 0,
	},
}

// Frame converts a pattern into RGB bytes for pixels LEDs. The strip is
// wired from the bottom right, so pixel i shows mask element pixels-1-i.
// Masks shorter than the strip leave the remainder dark.
func Frame(p Pattern, c Color, pixels int) []byte {
	mask := masks[p]
	buf := make([]byte, 3*pixels)
	for i := 0; i < pixels; i++ {
		j := pixels - 1 - i
		if j >= MatrixPixels {
			continue
		}
		level := mask[j]
		buf[3*i] = channel(level * c.R)
		buf[3*i+1] = channel(level * c.G)
		buf[3*i+2] = channel(level * c.B)
	}
	return buf
}

func channel(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return byte(v * 255)
	}
}
