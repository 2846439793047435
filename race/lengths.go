package race

// Length maps a named race distance to its display and position units.
type Length struct {
	Selector string
	Meters   int
	FinishPx float64
}

const pixelsPerMeter = 12.0

// DefaultSelector is used whenever a client supplies an unrecognized
// race-length selector.
const DefaultSelector = "500m"

var lengths = map[string]Length{
	"250m":  {Selector: "250m", Meters: 250, FinishPx: 250 * pixelsPerMeter},
	"500m":  {Selector: "500m", Meters: 500, FinishPx: 500 * pixelsPerMeter},
	"1000m": {Selector: "1000m", Meters: 1000, FinishPx: 1000 * pixelsPerMeter},
	"2000m": {Selector: "2000m", Meters: 2000, FinishPx: 2000 * pixelsPerMeter},
}

// Lookup resolves a selector, falling back to the default distance for
// anything unrecognized.
func Lookup(selector string) Length {
	if l, ok := lengths[selector]; ok {
		return l
	}
	return lengths[DefaultSelector]
}
