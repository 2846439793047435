package track

import (
	"fmt"
	"math/rand"
)

const (
	// No obstacles inside the starting area, players need room to get moving.
	startSafeZonePx = 220.0

	obstacleMinGapPx = 140.0
	obstacleMaxGapPx = 320.0

	decorationDensity = 0.004 // decorations per pixel of track
)

var obstacleKinds = []string{"rock", "barrier", "puddle", "log"}

var decorationKinds = []string{"tree", "bush", "cloud", "flag", "lamp"}

// Obstacle is a blocking element placed along the track. X is the distance
// from the start line in pixels.
type Obstacle struct {
	ID    string  `json:"id"`
	Kind  string  `json:"kind"`
	X     float64 `json:"x"`
	Width float64 `json:"width"`
}

// Decoration is a purely visual element. Y is a vertical offset so clients
// can place scenery above or below the running lane.
type Decoration struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Track describes one generated race course.
type Track struct {
	LengthPx    float64      `json:"lengthPx"`
	Decorations []Decoration `json:"decorations"`
	Obstacles   []Obstacle   `json:"obstacles"`
}

// Generator produces a track for a course of the given pixel length. The
// result is not required to be deterministic; callers that need every peer
// to see the same course must generate once and share the result.
type Generator func(lengthPx float64) *Track

// Generate scatters obstacles and decorations along the course. Obstacles
// keep a randomized gap between each other and never spawn inside the
// starting safe zone or past the finish line.
func Generate(lengthPx float64) *Track {
	t := &Track{LengthPx: lengthPx}

	x := startSafeZonePx
	for {
		x += obstacleMinGapPx + rand.Float64()*(obstacleMaxGapPx-obstacleMinGapPx)
		if x >= lengthPx {
			break
		}
		t.Obstacles = append(t.Obstacles, Obstacle{
			ID:    fmt.Sprintf("obstacle-%d", len(t.Obstacles)+1),
			Kind:  obstacleKinds[rand.Intn(len(obstacleKinds))],
			X:     x,
			Width: 24 + rand.Float64()*32,
		})
	}

	count := int(lengthPx * decorationDensity)
	for i := 0; i < count; i++ {
		t.Decorations = append(t.Decorations, Decoration{
			Kind: decorationKinds[rand.Intn(len(decorationKinds))],
			X:    rand.Float64() * lengthPx,
			Y:    -40 + rand.Float64()*80,
		})
	}

	return t
}
