// Package wind tracks dominant wind direction tendencies the way a
// Vantage console's own display does: 16 compass slices, each scored
// over a tumbling 10-minute window, with the winning slice of each
// window remembered for up to an hour. Grounded on
// original_source/source/vws/DominantWindDirections.cpp.
package wind

import "time"

// NumSlices is the number of 22.5-degree compass slices tracked (N,
// NNE, NE, ... NNW).
const NumSlices = 16

// DegreesPerSlice and HalfSlice give 16 slices spanning the full 360
// degrees, matching spec.md §3's "each 22.5° wide." The north slice
// below is still defined as a wraparound special case since its range
// straddles 0.
const (
	DegreesPerSlice = 22.5
	HalfSlice       = DegreesPerSlice / 2.0
	MaxHeading      = 360.0
)

// AgeSpan is the width of one scoring window; DominantDuration is how
// long a window's winner stays in the past-hour list.
const (
	AgeSpan          = 10 * time.Minute
	DominantDuration = time.Hour
)

var sliceNames = [NumSlices]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// slice is one compass bucket: a half-open heading range, a sample
// count for the in-progress window, and the time it last won a
// window (zero if it never has, or the memory has expired).
type slice struct {
	index       int
	name        string
	low, high   float64
	center      float64
	sampleCount int
	dominantAt  time.Time
}

func newSlices() [NumSlices]*slice {
	var out [NumSlices]*slice
	heading := -HalfSlice
	for i := 0; i < NumSlices; i++ {
		out[i] = &slice{
			index: i, name: sliceNames[i],
			low: heading, high: heading + DegreesPerSlice,
			center: heading + DegreesPerSlice/2,
		}
		heading += DegreesPerSlice
	}
	return out
}

// inSlice reports whether a normalized heading (in [-HalfSlice,
// MaxHeading-HalfSlice)) falls within this slice's range.
func (s *slice) inSlice(heading float64) bool {
	return heading >= s.low && heading < s.high
}

func (s *slice) addSample(heading float64) {
	if s.inSlice(heading) {
		s.sampleCount++
	}
}

func (s *slice) clearSamples() {
	s.sampleCount = 0
}

func (s *slice) clearAll() {
	s.sampleCount = 0
	s.dominantAt = time.Time{}
}

func (s *slice) hasDominantTime() bool {
	return !s.dominantAt.IsZero()
}
