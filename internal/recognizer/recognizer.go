// Package recognizer holds the in-memory identity store and the
// nearest-neighbor matching that turns face descriptors into names.
// It knows nothing about cameras, images or transport; callers feed
// it descriptors and read back matches.
package recognizer

// UnknownLabel is reported for probes that match no enrolled identity.
const UnknownLabel = "Unknown"

// Demographics carries the optional face attributes. They are only
// populated when the optional model tier is available.
type Demographics struct {
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	Expression string `json:"expression"`
}

// Detection is the per-face result surfaced to callers. The box uses
// [ymin, xmin, ymax, xmax] on a 0-1000 scale regardless of the frame's
// pixel dimensions.
type Detection struct {
	Identified   bool          `json:"identified"`
	Name         string        `json:"name"`
	Confidence   int           `json:"confidence"`
	Box          [4]int        `json:"box"`
	Demographics *Demographics `json:"demographics,omitempty"`
}
