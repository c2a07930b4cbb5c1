package vision

import "math"

// BoxScale is the fixed coordinate range detection boxes are reported on.
// Consumers never see pixel coordinates, so the frame resolution can vary
// between frames without breaking overlay math downstream.
const BoxScale = 1000

// NormalizeBox converts a pixel bounding box [x1, y1, x2, y2] into
// [ymin, xmin, ymax, xmax] on the 0-1000 scale. Invalid input yields the
// zero box.
func NormalizeBox(bbox []float64, width, height int) [4]int {
	if len(bbox) != 4 || width <= 0 || height <= 0 {
		return [4]int{}
	}

	return [4]int{
		scaleCoord(bbox[1], height), // ymin
		scaleCoord(bbox[0], width),  // xmin
		scaleCoord(bbox[3], height), // ymax
		scaleCoord(bbox[2], width),  // xmax
	}
}

// PrimaryFace picks the most prominent detection by box area. Used for
// enrollment, where one photo is expected to show one person and any
// bystander faces should lose to the subject. ok is false when there
// are no faces.
func PrimaryFace(faces []Face) (Face, bool) {
	if len(faces) == 0 {
		return Face{}, false
	}

	best := 0
	bestArea := boxArea(faces[0].Box)
	for i := 1; i < len(faces); i++ {
		if area := boxArea(faces[i].Box); area > bestArea {
			best = i
			bestArea = area
		}
	}
	return faces[best], true
}

func boxArea(bbox []float64) float64 {
	if len(bbox) != 4 {
		return 0
	}
	return math.Abs(bbox[2]-bbox[0]) * math.Abs(bbox[3]-bbox[1])
}

// scaleCoord maps one pixel coordinate onto [0, BoxScale], clamping
// detections that spill past the frame edge.
func scaleCoord(v float64, size int) int {
	scaled := math.Round(v / float64(size) * BoxScale)
	if scaled < 0 {
		return 0
	}
	if scaled > BoxScale {
		return BoxScale
	}
	return int(scaled)
}
