// Package cubemap maps directions on the unit sphere to the six faces of a
// cube and back.
//
// Axis convention: x points right, y points up and z points forward (the
// direction seen at longitude 0). Spherical coordinates are the polar angle
// phi in [0, pi] measured from +y and the azimuth theta in [-pi, pi) measured
// from +z toward +x.
package cubemap

import (
	"errors"
	"fmt"
	"strings"
)

// Face identifies one side of the cube. The numeric value is the index of
// the face in any six element face array.
type Face int

const (
	Right  Face = iota // +X
	Left               // -X
	Top                // +Y
	Bottom             // -Y
	Front              // +Z
	Back               // -Z
)

// NumFaces is the number of cube faces.
const NumFaces = 6

// ErrUnsupportedFace reports a face index outside Right..Back.
var ErrUnsupportedFace = errors.New("unsupported cube face")

// Faces lists every face in index order.
var Faces = [NumFaces]Face{Right, Left, Top, Bottom, Front, Back}

var faceNames = [NumFaces]string{"right", "left", "top", "bottom", "front", "back"}

// Valid reports whether f is one of the six faces.
func (f Face) Valid() bool {
	return f >= Right && f <= Back
}

func (f Face) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Face(%d)", int(f))
	}
	return faceNames[f]
}

// ParseFace accepts a face name (right, left, top, bottom, front, back), its
// axis alias (+x, -x, +y, -y, +z, -z) or its index.
func ParseFace(s string) (Face, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range faceNames {
		if s == name {
			return Face(i), nil
		}
	}
	switch s {
	case "+x", "px", "0":
		return Right, nil
	case "-x", "nx", "1":
		return Left, nil
	case "+y", "py", "up", "2":
		return Top, nil
	case "-y", "ny", "down", "3":
		return Bottom, nil
	case "+z", "pz", "4":
		return Front, nil
	case "-z", "nz", "5":
		return Back, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFace, s)
}
