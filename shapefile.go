package ember

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// ShapeFileMagic is the header string of a point-list shape file.
const ShapeFileMagic = "QQ3D_SHAPE"

// ShapeFileVersion is the only supported shape file version.
const ShapeFileVersion = 1

var (
	ErrShapeHeader  = errors.New("ember: shape file header mismatch")
	ErrShapeVersion = errors.New("ember: unsupported shape file version")
	ErrShapeData    = errors.New("ember: malformed shape file data")
)

// shapeFile is the CBOR array [magic, version, [x, y, z, ...]].
type shapeFile struct {
	_       struct{} `cbor:",toarray"`
	Magic   string
	Version int
	Points  []float32
}

// DecodeShapeFile reads a point list. Nothing is returned unless the whole
// file is valid.
func DecodeShapeFile(r io.Reader) ([]mgl32.Vec3, error) {
	var f shapeFile
	if err := cbor.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode shape file: %w: %v", ErrShapeData, err)
	}
	if f.Magic != ShapeFileMagic {
		return nil, fmt.Errorf("failed to decode shape file: %w (got %q)", ErrShapeHeader, f.Magic)
	}
	if f.Version != ShapeFileVersion {
		return nil, fmt.Errorf("failed to decode shape file: %w (got %d)", ErrShapeVersion, f.Version)
	}
	if len(f.Points)%3 != 0 {
		return nil, fmt.Errorf("failed to decode shape file: %w (%d floats)", ErrShapeData, len(f.Points))
	}
	pts := make([]mgl32.Vec3, len(f.Points)/3)
	for i := range pts {
		pts[i] = mgl32.Vec3{f.Points[i*3], f.Points[i*3+1], f.Points[i*3+2]}
	}
	return pts, nil
}

// EncodeShapeFile writes points in the shape file format.
func EncodeShapeFile(w io.Writer, points []mgl32.Vec3) error {
	f := shapeFile{Magic: ShapeFileMagic, Version: ShapeFileVersion, Points: make([]float32, 0, len(points)*3)}
	for _, p := range points {
		f.Points = append(f.Points, p[0], p[1], p[2])
	}
	if err := cbor.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("failed to encode shape file: %w", err)
	}
	return nil
}

// ReadShapeFile loads a point list from path.
func ReadShapeFile(path string) ([]mgl32.Vec3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shape file: %w", err)
	}
	defer f.Close()
	return DecodeShapeFile(f)
}

// WriteShapeFile saves points to path.
func WriteShapeFile(path string, points []mgl32.Vec3) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create shape file: %w", err)
	}
	if err := EncodeShapeFile(f, points); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadPointShape reads path into a point shape. On failure a warning is
// logged and the shape has no points.
func LoadPointShape(path string, randomize bool) *Shape {
	pts, err := ReadShapeFile(path)
	if err != nil {
		warnf("%v", err)
		pts = nil
	}
	return ShapeFromPoints(pts, randomize)
}
