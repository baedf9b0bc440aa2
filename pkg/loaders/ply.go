package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-probegrid/pkg/core"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "ascii" or "binary_little_endian"
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYMesh holds the collision geometry of a PLY file
type PLYMesh struct {
	Vertices []core.Vec3 // Vertex positions
	Faces    []int       // Triangle indices (3 per triangle)
}

// LoadPLY reads vertex positions and faces from a PLY file.
// Polygons with more than three corners are fan-triangulated; every other
// vertex and face property is skipped.
func LoadPLY(filename string) (*PLYMesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %v", err)
	}
	defer file.Close()

	return ReadPLY(file)
}

// ReadPLY parses PLY data from r
func ReadPLY(r io.Reader) (*PLYMesh, error) {
	reader := bufio.NewReaderSize(r, 1<<16)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %v", err)
	}

	var body plyBody
	switch header.Format {
	case "binary_little_endian":
		body = &binaryBody{r: reader}
	case "ascii":
		body = newASCIIBody(reader)
	default:
		return nil, fmt.Errorf("unsupported PLY format: %s", header.Format)
	}

	mesh, err := readMesh(body, header)
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %v", err)
	}
	return mesh, nil
}

// parsePLYHeader consumes the header up to and including end_header
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}

	magic, err := reader.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("not a PLY file")
	}

	currentElement := ""
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("unexpected end of header: %v", err)
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 2 {
				return nil, fmt.Errorf("invalid format line: %q", strings.TrimSpace(line))
			}
			header.Format = parts[1]
		case "comment", "obj_info":
		case "element":
			if len(parts) != 3 {
				return nil, fmt.Errorf("invalid element line: %q", strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid %s count: %s", parts[1], parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			default:
				if count > 0 {
					return nil, fmt.Errorf("unsupported element: %s", currentElement)
				}
			}
		case "property":
			prop, err := parsePLYProperty(parts)
			if err != nil {
				return nil, err
			}
			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		case "end_header":
			return header, validateHeader(header)
		default:
			return nil, fmt.Errorf("unknown header keyword: %s", parts[0])
		}
	}
}

func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) >= 5 && parts[1] == "list" {
		return PLYProperty{Name: parts[4], IsList: true, ListType: parts[2], DataType: parts[3]}, nil
	}
	if len(parts) == 3 {
		return PLYProperty{Name: parts[2], Type: parts[1]}, nil
	}
	return PLYProperty{}, fmt.Errorf("invalid property line: %q", strings.Join(parts, " "))
}

func validateHeader(h *PLYHeader) error {
	for _, axis := range []string{"x", "y", "z"} {
		if propertyIndex(h.VertexProps, axis) < 0 {
			return fmt.Errorf("vertex element has no %s property", axis)
		}
	}
	if h.FaceCount > 0 && faceIndexProperty(h.FaceProps) < 0 {
		return fmt.Errorf("face element has no vertex_indices list")
	}
	for _, prop := range append(append([]PLYProperty{}, h.VertexProps...), h.FaceProps...) {
		types := []string{prop.Type}
		if prop.IsList {
			types = []string{prop.ListType, prop.DataType}
		}
		for _, t := range types {
			if getTypeSize(t) == 0 {
				return fmt.Errorf("unsupported data type: %s", t)
			}
		}
	}
	return nil
}

func propertyIndex(props []PLYProperty, name string) int {
	for i, p := range props {
		if p.Name == name && !p.IsList {
			return i
		}
	}
	return -1
}

func faceIndexProperty(props []PLYProperty) int {
	for i, p := range props {
		if p.IsList && (p.Name == "vertex_indices" || p.Name == "vertex_index") {
			return i
		}
	}
	return -1
}

// plyBody reads scalar values in file order regardless of encoding
type plyBody interface {
	value(dataType string) (float64, error)
}

type binaryBody struct {
	r   *bufio.Reader
	buf [8]byte
}

func (b *binaryBody) value(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	data := b.buf[:size]
	if _, err := io.ReadFull(b.r, data); err != nil {
		return 0, err
	}
	le := binary.LittleEndian
	switch dataType {
	case "float", "float32":
		return float64(math.Float32frombits(le.Uint32(data))), nil
	case "double", "float64":
		return math.Float64frombits(le.Uint64(data)), nil
	case "int", "int32":
		return float64(int32(le.Uint32(data))), nil
	case "uint", "uint32":
		return float64(le.Uint32(data)), nil
	case "short", "int16":
		return float64(int16(le.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(le.Uint16(data)), nil
	case "char", "int8":
		return float64(int8(data[0])), nil
	default: // uchar
		return float64(data[0]), nil
	}
}

type asciiBody struct {
	scanner *bufio.Scanner
}

func newASCIIBody(r io.Reader) *asciiBody {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	return &asciiBody{scanner: scanner}
}

func (a *asciiBody) value(string) (float64, error) {
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(a.scanner.Text(), 64)
}

func readMesh(body plyBody, h *PLYHeader) (*PLYMesh, error) {
	xi := propertyIndex(h.VertexProps, "x")
	yi := propertyIndex(h.VertexProps, "y")
	zi := propertyIndex(h.VertexProps, "z")

	mesh := &PLYMesh{
		Vertices: make([]core.Vec3, h.VertexCount),
		Faces:    make([]int, 0, h.FaceCount*3),
	}

	values := make([]float64, len(h.VertexProps))
	for v := 0; v < h.VertexCount; v++ {
		for i, prop := range h.VertexProps {
			if prop.IsList {
				if err := skipList(body, prop); err != nil {
					return nil, fmt.Errorf("vertex %d: %v", v, err)
				}
				continue
			}
			val, err := body.value(prop.Type)
			if err != nil {
				return nil, fmt.Errorf("vertex %d: %v", v, err)
			}
			values[i] = val
		}
		mesh.Vertices[v] = core.NewVec3(values[xi], values[yi], values[zi])
	}

	indexProp := faceIndexProperty(h.FaceProps)
	corners := make([]int, 0, 4)
	for f := 0; f < h.FaceCount; f++ {
		for i, prop := range h.FaceProps {
			if i != indexProp {
				if err := skipProperty(body, prop); err != nil {
					return nil, fmt.Errorf("face %d: %v", f, err)
				}
				continue
			}
			count, err := body.value(prop.ListType)
			if err != nil {
				return nil, fmt.Errorf("face %d: %v", f, err)
			}
			corners = corners[:0]
			for c := 0; c < int(count); c++ {
				idx, err := body.value(prop.DataType)
				if err != nil {
					return nil, fmt.Errorf("face %d: %v", f, err)
				}
				if idx < 0 || int(idx) >= h.VertexCount {
					return nil, fmt.Errorf("face %d: vertex index %d out of range", f, int(idx))
				}
				corners = append(corners, int(idx))
			}
			// Fan triangulation
			for c := 1; c+1 < len(corners); c++ {
				mesh.Faces = append(mesh.Faces, corners[0], corners[c], corners[c+1])
			}
		}
	}

	return mesh, nil
}

func skipProperty(body plyBody, prop PLYProperty) error {
	if prop.IsList {
		return skipList(body, prop)
	}
	_, err := body.value(prop.Type)
	return err
}

func skipList(body plyBody, prop PLYProperty) error {
	count, err := body.value(prop.ListType)
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := body.value(prop.DataType); err != nil {
			return err
		}
	}
	return nil
}

// getTypeSize returns the size in bytes of a PLY data type, or 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}
