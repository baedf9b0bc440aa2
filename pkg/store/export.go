package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/df07/go-probegrid/pkg/core"
	"github.com/df07/go-probegrid/pkg/group"
)

// ExportRecord is one line of a probe export
type ExportRecord struct {
	Group       string         `json:"group"`
	Transform   core.Transform `json:"transform"`
	Local       [][3]float64   `json:"local"`
	World       [][3]float64   `json:"world"`
	CommittedAt time.Time      `json:"committedAt"`
}

// Commit converts the record back to a group commit
func (r ExportRecord) Commit() group.Commit {
	return group.Commit{
		Group:     r.Group,
		Transform: r.Transform,
		Local:     fromTriples(r.Local),
		World:     fromTriples(r.World),
	}
}

// Exporter appends commits to a zstd compressed JSONL file. It is safe for
// concurrent use.
type Exporter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewExporter creates or truncates the export at path
func NewExporter(path string) (*Exporter, error) {
	if path == "" {
		return nil, fmt.Errorf("empty export path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Exporter{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

// CommitProbes appends one record. Implements group.Sink.
func (e *Exporter) CommitProbes(ctx context.Context, commit group.Commit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(ExportRecord{
		Group:       commit.Group,
		Transform:   commit.Transform,
		Local:       toTriples(commit.Local),
		World:       toTriples(commit.World),
		CommittedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.w == nil {
		return fmt.Errorf("exporter closed")
	}
	if _, err := e.w.Write(b); err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}

// Close flushes the archive and closes the file
func (e *Exporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.w == nil {
		return nil
	}

	flushErr := e.w.Flush()
	encErr := e.enc.Close()
	fileErr := e.f.Close()
	e.w, e.enc, e.f = nil, nil, nil

	for _, err := range []error{flushErr, encErr, fileErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadExport reads every record of an export in file order
func ReadExport(path string) ([]ExportRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)

	var records []ExportRecord
	for line := 1; sc.Scan(); line++ {
		var record ExportRecord
		if err := json.Unmarshal(sc.Bytes(), &record); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		records = append(records, record)
	}
	return records, sc.Err()
}

func toTriples(points []core.Vec3) [][3]float64 {
	out := make([][3]float64, len(points))
	for i, p := range points {
		out[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return out
}

func fromTriples(triples [][3]float64) []core.Vec3 {
	out := make([]core.Vec3, len(triples))
	for i, t := range triples {
		out[i] = core.NewVec3(t[0], t[1], t[2])
	}
	return out
}
