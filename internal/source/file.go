package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/crisis-triage-service/internal/domain"
)

// Default file names inside a data directory.
const (
	BulletinFileA = "disaster_1.json"
	BulletinFileB = "disaster_2.json"
	ResourceFile  = "hospital_resources.json"
)

// FileBulletinSource reads one bulletin feed from a JSON file holding either a
// single object or an array of objects.
type FileBulletinSource struct {
	path   string
	feed   string
	shape  domain.Shape
	logger *slog.Logger
}

// NewFileBulletinSource creates a source for the bulletin file at path.
func NewFileBulletinSource(path, feed string, shape domain.Shape, logger *slog.Logger) *FileBulletinSource {
	return &FileBulletinSource{path: path, feed: feed, shape: shape, logger: logger}
}

// DefaultBulletinSources returns the two bulletin feeds expected in dir.
func DefaultBulletinSources(dir string, logger *slog.Logger) []*FileBulletinSource {
	return []*FileBulletinSource{
		NewFileBulletinSource(filepath.Join(dir, BulletinFileA), string(domain.ShapeBulletinA), domain.ShapeBulletinA, logger),
		NewFileBulletinSource(filepath.Join(dir, BulletinFileB), string(domain.ShapeBulletinB), domain.ShapeBulletinB, logger),
	}
}

// Name returns the feed name used in logs, metrics and skip reports.
func (s *FileBulletinSource) Name() string { return s.feed }

// Records returns one RawRecord per bulletin. A missing file yields no
// records; an unreadable file or invalid top-level JSON is an error.
func (s *FileBulletinSource) Records(ctx context.Context) ([]domain.RawRecord, error) {
	data, ok, err := readOptional(ctx, s.path)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Debug("bulletin file not found", "feed", s.feed, "path", s.path)
		return nil, nil
	}

	payloads, err := splitObjects(data)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", s.feed, err)
	}
	return toRecords(s.feed, s.shape, payloads), nil
}

// FileResourceSource reads the hospital resource aggregate wrapper.
type FileResourceSource struct {
	path   string
	logger *slog.Logger
}

// NewFileResourceSource creates a source for the resource file at path.
func NewFileResourceSource(path string, logger *slog.Logger) *FileResourceSource {
	return &FileResourceSource{path: path, logger: logger}
}

// Name returns the feed name.
func (s *FileResourceSource) Name() string { return "hospital_resources" }

// Records returns one RawRecord per category breakdown, indexed by position
// in the wrapper's resources list.
func (s *FileResourceSource) Records(ctx context.Context) ([]domain.RawRecord, error) {
	data, ok, err := readOptional(ctx, s.path)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Debug("resource file not found", "path", s.path)
		return nil, nil
	}

	var wrapper domain.RawResourceAggregate
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("decode resource wrapper: %w", err)
	}
	return toRecords(s.Name(), domain.ShapeResourceItem, wrapper.Resources), nil
}

func readOptional(ctx context.Context, path string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	return data, true, nil
}

// splitObjects accepts a JSON array or a single JSON object and returns the
// undecoded elements.
func splitObjects(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		return items, nil
	}

	if !json.Valid(trimmed) {
		return nil, errors.New("invalid JSON document")
	}
	return []json.RawMessage{json.RawMessage(trimmed)}, nil
}

func toRecords(feed string, shape domain.Shape, payloads []json.RawMessage) []domain.RawRecord {
	records := make([]domain.RawRecord, 0, len(payloads))
	for i, p := range payloads {
		records = append(records, domain.RawRecord{Feed: feed, Shape: shape, Index: i, Payload: p})
	}
	return records
}
