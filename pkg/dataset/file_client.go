package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/tailscale/hujson"
)

// FileClient reads rows from {root}/{reports|metrics}/{id}.json. Files may
// carry comments and trailing commas.
type FileClient struct {
	fsys fs.FS
}

// NewFileClient reads tables under root on the local filesystem.
func NewFileClient(root string) *FileClient {
	return &FileClient{fsys: os.DirFS(root)}
}

// NewFSClient reads tables from any fs.FS.
func NewFSClient(fsys fs.FS) *FileClient {
	return &FileClient{fsys: fsys}
}

// FetchRows implements Client.
func (c *FileClient) FetchRows(ctx context.Context, query Query) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := path.Join(query.Kind(), query.SchemaID+".json")
	data, err := fs.ReadFile(c.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("dataset: read %s: %w", name, err)
	}
	return DecodeRows(data)
}

// DecodeRows parses a JSONC array of row objects, or an object with a "rows"
// array.
func DecodeRows(data []byte) ([]map[string]any, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("dataset: invalid JSONC: %w", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(standardized, &rows); err == nil {
		return rows, nil
	}
	var wrapped rowsResponse
	if err := json.Unmarshal(standardized, &wrapped); err != nil {
		return nil, fmt.Errorf("dataset: invalid JSON: %w", err)
	}
	return wrapped.Rows, nil
}
