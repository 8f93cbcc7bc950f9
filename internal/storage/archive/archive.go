// Package archive persists completed runs to a storage backend so sweeps
// and long histories survive process restarts.
package archive

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/newthinker/pairwise/internal/core"
	"github.com/newthinker/pairwise/internal/export"
	"github.com/newthinker/pairwise/internal/pipeline"
)

// Storage is the backend interface for run archives.
type Storage interface {
	// Write stores data at the given path.
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)
}

// SaveRun archives one completed run under runs/<id>/: the full result as
// JSON plus equity and trade CSVs for spreadsheet consumers.
func SaveRun(ctx context.Context, st Storage, runID string, res *pipeline.Result) error {
	base := path.Join("runs", runID)

	data, err := export.ResultJSON(res)
	if err != nil {
		return core.WrapError(core.ErrArchiveFailed, err)
	}
	if err := st.Write(ctx, path.Join(base, "result.json"), data); err != nil {
		return core.WrapError(core.ErrArchiveFailed, err)
	}

	var equity bytes.Buffer
	if err := export.WriteEquityCSV(&equity, res.Equity); err != nil {
		return core.WrapError(core.ErrArchiveFailed, err)
	}
	if err := st.Write(ctx, path.Join(base, "equity.csv"), equity.Bytes()); err != nil {
		return core.WrapError(core.ErrArchiveFailed, err)
	}

	var trades bytes.Buffer
	if err := export.WriteTradesCSV(&trades, res.Trades); err != nil {
		return core.WrapError(core.ErrArchiveFailed, err)
	}
	if err := st.Write(ctx, path.Join(base, "trades.csv"), trades.Bytes()); err != nil {
		return core.WrapError(core.ErrArchiveFailed, err)
	}

	return nil
}

// ListRuns returns the archived run IDs.
func ListRuns(ctx context.Context, st Storage) ([]string, error) {
	paths, err := st.List(ctx, "runs")
	if err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, err)
	}
	seen := make(map[string]bool)
	var ids []string
	for _, p := range paths {
		parts := strings.Split(p, "/")
		// runs/<id>/<file>
		if len(parts) < 3 || parts[0] != "runs" {
			continue
		}
		id := parts[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
