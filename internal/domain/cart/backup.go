package cart

import (
	"encoding/json"
	"io"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
)

// backupVersion is bumped when the backup layout changes.
const backupVersion = 1

type backup struct {
	Version int    `json:"version"`
	Lines   []Line `json:"lines"`
}

// Export writes the snapshot's lines to w as gzip-compressed JSON.
func Export(w io.Writer, snap Snapshot) error {
	gz := pgzip.NewWriter(w)
	lines := snap.Lines
	if lines == nil {
		lines = []Line{}
	}
	if err := json.NewEncoder(gz).Encode(backup{Version: backupVersion, Lines: lines}); err != nil {
		_ = gz.Close()
		return errors.Wrap(err, "encode backup")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "flush backup")
	}
	return nil
}

// Import reads lines written by Export. The lines are normalized.
func Import(r io.Reader) ([]Line, error) {
	gz, err := pgzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open gzip reader")
	}
	defer func() { _ = gz.Close() }()

	var b backup
	if err := json.NewDecoder(gz).Decode(&b); err != nil {
		return nil, errors.Wrap(err, "decode backup")
	}
	if b.Version != backupVersion {
		return nil, errors.Errorf("unsupported backup version %d", b.Version)
	}
	return normalize(b.Lines), nil
}
