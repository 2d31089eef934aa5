package gen

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/erdgen"
	"github.com/syssam/erdgen/schema"
)

// SnapshotPath is the snapshot location, relative to the target.
const SnapshotPath = ".erdgen/snapshot.msgpack"

// snapshotVersion changes whenever the generated output changes for the
// same input, so older snapshots never short-circuit a run.
const snapshotVersion = 1

// Snapshot records a generation run: the digest of its input and the files
// it wrote.
type Snapshot struct {
	Version   int       `msgpack:"version"`
	RunID     string    `msgpack:"run_id"`
	Digest    string    `msgpack:"digest"`
	Files     []string  `msgpack:"files"`
	CreatedAt time.Time `msgpack:"created_at"`
}

// digestInput is everything the generated output depends on.
type digestInput struct {
	Version   int           `msgpack:"version"`
	Model     *schema.Model `msgpack:"model"`
	Package   string        `msgpack:"package"`
	Header    string        `msgpack:"header"`
	SeedRows  int           `msgpack:"seed_rows"`
	Artifacts []Artifact    `msgpack:"artifacts"`
}

// Digest returns the digest of an enriched model under c.
func Digest(m *schema.Model, c *Config) (string, error) {
	b, err := msgpack.Marshal(&digestInput{
		Version:   snapshotVersion,
		Model:     m,
		Package:   c.Package,
		Header:    c.Header,
		SeedRows:  c.SeedRows,
		Artifacts: c.Artifacts,
	})
	if err != nil {
		return "", fmt.Errorf("digest model: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// ReadSnapshot reads the snapshot of target. It returns nil when no
// snapshot exists or it cannot be decoded.
func ReadSnapshot(target string) (*Snapshot, error) {
	b, err := os.ReadFile(filepath.Join(target, SnapshotPath))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, erdgen.NewEmissionIOError(SnapshotPath, err)
	}
	s := &Snapshot{}
	if err := msgpack.Unmarshal(b, s); err != nil || s.Version != snapshotVersion {
		// A corrupt or outdated snapshot only costs a full run.
		return nil, nil
	}
	return s, nil
}

// Write stores the snapshot under target.
func (s *Snapshot) Write(target string) error {
	b, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	path := filepath.Join(target, SnapshotPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return erdgen.NewEmissionIOError(SnapshotPath, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return erdgen.NewEmissionIOError(SnapshotPath, err)
	}
	return nil
}

// Current reports whether the snapshot matches digest and every file it
// lists still exists under target.
func (s *Snapshot) Current(target, digest string) bool {
	if s == nil || s.Digest != digest {
		return false
	}
	for _, f := range s.Files {
		if _, err := os.Stat(filepath.Join(target, f)); err != nil {
			return false
		}
	}
	return true
}

// Stale returns the files of the snapshot that are not in files.
func (s *Snapshot) Stale(files []string) []string {
	if s == nil {
		return nil
	}
	var stale []string
	for _, f := range s.Files {
		if !slices.Contains(files, f) {
			stale = append(stale, f)
		}
	}
	return stale
}
