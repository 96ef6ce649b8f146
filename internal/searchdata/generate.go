package searchdata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/kamusis/docindex-cli/internal/symbols"
)

// GenerateOptions controls a full index regeneration.
type GenerateOptions struct {
	OutDir      string
	URLPrefix   string
	ShortOwners bool
	Force       bool
	LockTimeout time.Duration
}

// GenerateResult reports what Generate did.
type GenerateResult struct {
	Index     *Index
	InputHash string
	Skipped   bool
}

// Generate rebuilds the index for syms into opts.OutDir.
//
// The directory is always regenerated wholesale into a temporary sibling and
// swapped in. When the previous manifest records the same input fingerprint
// and Force is false, the existing output is kept and Skipped is set.
func Generate(ctx context.Context, syms []symbols.Symbol, opts GenerateOptions) (*GenerateResult, error) {
	if opts.OutDir == "" {
		return nil, fmt.Errorf("out dir is required")
	}
	if len(syms) == 0 {
		return nil, fmt.Errorf("no symbols to index")
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 10 * time.Second
	}

	parent := filepath.Dir(filepath.Clean(opts.OutDir))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create %s: %w", parent, err)
	}

	unlock, err := acquireLock(ctx, filepath.Clean(opts.OutDir)+".lock", opts.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	bopts := BuildOptions{URLPrefix: opts.URLPrefix, ShortOwners: opts.ShortOwners}
	hash, err := Fingerprint(syms, bopts)
	if err != nil {
		return nil, err
	}

	if !opts.Force {
		if old := ReadManifest(opts.OutDir); old != nil && old.InputHash == hash && old.IndexVersion == indexVersion {
			slog.Debug("index inputs unchanged", slog.String("dir", opts.OutDir), slog.String("input_hash", hash))
			idx, _, err := LoadDir(opts.OutDir)
			if err == nil {
				return &GenerateResult{Index: idx, InputHash: hash, Skipped: true}, nil
			}
			slog.Warn("existing index unreadable, regenerating", slog.String("dir", opts.OutDir), slog.Any("error", err))
		}
	}

	idx, err := Build(syms, bopts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp(parent, ".searchdata-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp index dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	m := Manifest{URLPrefix: opts.URLPrefix, InputHash: hash, Symbols: len(syms)}
	if err := WriteDir(tmpDir, idx, m); err != nil {
		return nil, err
	}
	if err := os.Chmod(tmpDir, 0o755); err != nil {
		return nil, err
	}
	if err := swapDir(tmpDir, opts.OutDir); err != nil {
		return nil, fmt.Errorf("cannot install index: %w", err)
	}

	slog.Info("index generated",
		slog.String("dir", opts.OutDir),
		slog.Int("symbols", len(syms)),
		slog.Int("entries", len(idx.Entries)))
	return &GenerateResult{Index: idx, InputHash: hash}, nil
}

// Fingerprint hashes the generator inputs. Equal fingerprints produce
// byte-identical output.
func Fingerprint(syms []symbols.Symbol, opts BuildOptions) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	header := map[string]any{"version": indexVersion, "url_prefix": opts.URLPrefix, "short_owners": opts.ShortOwners}
	if err := enc.Encode(header); err != nil {
		return "", err
	}
	for _, s := range syms {
		if err := enc.Encode(s); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// swapDir replaces destDir with srcDir by renaming, keeping the previous
// output as <destDir>.bak until the new one is in place.
func swapDir(srcDir, destDir string) error {
	backup := destDir + ".bak"
	_ = os.RemoveAll(backup)
	if _, err := os.Stat(destDir); err == nil {
		if err := os.Rename(destDir, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(srcDir, destDir); err != nil {
		if _, stErr := os.Stat(backup); stErr == nil {
			_ = os.Rename(backup, destDir)
		}
		return err
	}
	return os.RemoveAll(backup)
}

// acquireLock takes the per-output build lock, polling until timeout.
func acquireLock(ctx context.Context, lockPath string, timeout time.Duration) (func(), error) {
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire build lock %s: %w", lockPath, err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w (lock: %s)", ErrLocked, lockPath)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// Leftovers lists temporary and backup directories an interrupted Generate
// left next to outDir.
func Leftovers(outDir string) ([]string, error) {
	outDir = filepath.Clean(outDir)
	tmp, err := filepath.Glob(filepath.Join(filepath.Dir(outDir), ".searchdata-*"))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(outDir + ".bak"); err == nil {
		tmp = append(tmp, outDir+".bak")
	}
	return tmp, nil
}

// LockHeld reports whether another process holds the build lock of outDir.
func LockHeld(outDir string) (bool, error) {
	outDir = filepath.Clean(outDir)
	if _, err := os.Stat(filepath.Dir(outDir)); os.IsNotExist(err) {
		return false, nil
	}
	l := flock.New(outDir + ".lock")
	locked, err := l.TryLock()
	if err != nil {
		return false, err
	}
	if locked {
		_ = l.Unlock()
	}
	return !locked, nil
}
