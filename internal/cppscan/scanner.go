// Package cppscan extracts documented symbols from C++ headers with
// tree-sitter, in source order.
package cppscan

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/kamusis/docindex-cli/internal/symbols"
)

// DefaultMaxFileSize bounds the size of a single header.
const DefaultMaxFileSize int64 = 4 * 1024 * 1024

var (
	// ErrFileTooLarge indicates a header larger than the scanner limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent indicates a header that is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")
)

// DefaultExtensions are the header suffixes ScanDir looks at.
var DefaultExtensions = []string{".h", ".hh", ".hpp", ".hxx", ".h++"}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMaxFileSize sets the largest header the scanner accepts.
func WithMaxFileSize(bytes int64) Option {
	return func(s *Scanner) {
		if bytes > 0 {
			s.maxFileSize = bytes
		}
	}
}

// WithExcludes sets glob patterns matched against the relative path and the
// base name of every walked entry.
func WithExcludes(patterns []string) Option {
	return func(s *Scanner) { s.excludes = patterns }
}

// WithPrivate makes the scanner emit private class members too.
func WithPrivate(include bool) Option {
	return func(s *Scanner) { s.includePrivate = include }
}

// WithExtensions replaces the header suffixes ScanDir looks at.
func WithExtensions(exts []string) Option {
	return func(s *Scanner) {
		if len(exts) > 0 {
			s.extensions = exts
		}
	}
}

// Scanner extracts symbols from C++ sources. It is safe for concurrent use;
// every ScanFile call creates its own tree-sitter parser.
type Scanner struct {
	maxFileSize    int64
	excludes       []string
	includePrivate bool
	extensions     []string
}

// New returns a Scanner with default limits.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		maxFileSize: DefaultMaxFileSize,
		extensions:  DefaultExtensions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileResult records one scanned header.
type FileResult struct {
	Path    string
	MD5     string
	Symbols int
}

// Result is returned by ScanDir.
type Result struct {
	Symbols []symbols.Symbol
	Files   []FileResult
	Skipped []string
}

// ScanFile extracts symbols from one header. relPath names the file in the
// generated file page and in error messages.
func (s *Scanner) ScanFile(ctx context.Context, relPath string, content []byte) ([]symbols.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan canceled before start: %w", err)
	}
	if int64(len(content)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, relPath, len(content), s.maxFileSize)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidContent, relPath)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(cpp.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse of %s failed: %w", relPath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		slog.Debug("header has syntax errors, results may be partial", slog.String("file", relPath))
	}

	base := filepath.Base(filepath.FromSlash(relPath))
	w := &walker{
		src:            content,
		file:           relPath,
		page:           symbols.PageName(symbols.KindFile, base),
		includePrivate: s.includePrivate,
		namespaces:     map[string]bool{},
	}
	w.emit(symbols.Symbol{Name: base, Kind: symbols.KindFile, Page: w.page})
	w.visit(root, scope{access: "public"})

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan canceled: %w", err)
	}
	return w.out, nil
}

// ScanDir walks root in lexical order and scans every header not excluded.
// Headers that cannot be scanned are logged and listed in Result.Skipped.
func (s *Scanner) ScanDir(ctx context.Context, root string) (*Result, error) {
	res := &Result{}
	if err := s.scanInto(ctx, root, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ScanPaths scans several roots in order, concatenating their symbols.
func (s *Scanner) ScanPaths(ctx context.Context, roots []string) (*Result, error) {
	res := &Result{}
	for _, root := range roots {
		if err := s.scanInto(ctx, root, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *Scanner) scanInto(ctx context.Context, root string, res *Result) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot stat source %s: %w", root, err)
	}
	if !info.IsDir() {
		return s.scanOne(ctx, filepath.Dir(root), root, res)
	}

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matchesExclude(rel, s.excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !s.isHeader(path) {
			return nil
		}
		return s.scanOne(ctx, root, path, res)
	}
	if err := filepath.WalkDir(root, walkFn); err != nil {
		return fmt.Errorf("cannot scan %s: %w", root, err)
	}
	return nil
}

func (s *Scanner) scanOne(ctx context.Context, root, path string, res *Result) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	syms, err := s.ScanFile(ctx, rel, b)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrInvalidContent) {
			slog.Warn("skipping header", slog.String("file", path), slog.Any("error", err))
			res.Skipped = append(res.Skipped, rel)
			return nil
		}
		return err
	}
	res.Symbols = append(res.Symbols, syms...)
	res.Files = append(res.Files, FileResult{
		Path:    rel,
		MD5:     fmt.Sprintf("%x", md5.Sum(b)),
		Symbols: len(syms),
	})
	return nil
}

// Relevant reports whether path, found under root, is a header ScanDir would
// scan. Directories are never relevant.
func (s *Scanner) Relevant(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	for p := rel; p != "." && p != string(filepath.Separator); p = filepath.Dir(p) {
		if matchesExclude(p, s.excludes) {
			return false
		}
	}
	return s.isHeader(path)
}

// Excluded reports whether a directory under root is skipped by ScanDir.
func (s *Scanner) Excluded(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return false
	}
	return matchesExclude(rel, s.excludes)
}

func (s *Scanner) isHeader(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range s.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// matchesExclude reports whether relPath matches any of the given glob patterns.
func matchesExclude(relPath string, patterns []string) bool {
	name := filepath.Base(relPath)
	slash := filepath.ToSlash(relPath)
	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(pattern, "/")
		// Match against the full relative path AND just the basename.
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, slash); matched {
			return true
		}
	}
	return false
}
