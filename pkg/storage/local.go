package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultURLPrefix is the path under which local audio files are served.
const DefaultURLPrefix = "/uploads"

// ErrInvalidRef is returned for references that do not belong to the store.
var ErrInvalidRef = errors.New("invalid audio reference")

// Local stores audio files in a directory that the HTTP layer serves
// statically under URLPrefix.
type Local struct {
	dir       string
	urlPrefix string
	logger    *zap.Logger
}

// NewLocal creates the upload directory if needed.
func NewLocal(dir, urlPrefix string, logger *zap.Logger) (*Local, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if urlPrefix == "" {
		urlPrefix = DefaultURLPrefix
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	logger.Info("local audio store ready", zap.String("dir", abs), zap.String("url_prefix", urlPrefix))
	return &Local{dir: abs, urlPrefix: strings.TrimRight(urlPrefix, "/"), logger: logger}, nil
}

// Dir returns the absolute upload directory.
func (l *Local) Dir() string { return l.dir }

// URLPrefix returns the path prefix of references produced by Put.
func (l *Local) URLPrefix() string { return l.urlPrefix }

// Put writes body to a temp file and renames it into place, so a failed
// write never leaves a partial file under the final name.
func (l *Local) Put(_ context.Context, name, _ string, body io.Reader, _ int64) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("put %q: %w", name, ErrInvalidRef)
	}
	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close audio: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(l.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("move audio into place: %w", err)
	}
	return l.urlPrefix + "/" + name, nil
}

// Delete removes the file behind ref.
func (l *Local) Delete(_ context.Context, ref string) error {
	p, err := l.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("remove audio: %w", err)
	}
	return nil
}

// Open returns the file behind ref with its content type.
func (l *Local) Open(_ context.Context, ref string) (io.ReadCloser, string, error) {
	p, err := l.resolve(ref)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	return f, ContentTypeForFilename(p), nil
}

// Localize returns the absolute path of ref. Files are already local, so the
// cleanup func is a no-op.
func (l *Local) Localize(_ context.Context, ref string) (string, func(), error) {
	p, err := l.resolve(ref)
	if err != nil {
		return "", nil, err
	}
	if _, err := os.Stat(p); err != nil {
		return "", nil, fmt.Errorf("stat audio: %w", err)
	}
	return p, func() {}, nil
}

func (l *Local) resolve(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, l.urlPrefix+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%q: %w", ref, ErrInvalidRef)
	}
	return filepath.Join(l.dir, name), nil
}
