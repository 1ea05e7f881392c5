package kvstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/renameio"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileBackend stores each scope in its own file:
//
//	<Dir>/<Organization>/<Application><ext>
//
// With fallbacks enabled, lookups that miss the scope's own file also consult
// <Dir>/<Organization>/<Organization><ext> and, for every system directory,
// the application and organization files below it.
type FileBackend struct {
	// Dir is the user settings directory. Empty means os.UserConfigDir().
	Dir string
	// Format selects the file encoding. Empty means FormatINI.
	Format Format
	// SystemDirs are consulted only when fallbacks are enabled. Nil means
	// $XDG_CONFIG_DIRS, or /etc/xdg when that is unset.
	SystemDirs []string
}

// NewFileBackend creates a file backend rooted at dir.
func NewFileBackend(dir string, format Format) *FileBackend {
	return &FileBackend{Dir: dir, Format: format}
}

func (b *FileBackend) format() Format {
	if b.Format == "" {
		return FormatINI
	}
	return b.Format
}

func (b *FileBackend) userDir() (string, error) {
	if b.Dir != "" {
		return b.Dir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config directory: %w", err)
	}
	return dir, nil
}

func (b *FileBackend) systemDirs() []string {
	if b.SystemDirs != nil {
		return b.SystemDirs
	}
	if env := os.Getenv("XDG_CONFIG_DIRS"); env != "" {
		return filepath.SplitList(env)
	}
	return []string{"/etc/xdg"}
}

// Path returns the file that backs scope.
func (b *FileBackend) Path(scope Scope) (string, error) {
	if err := scope.validate(); err != nil {
		return "", err
	}
	dir, err := b.userDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, scope.Organization, scope.Application+b.format().Extension()), nil
}

// Open opens the file for scope. A missing file is an empty scope; unreadable
// or unparsable files are reported through the handle's Status.
func (b *FileBackend) Open(scope Scope, opts OpenOptions) (Handle, error) {
	path, err := b.Path(scope)
	if err != nil {
		return nil, err
	}

	store := &fileStorage{file: path, format: b.format()}
	var fallback *koanf.Koanf
	if opts.Fallbacks {
		fallback = b.loadFallbacks(scope)
	}
	return openHandle(store, fallback, opts), nil
}

// loadFallbacks merges the fallback files, lowest priority first.
func (b *FileBackend) loadFallbacks(scope Scope) *koanf.Koanf {
	ext := b.format().Extension()
	var paths []string
	dirs := b.systemDirs()
	for i := len(dirs) - 1; i >= 0; i-- {
		paths = append(paths,
			filepath.Join(dirs[i], scope.Organization, scope.Organization+ext),
			filepath.Join(dirs[i], scope.Organization, scope.Application+ext),
		)
	}
	if dir, err := b.userDir(); err == nil {
		paths = append(paths, filepath.Join(dir, scope.Organization, scope.Organization+ext))
	}

	merged := newTree()
	for _, p := range paths {
		src := &fileStorage{file: p, format: b.format()}
		tree, status := src.load()
		if status != NoError {
			logger.Debugf("skipping fallback %s: %s", p, status)
			continue
		}
		if err := merged.Merge(tree); err != nil {
			logger.Debugf("merging fallback %s: %v", p, err)
		}
	}
	return merged
}

// fileStorage reads and writes a single settings file.
type fileStorage struct {
	file   string
	format Format
}

func (s *fileStorage) path() string {
	return s.file
}

func (s *fileStorage) load() (*koanf.Koanf, Status) {
	info, err := os.Stat(s.file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newTree(), NoError
		}
		logger.Debugf("stat %s: %v", s.file, err)
		return newTree(), AccessError
	}
	if info.IsDir() {
		return newTree(), AccessError
	}

	f, err := os.Open(s.file)
	if err != nil {
		logger.Debugf("open %s: %v", s.file, err)
		return newTree(), AccessError
	}
	f.Close()

	tree := newTree()
	if err := tree.Load(file.Provider(s.file), s.format.Parser()); err != nil {
		logger.Debugf("parsing %s: %v", s.file, err)
		return newTree(), FormatError
	}
	return tree, NoError
}

func (s *fileStorage) save(tree *koanf.Koanf) Status {
	data, err := tree.Marshal(s.format.Parser())
	if err != nil {
		logger.Debugf("encoding %s: %v", s.file, err)
		return FormatError
	}
	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		logger.Debugf("creating directory for %s: %v", s.file, err)
		return AccessError
	}
	if err := renameio.WriteFile(s.file, data, 0o644); err != nil {
		logger.Debugf("writing %s: %v", s.file, err)
		return AccessError
	}
	return NoError
}

func (s *fileStorage) lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", s.file, err)
	}
	fl := flock.New(s.file + ".lock")
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("acquiring lock on %s: %w", s.file, err)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			logger.Debugf("releasing lock on %s: %v", s.file, err)
		}
	}, nil
}
