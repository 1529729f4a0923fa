// Package corpus loads class corpora from class directories, globs, jar/zip
// archives and JDK jmod files.
package corpus

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zip"

	"github.com/daimatz/gopatcher/pkg/classdef"
	"github.com/daimatz/gopatcher/pkg/classfile"
	"github.com/daimatz/gopatcher/pkg/logging"
)

// jmodMagic prefixes the zip data of a jmod file.
var jmodMagic = []byte("JM\x01\x00")

// Loader turns paths into an ordered corpus.
type Loader struct {
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logging.OrNop(logger) }
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{logger: logging.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every path in order and concatenates the classes found. A path
// may be a .class file, a directory (searched recursively), a .jar/.zip
// archive, a .jmod file, or a glob pattern with ** support. Classes within
// one source are ordered by entry name, so corpus order is stable.
func (l *Loader) Load(paths ...string) ([]classdef.Class, error) {
	var classes []classdef.Class
	for _, path := range paths {
		found, err := l.loadPath(path)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("corpus source loaded", "path", path, "classes", len(found))
		classes = append(classes, found...)
	}
	return classes, nil
}

func (l *Loader) loadPath(path string) ([]classdef.Class, error) {
	if strings.ContainsAny(path, "*?[{") {
		matches, err := doublestar.FilepathGlob(path)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", path, err)
		}
		sort.Strings(matches)
		var classes []classdef.Class
		for _, m := range matches {
			found, err := l.loadPath(m)
			if err != nil {
				return nil, err
			}
			classes = append(classes, found...)
		}
		return classes, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	if info.IsDir() {
		return loadDir(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".class":
		c, err := loadClassFile(path)
		if err != nil {
			return nil, err
		}
		return []classdef.Class{c}, nil
	case ".jar", ".zip":
		return loadJar(path)
	case ".jmod":
		return loadJmod(path)
	default:
		return nil, fmt.Errorf("corpus: unsupported file %s", path)
	}
}

func loadDir(dir string) ([]classdef.Class, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.class")
	if err != nil {
		return nil, fmt.Errorf("dir: scanning %s: %w", dir, err)
	}
	sort.Strings(matches)
	classes := make([]classdef.Class, 0, len(matches))
	for _, m := range matches {
		c, err := loadClassFile(filepath.Join(dir, filepath.FromSlash(m)))
		if err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, nil
}

func loadClassFile(path string) (*classdef.ImmutableClass, error) {
	cf, err := classfile.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("class: parsing %s: %w", path, err)
	}
	c, err := classdef.FromClassFile(cf)
	if err != nil {
		return nil, fmt.Errorf("class: %s: %w", path, err)
	}
	return c, nil
}

func loadJar(path string) ([]classdef.Class, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("jar: opening %s: %w", path, err)
	}
	defer zr.Close()
	return loadZipEntries(path, &zr.Reader, "")
}

func loadJmod(path string) ([]classdef.Class, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jmod: reading %s: %w", path, err)
	}
	if !bytes.HasPrefix(data, jmodMagic) {
		return nil, fmt.Errorf("jmod: %s: missing JM header", path)
	}
	zipData := data[len(jmodMagic):]
	zr, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, fmt.Errorf("jmod: opening zip in %s: %w", path, err)
	}
	return loadZipEntries(path, zr, "classes/")
}

// loadZipEntries parses every .class entry under prefix, in name order.
func loadZipEntries(source string, zr *zip.Reader, prefix string) ([]classdef.Class, error) {
	var files []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().Mode()&fs.ModeDir != 0 {
			continue
		}
		if strings.HasPrefix(f.Name, prefix) && strings.HasSuffix(f.Name, ".class") {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	classes := make([]classdef.Class, 0, len(files))
	for _, f := range files {
		c, err := loadZipEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		classes = append(classes, c)
	}
	return classes, nil
}

func loadZipEntry(f *zip.File) (*classdef.ImmutableClass, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	cf, err := classfile.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.Name, err)
	}
	c, err := classdef.FromClassFile(cf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	return c, nil
}
