package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mattn/go-isatty"

	"github.com/daimatz/gopatcher/pkg/classdef"
	"github.com/daimatz/gopatcher/pkg/corpus"
)

func findJmodPath() string {
	// 1. Explicit env var
	if env := os.Getenv("JAVA_BASE_JMOD"); env != "" {
		return env
	}
	// 2. JAVA_HOME
	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		p := filepath.Join(javaHome, "jmods", "java.base.jmod")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	// 3. Glob fallback
	matches, _ := doublestar.FilepathGlob("/usr/lib/jvm/java-*-openjdk-*/jmods/java.base.jmod")
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

// loadCorpus loads the classes named by args, followed by java.base when
// --jdk is set.
func loadCorpus(g *globalOptions, logger *slog.Logger, args []string) ([]classdef.Class, error) {
	paths := append([]string(nil), args...)
	if g.jdk {
		jmod := findJmodPath()
		if jmod == "" {
			return nil, errors.New("could not find java.base.jmod; set JAVA_HOME or JAVA_BASE_JMOD")
		}
		paths = append(paths, jmod)
	}

	classes, err := corpus.NewLoader(corpus.WithLogger(logger)).Load(paths...)
	if err != nil {
		return nil, err
	}
	logger.Info("corpus loaded", "sources", len(paths), "classes", len(classes))
	return classes, nil
}

// table writes tab-separated rows, aligned into columns when out is a
// terminal.
type table struct {
	out io.Writer
	tw  *tabwriter.Writer
}

func newTable(out io.Writer) *table {
	t := &table{out: out}
	if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		t.tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		t.out = t.tw
	}
	return t
}

func (t *table) row(cols ...string) {
	fmt.Fprintln(t.out, strings.Join(cols, "\t"))
}

func (t *table) flush() error {
	if t.tw == nil {
		return nil
	}
	return t.tw.Flush()
}

func hex(flags uint16) string { return fmt.Sprintf("0x%04x", flags) }
