package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/pdftables/internal/extract"
)

// dirSink writes each export to its own file in dir. Name clashes get a
// numeric suffix ("Report_2.csv") instead of overwriting.
type dirSink struct {
	dir string

	mu      sync.Mutex
	used    map[string]bool
	written []string
}

func newDirSink(dir string) *dirSink {
	return &dirSink{dir: dir, used: make(map[string]bool)}
}

func (s *dirSink) Emit(content, mimeType, filename string) error {
	return s.write(s.reserve(filepath.Base(filename)), content)
}

// Reserve claims a file name now and returns a sink that writes to it,
// ignoring the name later passed to Emit. Reserving in table order keeps
// suffixes stable when exports finish out of order.
func (s *dirSink) Reserve(filename string) extract.DownloadSink {
	return reservedSink{dir: s, name: s.reserve(filepath.Base(filename))}
}

func (s *dirSink) write(name, content string) error {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}

	s.mu.Lock()
	s.written = append(s.written, path)
	s.mu.Unlock()
	return nil
}

type reservedSink struct {
	dir  *dirSink
	name string
}

func (r reservedSink) Emit(content, _, _ string) error {
	return r.dir.write(r.name, content)
}

func (s *dirSink) reserve(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 2; s.used[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
	s.used[candidate] = true
	return candidate
}

// Written returns the paths written so far, sorted.
func (s *dirSink) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.written...)
	sort.Strings(out)
	return out
}
