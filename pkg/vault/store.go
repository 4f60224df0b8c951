// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package vault implements the on-disk Markdown store backing the
// soul-agent daemon. A vault is a rooted directory tree of UTF-8
// Markdown files with YAML frontmatter; every component persists
// through it and the files stay human-editable in Obsidian.
package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Standard subdirectories created under the vault root.
var Dirs = []string{
	"logs",
	"todos/active",
	"todos/done",
	"insights",
	"core",
	"classified",
	"archive",
}

// Store provides serialized file I/O under a vault root directory.
// All writes are atomic (write-to-temp then rename) and guarded by a
// single lock so concurrent writers to the same file cannot interleave.
type Store struct {
	root string
	mu   sync.Mutex

	nowFn func() time.Time // test seam
}

// New opens (and if necessary creates) a vault rooted at root.
// The standard subdirectories are created eagerly; failure to create
// the root is fatal to the caller.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault root: %w", err)
	}
	for _, d := range Dirs {
		if err := os.MkdirAll(filepath.Join(abs, filepath.FromSlash(d)), 0o755); err != nil {
			return nil, fmt.Errorf("create vault dir %s: %w", d, err)
		}
	}
	return &Store{root: abs, nowFn: time.Now}, nil
}

// Root returns the absolute vault root path.
func (s *Store) Root() string { return s.root }

// validName rejects path traversal in file names. Directory arguments
// come from a fixed internal set ("todos/active" etc.) and may contain
// slashes; names never may.
func validName(name string) error {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid vault file name %q", name)
	}
	return nil
}

func validDir(dir string) error {
	if dir == "" || strings.HasPrefix(dir, "/") || strings.Contains(dir, "..") {
		return fmt.Errorf("invalid vault directory %q", dir)
	}
	return nil
}

func (s *Store) path(dir, name string) string {
	return filepath.Join(s.root, filepath.FromSlash(dir), name)
}

// Read returns the contents of dir/name, or nil if the file does not
// exist. A missing file is not an error.
func (s *Store) Read(dir, name string) ([]byte, error) {
	if err := validDir(dir); err != nil {
		return nil, err
	}
	if err := validName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(dir, name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", dir, name, err)
	}
	return data, nil
}

// Write stores content at dir/name, creating the directory on demand
// and overwriting any existing file. The write is atomic: content goes
// to a temp file in the same directory first, then rename.
func (s *Store) Write(dir, name string, content []byte) error {
	if err := validDir(dir); err != nil {
		return err
	}
	if err := validName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(dir, name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create dir for %s/%s: %w", dir, name, err)
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write temp for %s/%s: %w", dir, name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s/%s: %w", dir, name, err)
	}
	return nil
}

// Delete removes dir/name and reports whether a file was removed.
func (s *Store) Delete(dir, name string) (bool, error) {
	if err := validDir(dir); err != nil {
		return false, err
	}
	if err := validName(name); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(dir, name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", dir, name, err)
	}
	return true, nil
}

// Move relocates a file between vault directories atomically. Used by
// the to-do store to shift completed tasks from active/ to done/.
func (s *Store) Move(fromDir, toDir, name string) error {
	if err := validDir(fromDir); err != nil {
		return err
	}
	if err := validDir(toDir); err != nil {
		return err
	}
	if err := validName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.path(toDir, name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", toDir, err)
	}
	if err := os.Rename(s.path(fromDir, name), dst); err != nil {
		return fmt.Errorf("move %s from %s to %s: %w", name, fromDir, toDir, err)
	}
	return nil
}

// List returns the .md file names under dir in lexicographic order.
// A missing directory yields an empty list.
func (s *Store) List(dir string) ([]string, error) {
	if err := validDir(dir); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(s.root, filepath.FromSlash(dir)))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// IngestText writes a short content-addressed capture note under
// classified/. The filename is deterministic in the text, so repeated
// ingestion of the same content overwrites rather than duplicates.
func (s *Store) IngestText(text, source string) error {
	sum := sha256.Sum256([]byte(text))
	name := fmt.Sprintf("%s-%s.md", source, hex.EncodeToString(sum[:])[:12])

	now := s.nowFn()
	fields := map[string]string{
		"type": "capture",
		"date": now.Format("2006-01-02"),
	}
	return s.Write("classified", name, Build(fields, text))
}

// Search runs a substring scan over the Markdown files in the given
// directories (all standard directories when none are given). Matching
// is case-insensitive on every whitespace-separated query token; up to
// limit results are returned with a snippet around the first match.
func (s *Store) Search(query string, dirs []string, limit int) []SearchResult {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}
	if len(dirs) == 0 {
		dirs = Dirs
	}
	if limit <= 0 {
		limit = 10
	}

	var results []SearchResult
	for _, dir := range dirs {
		names, err := s.List(dir)
		if err != nil {
			continue
		}
		for _, name := range names {
			data, err := s.Read(dir, name)
			if err != nil || data == nil {
				continue
			}
			lower := strings.ToLower(string(data))
			match := true
			for _, tok := range tokens {
				if !strings.Contains(lower, tok) {
					match = false
					break
				}
			}
			if !match {
				continue
			}
			results = append(results, SearchResult{
				Path:    dir + "/" + name,
				Name:    name,
				Snippet: snippet(string(data), tokens[0]),
			})
			if len(results) >= limit {
				return results
			}
		}
	}
	return results
}

// SearchResult is one hit from Store.Search.
type SearchResult struct {
	Path    string `json:"path"`
	Name    string `json:"filename"`
	Snippet string `json:"snippet"`
}

func snippet(text, token string) string {
	const context = 100
	idx := strings.Index(strings.ToLower(text), token)
	if idx < 0 {
		if len(text) > 200 {
			return text[:200]
		}
		return text
	}
	start := idx - context
	if start < 0 {
		start = 0
	}
	end := idx + len(token) + context
	if end > len(text) {
		end = len(text)
	}
	out := strings.TrimSpace(strings.ReplaceAll(text[start:end], "\n", " "))
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}
