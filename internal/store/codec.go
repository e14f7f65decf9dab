package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cs-go/internal/schema"
)

// Codec reads and writes JSON object files against a declared shape.
// Validation happens at the I/O boundary, so every object handed to a
// lifecycle service already satisfies its schema.
//
// When caching is enabled, all three of Create/Read/Update populate a
// path-keyed in-memory cache and Read serves from it without re-touching
// disk. The cache is never invalidated by out-of-process edits; callers
// must treat it as valid only while this process is the sole writer.
// Process restart clears it.
type Codec struct {
	cacheEnabled bool

	mu    sync.Mutex
	cache map[string][]byte
}

// NewCodec creates a Codec. cacheEnabled turns on the read-through cache.
func NewCodec(cacheEnabled bool) *Codec {
	return &Codec{
		cacheEnabled: cacheEnabled,
		cache:        make(map[string][]byte),
	}
}

// Create validates data and writes it to path. It fails when path already
// exists; overwriting an existing object goes through Update.
func (c *Codec) Create(data any, path string, v schema.Validator) error {
	if err := v.Validate(data); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("object file %s: %w", path, fs.ErrExist)
	}
	return c.write(data, path)
}

// Read decodes the file at path into out, validating on the way out. A
// cache hit skips the disk read entirely.
func (c *Codec) Read(path string, v schema.Validator, out any) error {
	raw, ok := c.cached(path)
	if !ok {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading object file: %w", err)
		}
		c.remember(path, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding object file %s: %w", path, err)
	}
	return v.Validate(out)
}

// Update validates data and overwrites path.
func (c *Codec) Update(data any, path string, v schema.Validator) error {
	if err := v.Validate(data); err != nil {
		return err
	}
	return c.write(data, path)
}

// Delete removes the file at path and drops its cache entry, so a read
// after delete reports not-found instead of serving stale content.
func (c *Codec) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing object file: %w", err)
	}
	c.mu.Lock()
	delete(c.cache, path)
	c.mu.Unlock()
	return nil
}

// Flush drops every cache entry. Branch switches rewrite the working tree
// underneath cached paths, so callers flush before reading across one.
func (c *Codec) Flush() {
	c.mu.Lock()
	c.cache = make(map[string][]byte)
	c.mu.Unlock()
}

// FlushPrefix drops every cache entry under dir. Removing a whole
// directory tree bypasses Delete, so the cached files beneath it must be
// dropped in one sweep or reads keep serving the removed objects.
func (c *Codec) FlushPrefix(dir string) {
	prefix := dir + string(filepath.Separator)
	c.mu.Lock()
	for path := range c.cache {
		if path == dir || strings.HasPrefix(path, prefix) {
			delete(c.cache, path)
		}
	}
	c.mu.Unlock()
}

// UnsafeRead returns the parsed but unvalidated content of path, bypassing
// the cache entirely. Reserved for migration, where the on-disk shape may
// predate the current schema.
func (c *Codec) UnsafeRead(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading object file: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding object file %s: %w", path, err)
	}
	return out, nil
}

// write marshals data pretty-printed (so commits stay reviewable) and
// writes it, populating the cache.
func (c *Codec) write(data any, path string) error {
	raw, err := marshal(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating object directory: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("writing object file: %w", err)
	}
	c.remember(path, raw)
	return nil
}

func marshal(data any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("encoding object: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Codec) cached(path string) ([]byte, bool) {
	if !c.cacheEnabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.cache[path]
	return raw, ok
}

func (c *Codec) remember(path string, raw []byte) {
	if !c.cacheEnabled {
		return
	}
	c.mu.Lock()
	c.cache[path] = raw
	c.mu.Unlock()
}
