package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"macrokit/internal/macro"
)

// Current schema version - increment when CacheEntry format changes
const cacheSchemaVersion uint16 = 1

// Key addresses one cached expansion.
type Key [sha256.Size]byte

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// Cache хранит результаты экспансий на диске, по одному msgpack-файлу на ключ.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// CacheEntry is the on-disk payload.
type CacheEntry struct {
	Schema     uint16
	Macro      string
	Kind       uint8
	Output     string
	Additive   bool
	Directives []CachedDirective
	Created    time.Time
}

// CachedDirective is a directive without its span: fragments are not cached.
type CachedDirective struct {
	Name      string
	Value     string
	Found     bool
	Defaulted bool
}

// DefaultCacheDir returns $XDG_CACHE_HOME/<app> or ~/.cache/<app>.
func DefaultCacheDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// OpenCache creates dir if needed and returns a cache rooted there.
func OpenCache(dir string) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// KeyFor hashes everything that can change the output of an invocation.
func KeyFor(decl macro.Declaration, inv macro.Invocation, opts macro.Options) Key {
	h := sha256.New()
	var n [8]byte
	write := func(s string) {
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	binary.LittleEndian.PutUint16(n[:2], cacheSchemaVersion)
	h.Write(n[:2])
	write(decl.String())
	write(inv.Input)
	write(inv.Args)
	flags := []byte{0, 0}
	if inv.HasArgs {
		flags[0] = 1
	}
	if opts.Strict {
		flags[1] = 1
	}
	h.Write(flags)

	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

func (c *Cache) pathFor(key Key) string {
	hexKey := key.String()
	// двухсимвольный шардинг, как у git objects
	return filepath.Join(c.dir, "exp", hexKey[:2], hexKey[2:]+".mp")
}

// Put serializes and writes an entry; the file is replaced atomically.
func (c *Cache) Put(key Key, entry *CacheEntry) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	entry.Schema = cacheSchemaVersion
	if err = msgpack.NewEncoder(f).Encode(entry); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads an entry. Entries of another schema are treated as misses.
func (c *Cache) Get(key Key, out *CacheEntry) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll removes every entry. The cache stays usable afterwards.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименовываем и удаляем, чтобы параллельный Put не писал в полуудалённый каталог
	old := c.dir + ".old-" + time.Now().Format("20060102150405.000000000")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return os.MkdirAll(c.dir, 0o755)
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

func entryFromExpansion(name string, kind macro.Kind, exp macro.Expansion) *CacheEntry {
	e := &CacheEntry{
		Macro:    name,
		Kind:     uint8(kind),
		Output:   exp.Output,
		Additive: exp.Additive,
		Created:  time.Now().UTC(),
	}
	e.Directives = make([]CachedDirective, len(exp.Directives))
	for i, d := range exp.Directives {
		e.Directives[i] = CachedDirective{Name: d.Name, Value: d.Value, Found: d.Found, Defaulted: d.Defaulted}
	}
	return e
}

func (e *CacheEntry) directives() []macro.Directive {
	out := make([]macro.Directive, len(e.Directives))
	for i, d := range e.Directives {
		out[i] = macro.Directive{Name: d.Name, Value: d.Value, Found: d.Found, Defaulted: d.Defaulted}
	}
	return out
}
