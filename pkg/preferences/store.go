// Package preferences implements the broker's persistent key/value store:
// the device catalogue, per-device formats and controls, the picture path,
// and the handful of service-level settings (log level, port, timeout).
//
// The original implementation backs this with the host's native registry
// (CFPreferences on the Mac build, the Windows registry on Windows). None of
// that is portable, so this package keeps the same key/value contract —
// typed readers/writers, subtree delete, subtree move, explicit Sync — but
// persists to a single JSON file guarded by a mutex.
package preferences

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/webcamoid/akvirtualcamera-go/pkg/vcerrors"
)

// Store is a flat key/value table. Keys are dot-separated strings such as
// "cameras.0.description"; there is no nested structure on disk, only the
// naming convention imposed by the callers in this package.
type Store struct {
	path   string
	logger *zap.Logger

	mu   sync.RWMutex
	data map[string]any
}

// Open loads path if it exists, or starts with an empty table. The file is
// not created until the first Sync.
func Open(path string, logger *zap.Logger) (*Store, error) {
	s := &Store{path: path, logger: logger, data: make(map[string]any)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, vcerrors.NewPreferencesError("read", path, err)
	}

	if len(raw) == 0 {
		return s, nil
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, vcerrors.NewPreferencesError("parse", path, err)
	}

	return s, nil
}

// Keys returns every key currently set, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteString sets key to a string value.
func (s *Store) WriteString(key, value string) {
	s.set(key, value)
}

// WriteInt sets key to an integer value.
func (s *Store) WriteInt(key string, value int) {
	s.set(key, value)
}

// WriteDouble sets key to a floating-point value.
func (s *Store) WriteDouble(key string, value float64) {
	s.set(key, value)
}

func (s *Store) set(key string, value any) {
	s.logger.Debug("preferences write", zap.String("key", key))
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
}

// ReadString returns key's value as a string, or defaultValue if key is
// unset or holds a non-string value.
func (s *Store) ReadString(key string, defaultValue string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return defaultValue
	}
	str, ok := v.(string)
	if !ok {
		return defaultValue
	}
	return str
}

// ReadInt returns key's value as an int, or defaultValue if key is unset or
// cannot be interpreted as a number.
func (s *Store) ReadInt(key string, defaultValue int) int {
	s.mu.RLock()
	v, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return defaultValue
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return defaultValue
		}
		return i
	default:
		return defaultValue
	}
}

// ReadDouble returns key's value as a float64, or defaultValue if key is
// unset or cannot be interpreted as a number.
func (s *Store) ReadDouble(key string, defaultValue float64) float64 {
	s.mu.RLock()
	v, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return defaultValue
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return defaultValue
		}
		return f
	default:
		return defaultValue
	}
}

// ReadStringList splits key's string value on commas, trimming whitespace
// from each element. An unset key returns defaultValue unmodified.
func (s *Store) ReadStringList(key string, defaultValue []string) []string {
	raw := s.ReadString(key, "")
	if raw == "" {
		return defaultValue
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// DeleteKey removes a single key.
func (s *Store) DeleteKey(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

// DeleteAllKeys removes every key whose name starts with prefix.
func (s *Store) DeleteAllKeys(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
		}
	}
}

// Move renames a single key, leaving keyTo holding keyFrom's prior value.
// A no-op if keyFrom is unset.
func (s *Store) Move(keyFrom, keyTo string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[keyFrom]
	if !ok {
		return
	}
	s.data[keyTo] = v
	delete(s.data, keyFrom)
}

// MoveAll renames every key beginning with keyFrom so that keyTo becomes
// its new prefix, preserving whatever followed keyFrom.
func (s *Store) MoveAll(keyFrom, keyTo string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range s.data {
		if !strings.HasPrefix(k, keyFrom) {
			continue
		}
		var newKey string
		if len(k) == len(keyFrom) {
			newKey = keyTo
		} else {
			newKey = keyTo + k[len(keyFrom):]
		}
		delete(s.data, k)
		s.data[newKey] = v
	}
}

// Sync persists the current table to disk, creating parent directories as
// needed. It is the only operation in this package that touches the
// filesystem outside of Open.
func (s *Store) Sync() error {
	s.mu.RLock()
	raw, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return vcerrors.NewPreferencesError("marshal", s.path, err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return vcerrors.NewPreferencesError("mkdir", dir, err)
		}
	}

	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return vcerrors.NewPreferencesError("write", s.path, err)
	}

	return nil
}
