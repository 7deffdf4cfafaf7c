package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Snapshot is an ordered key/value rendering of a document. Keys keep the order they were
// put in, so encoding an unchanged document always yields the same bytes.
type Snapshot struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewSnapshot returns an empty snapshot ready for Put calls.
func NewSnapshot() *Snapshot {
	return &Snapshot{values: make(map[string]json.RawMessage)}
}

func (s *Snapshot) put(key string, raw json.RawMessage) *Snapshot {
	if s.values == nil {
		s.values = make(map[string]json.RawMessage)
	}
	if _, exists := s.values[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.values[key] = raw
	return s
}

// String puts a string value.
func (s *Snapshot) String(key, value string) *Snapshot {
	raw, _ := json.Marshal(value)
	return s.put(key, raw)
}

// Int puts an integer value.
func (s *Snapshot) Int(key string, value int) *Snapshot {
	return s.put(key, json.RawMessage(strconv.Itoa(value)))
}

// Bool puts a boolean value.
func (s *Snapshot) Bool(key string, value bool) *Snapshot {
	return s.put(key, json.RawMessage(strconv.FormatBool(value)))
}

// Time puts an RFC 3339 UTC timestamp, or null for nil.
func (s *Snapshot) Time(key string, value *time.Time) *Snapshot {
	if value == nil {
		return s.put(key, json.RawMessage("null"))
	}
	return s.String(key, FormatTime(*value))
}

// Keys returns the keys in insertion order.
func (s Snapshot) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of keys.
func (s Snapshot) Len() int {
	return len(s.keys)
}

// MarshalJSON encodes the snapshot as a compact object with keys in insertion order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(s.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keeping the key order of the input.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	parsed, err := ParseSnapshot(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Bytes is MarshalJSON without the error; a snapshot built through Put calls always encodes.
func (s Snapshot) Bytes() []byte {
	out, _ := s.MarshalJSON()
	return out
}

// ParseSnapshot decodes an encoded snapshot. Values are compacted so re-encoding is stable.
func ParseSnapshot(data []byte) (Snapshot, error) {
	snap := Snapshot{values: make(map[string]json.RawMessage)}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Snapshot{}, fmt.Errorf("decode snapshot: expected object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return Snapshot{}, fmt.Errorf("decode snapshot: expected key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Snapshot{}, fmt.Errorf("decode snapshot %q: %w", key, err)
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return Snapshot{}, fmt.Errorf("decode snapshot %q: %w", key, err)
		}
		snap.put(key, compact.Bytes())
	}
	if _, err := dec.Token(); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Reader returns a typed accessor. Missing keys read as zero values.
func (s Snapshot) Reader() *SnapshotReader {
	return &SnapshotReader{snap: s}
}

// SnapshotReader reads typed values and keeps the first decoding error.
type SnapshotReader struct {
	snap Snapshot
	err  error
}

// Err returns the first error met while reading.
func (r *SnapshotReader) Err() error {
	return r.err
}

func (r *SnapshotReader) decode(key string, dst interface{}) bool {
	raw, ok := r.snap.values[key]
	if !ok || r.err != nil || string(raw) == "null" {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.err = fmt.Errorf("snapshot field %q: %w", key, err)
		return false
	}
	return true
}

func (r *SnapshotReader) String(key string) string {
	var out string
	r.decode(key, &out)
	return out
}

func (r *SnapshotReader) Int(key string) int {
	var out int
	r.decode(key, &out)
	return out
}

func (r *SnapshotReader) Bool(key string) bool {
	var out bool
	r.decode(key, &out)
	return out
}

func (r *SnapshotReader) Status(key string) Status {
	return Status(r.String(key))
}

func (r *SnapshotReader) Time(key string) *time.Time {
	var raw string
	if !r.decode(key, &raw) || raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		if r.err == nil {
			r.err = fmt.Errorf("snapshot field %q: %w", key, err)
		}
		return nil
	}
	return &parsed
}

// FormatTime renders t the way snapshots store timestamps.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
