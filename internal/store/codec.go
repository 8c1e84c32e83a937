package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"rcord/internal/metrics"
)

const (
	fileFormat  = "rcord-db"
	fileVersion = 1
)

// snapshot is the wrapped on-disk form. Legacy files are the bare data
// object without the envelope.
type snapshot struct {
	Format   string    `json:"format"`
	Version  int       `json:"version"`
	Data     *database `json:"data"`
	Checksum string    `json:"checksum"`
}

// canonicalJSON renders v compactly with lexicographically sorted keys and
// no HTML escaping. This is the form the checksum is computed over, so it
// must stay stable across releases.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func checksum(v any) (string, error) {
	payload, err := canonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// decodeSnapshot accepts both the wrapped {format, version, data, checksum}
// form and a legacy bare data object. When a checksum is present it must
// match the canonical form of the data.
func decodeSnapshot(raw []byte) (*database, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("parsing database file: %w", err)
	}

	dataRaw := json.RawMessage(raw)
	if d, ok := probe["data"]; ok {
		dataRaw = d
		var want string
		if cs, ok := probe["checksum"]; ok {
			if err := json.Unmarshal(cs, &want); err != nil {
				return nil, fmt.Errorf("parsing checksum: %w", err)
			}
		}
		if want != "" {
			got, err := checksum(dataRaw)
			if err != nil {
				return nil, fmt.Errorf("computing checksum: %w", err)
			}
			if got != want {
				return nil, ErrIntegrity
			}
		}
	}

	trimmed := bytes.TrimSpace(dataRaw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("database contents must be a JSON object")
	}
	var data database
	if err := json.Unmarshal(dataRaw, &data); err != nil {
		return nil, fmt.Errorf("parsing database contents: %w", err)
	}
	return &data, nil
}

// persistLocked writes the current state through a temp file and atomic
// rename. Callers must hold the write lock (or have exclusive access, as
// during Open).
func (s *Store) persistLocked() error {
	sum, err := checksum(s.data)
	if err != nil {
		return fmt.Errorf("computing checksum: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot{
		Format:   fileFormat,
		Version:  fileVersion,
		Data:     s.data,
		Checksum: sum,
	}); err != nil {
		return fmt.Errorf("encoding database: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing database file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing database file: %w", err)
	}
	metrics.StoreWrites.Inc()
	return nil
}
