package world

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/rulesai/pkg/rulesai/internalerr"
)

const compressedExt = ".zst"

const snapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["player", "units"],
  "additionalProperties": false,
  "properties": {
    "player": {"type": "integer", "minimum": 0},
    "resources": {"type": "integer", "minimum": 0},
    "units": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"enum": ["worker", "base", "barracks", "light", "heavy", "ranged", "resource"]},
          "owner": {"type": "integer", "minimum": -1},
          "x": {"type": "integer"},
          "y": {"type": "integer"},
          "busy": {"type": "boolean"}
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("snapshot.schema.json", snapshotSchema)
	})
	return schema, schemaErr
}

// format resolves the encoding of path: "yaml" or "json", and whether the
// file is zstd-compressed.
func format(path string) (string, bool, error) {
	compressed := strings.HasSuffix(path, compressedExt)
	base := strings.TrimSuffix(path, compressedExt)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yaml", ".yml":
		return "yaml", compressed, nil
	case ".json":
		return "json", compressed, nil
	}
	return "", false, fmt.Errorf("%w: unsupported snapshot file %q", internalerr.ErrInvalidInput, path)
}

// LoadSnapshot reads a snapshot from a .yaml, .yml or .json file, each
// optionally zstd-compressed with a trailing .zst.
func LoadSnapshot(path string) (*Snapshot, error) {
	kind, compressed, err := format(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if compressed {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}

	snap, err := DecodeSnapshot(r, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// DecodeSnapshot decodes a snapshot in the given format ("yaml" or "json").
// JSON input is checked against the snapshot schema first.
func DecodeSnapshot(r io.Reader, kind string) (*Snapshot, error) {
	var snap Snapshot
	switch kind {
	case "yaml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&snap); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case "json":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		s, err := compiledSchema()
		if err != nil {
			return nil, fmt.Errorf("compile snapshot schema: %w", err)
		}
		if err := s.Validate(doc); err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
		}
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown snapshot format %q", internalerr.ErrInvalidInput, kind)
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// WriteSnapshot writes snap to path in the format its extension names,
// compressing with zstd when the path ends in .zst.
func WriteSnapshot(path string, snap *Snapshot) (err error) {
	kind, compressed, err := format(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if compressed {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		defer func() {
			if cerr := enc.Close(); err == nil {
				err = cerr
			}
		}()
		w = enc
	}

	switch kind {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
}
