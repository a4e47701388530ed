// Package dataset loads replay conversations and service database
// snapshots from disk. Files may be JSON or YAML; YAML documents are
// normalized through JSON so parameter values decode identically in
// both formats.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/AltairaLabs/ReplayKit/types"
)

// FormatVersion is the dataset format this loader understands. Manifests
// declaring a different major version are rejected.
const FormatVersion = "1.0.0"

// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported dataset file format")

// Manifest describes a dataset directory: a name, the format version the
// files were written against, and optionally the suites it exercises.
type Manifest struct {
	Name    string   `json:"name" yaml:"name"`
	Version string   `json:"version" yaml:"version"`
	Suites  []string `json:"suites,omitempty" yaml:"suites,omitempty"`
}

// LoadManifest reads and version-checks a dataset manifest.
func LoadManifest(path string) (*Manifest, error) {
	var manifest Manifest
	if err := decodeFile(path, &manifest); err != nil {
		return nil, err
	}
	if err := CheckFormatVersion(manifest.Version); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &manifest, nil
}

// CheckFormatVersion validates a manifest version string and checks it is
// compatible with FormatVersion. Versions are compatible when they share a
// major version; the 'v' prefix is accepted.
func CheckFormatVersion(version string) error {
	if version == "" {
		return fmt.Errorf("dataset version is empty")
	}

	declared, err := semver.StrictNewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return fmt.Errorf("invalid dataset version %q: %w", version, err)
	}

	supported := semver.MustParse(FormatVersion)
	if declared.Major() != supported.Major() {
		return fmt.Errorf("dataset version %s is incompatible with format %s", version, FormatVersion)
	}
	return nil
}

// LoadConversation reads a single conversation file. A conversation
// without an explicit name takes the file's base name.
func LoadConversation(path string) (*types.Conversation, error) {
	var conv types.Conversation
	if err := decodeFile(path, &conv); err != nil {
		return nil, err
	}
	if conv.Name == "" {
		conv.Name = fileStem(path)
	}
	return &conv, nil
}

// LoadDir loads every conversation file in a directory, in name order.
// Manifest files are skipped; subdirectories are not descended into.
func LoadDir(dir string) ([]*types.Conversation, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !dataFile(name) || fileStem(name) == "manifest" {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)

	conversations := make([]*types.Conversation, 0, len(paths))
	for _, path := range paths {
		conv, err := LoadConversation(path)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	return conversations, nil
}

// LoadSnapshots reads a single file holding all database snapshots as a
// mapping from database name to its records.
func LoadSnapshots(path string) (map[string]json.RawMessage, error) {
	var doc map[string]any
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}

	snapshots := make(map[string]json.RawMessage, len(doc))
	for name, records := range doc {
		data, err := json.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("database %s: %w", name, err)
		}
		snapshots[name] = data
	}
	return snapshots, nil
}

// LoadSnapshotsDir reads one snapshot per file from a directory: the file
// stem names the database, the contents are its records.
func LoadSnapshotsDir(dir string) (map[string]json.RawMessage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot dir: %w", err)
	}

	snapshots := make(map[string]json.RawMessage)
	for _, entry := range entries {
		if entry.IsDir() || !dataFile(entry.Name()) {
			continue
		}
		var records any
		path := filepath.Join(dir, entry.Name())
		if err := decodeFile(path, &records); err != nil {
			return nil, err
		}
		data, err := json.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		snapshots[fileStem(path)] = data
	}
	return snapshots, nil
}

// decodeFile reads a JSON or YAML file into out. YAML is converted to
// JSON first so both formats produce the same decoded value types.
func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
	case ".yaml", ".yml":
		if data, err = yamlToJSON(data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	default:
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// yamlToJSON re-encodes a YAML document as JSON.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return json.Marshal(doc)
}

func dataFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
