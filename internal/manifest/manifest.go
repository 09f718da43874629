// Package manifest loads and validates batch upload manifests: YAML files
// naming the documents to upload along with their metadata.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"
)

type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Manifest describes one batch of document uploads.
type Manifest struct {
	Defaults  Defaults `json:"defaults,omitempty"`
	Documents []Entry  `json:"documents"`
}

// Defaults apply to every entry that leaves the field empty.
type Defaults struct {
	Description string `json:"description,omitempty"`
	Suggest     bool   `json:"suggest,omitempty"`
}

// Entry is one document in the manifest. Path is relative to the manifest
// file's directory unless absolute.
type Entry struct {
	Path        string `json:"path"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Result is the outcome of validating a manifest.
type Result struct {
	Valid       bool          `json:"valid"`
	Errors      []string      `json:"errors,omitempty"`
	Checks      []CheckResult `json:"checks,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// CheckResult is one named validation check.
type CheckResult struct {
	Name     string            `json:"name"`
	Status   Status            `json:"status"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["documents"],
  "properties": {
    "defaults": {
      "type": "object",
      "properties": {
        "description": {"type": "string"},
        "suggest": {"type": "boolean"}
      },
      "additionalProperties": false
    },
    "documents": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["path"],
        "properties": {
          "path": {"type": "string", "minLength": 1},
          "title": {"type": "string"},
          "description": {"type": "string"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

// warnFileSize is the size above which a manifest entry draws a warning.
const warnFileSize = 50 << 20

// Load reads and parses a manifest file, returning the manifest, its
// directory for resolving relative paths, and the JSON form of the raw
// document for schema validation.
func Load(path string) (*Manifest, string, []byte, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, "", nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, filepath.Dir(path), raw, nil
}

// ApplyDefaults fills each entry's empty fields from the manifest defaults.
func (m *Manifest) ApplyDefaults() {
	for i := range m.Documents {
		if m.Documents[i].Description == "" {
			m.Documents[i].Description = m.Defaults.Description
		}
	}
}

// Resolve returns the entry's path resolved against the manifest directory.
func (e Entry) Resolve(baseDir string) string {
	if filepath.IsAbs(e.Path) {
		return e.Path
	}
	return filepath.Join(baseDir, e.Path)
}

// Validate checks the manifest against the schema and then runs file-level
// checks. Any failed check marks the whole result invalid; warnings do not.
func Validate(m *Manifest, raw []byte, baseDir string) Result {
	result := Result{Valid: true, GeneratedAt: time.Now()}

	if m == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "manifest missing")
		return result
	}

	if len(raw) > 0 {
		schemaResult, err := gojsonschema.Validate(
			gojsonschema.NewStringLoader(manifestSchema),
			gojsonschema.NewBytesLoader(raw),
		)
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("schema validation error: %v", err))
		} else if !schemaResult.Valid() {
			result.Valid = false
			for _, e := range schemaResult.Errors() {
				result.Errors = append(result.Errors, e.String())
			}
		}
	}

	result.Checks = append(result.Checks, checkDuplicates(m))
	result.Checks = append(result.Checks, checkFiles(m, baseDir)...)
	result.Checks = append(result.Checks, checkTitles(m))

	for _, check := range result.Checks {
		if check.Status == StatusFail {
			result.Valid = false
			break
		}
	}
	return result
}

func checkDuplicates(m *Manifest) CheckResult {
	seen := map[string]int{}
	for _, entry := range m.Documents {
		seen[entry.Path]++
	}
	for path, count := range seen {
		if count > 1 {
			return CheckResult{
				Name:     "duplicates",
				Status:   StatusFail,
				Message:  fmt.Sprintf("path %s appears %d times", path, count),
				Metadata: map[string]string{"path": path},
			}
		}
	}
	return CheckResult{Name: "duplicates", Status: StatusPass, Message: "all paths unique"}
}

func checkFiles(m *Manifest, baseDir string) []CheckResult {
	var checks []CheckResult
	for _, entry := range m.Documents {
		resolved := entry.Resolve(baseDir)
		meta := map[string]string{"path": entry.Path}
		info, err := os.Stat(resolved)
		switch {
		case err != nil:
			checks = append(checks, CheckResult{
				Name:     "file",
				Status:   StatusFail,
				Message:  fmt.Sprintf("%s: %v", entry.Path, err),
				Metadata: meta,
			})
		case info.IsDir():
			checks = append(checks, CheckResult{
				Name:     "file",
				Status:   StatusFail,
				Message:  fmt.Sprintf("%s is a directory", entry.Path),
				Metadata: meta,
			})
		case info.Size() == 0:
			checks = append(checks, CheckResult{
				Name:     "file",
				Status:   StatusWarn,
				Message:  fmt.Sprintf("%s is empty", entry.Path),
				Metadata: meta,
			})
		case info.Size() > warnFileSize:
			meta["size"] = fmt.Sprintf("%d", info.Size())
			checks = append(checks, CheckResult{
				Name:     "file",
				Status:   StatusWarn,
				Message:  fmt.Sprintf("%s is large, ingestion may take a while", entry.Path),
				Metadata: meta,
			})
		default:
			meta["size"] = fmt.Sprintf("%d", info.Size())
			checks = append(checks, CheckResult{
				Name:     "file",
				Status:   StatusPass,
				Message:  entry.Path,
				Metadata: meta,
			})
		}
	}
	return checks
}

func checkTitles(m *Manifest) CheckResult {
	missing := 0
	for _, entry := range m.Documents {
		if entry.Title == "" {
			missing++
		}
	}
	if missing == 0 {
		return CheckResult{Name: "titles", Status: StatusPass, Message: "every entry has a title"}
	}
	if m.Defaults.Suggest {
		return CheckResult{
			Name:    "titles",
			Status:  StatusPass,
			Message: fmt.Sprintf("%d entries rely on suggested titles", missing),
		}
	}
	return CheckResult{
		Name:    "titles",
		Status:  StatusWarn,
		Message: fmt.Sprintf("%d entries have no title; enable suggest to fill them", missing),
	}
}
