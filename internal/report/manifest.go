// internal/report/manifest.go
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/raylty/linkcheck-cli/internal/runner"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ManifestName is written into the download directory after each run.
const ManifestName = "manifest.json"

// ManifestEntry records one downloaded file, keyed back to its source row.
type ManifestEntry struct {
	Row        int       `json:"row"`
	URL        string    `json:"url"`
	Material   string    `json:"material"`
	Element    string    `json:"element"`
	FilePath   string    `json:"file_path"`
	FileType   string    `json:"file_type"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Manifest is the machine-readable record of a run's downloads. The
// validate command consumes it to pair files with their source rows.
type Manifest struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Input       string          `json:"input"`
	Entries     []ManifestEntry `json:"entries"`
}

// BuildManifest collects the successful downloads from a run.
func BuildManifest(input string, reports []runner.RowReport) *Manifest {
	m := &Manifest{GeneratedAt: time.Now(), Input: input}
	for _, r := range reports {
		if !r.Outcome.Success() || r.FilePath == "" {
			continue
		}
		m.Entries = append(m.Entries, ManifestEntry{
			Row:        r.Case.Index + 1,
			URL:        r.Case.URL,
			Material:   r.Case.Material,
			Element:    r.Case.Element,
			FilePath:   r.FilePath,
			FileType:   r.FileType,
			ExecutedAt: r.ExecutedAt,
		})
	}
	return m
}

// Save writes the manifest alongside the downloaded files.
func (m *Manifest) Save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest from a download directory.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
