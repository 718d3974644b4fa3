package fs

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/propix/propix"
)

// manifestVersion is the current manifest schema version.
const manifestVersion = 1

// manifest is the on-disk catalog of every stored image and its provenance.
// The field layout is read by downstream collaborators and must not change.
type manifest struct {
	Version     int                          `json:"version"`
	LastUpdated time.Time                    `json:"last_updated"`
	Properties  map[string]*manifestProperty `json:"properties"`
	Counters    propix.ManifestCounters      `json:"counters"`
}

type manifestProperty struct {
	Images []*propix.ImageRecord `json:"images"`
}

func newManifest() *manifest {
	return &manifest{
		Version:    manifestVersion,
		Properties: make(map[string]*manifestProperty),
	}
}

// loadManifest reads and integrity-checks a manifest file. A missing file
// yields a fresh empty manifest; unparseable or inconsistent content
// returns ECORRUPT so the caller can fall back to backups.
func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newManifest(), nil
	}
	if err != nil {
		return nil, err
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, propix.Errorf(propix.ECORRUPT, "manifest %s: %v", path, err)
	}
	if m.Version <= 0 || m.Version > manifestVersion {
		return nil, propix.Errorf(propix.ECORRUPT, "manifest %s: unsupported version %d", path, m.Version)
	}
	if m.Properties == nil {
		m.Properties = make(map[string]*manifestProperty)
	}

	// Integrity: counters must agree with the entries, IDs must be unique.
	images := 0
	seen := make(map[string]bool)
	for key, prop := range m.Properties {
		if prop == nil {
			return nil, propix.Errorf(propix.ECORRUPT, "manifest %s: null property %q", path, key)
		}
		for _, rec := range prop.Images {
			if rec == nil || rec.ID == "" || rec.ContentHash == "" {
				return nil, propix.Errorf(propix.ECORRUPT, "manifest %s: malformed record under %q", path, key)
			}
			if seen[rec.ID] {
				return nil, propix.Errorf(propix.ECORRUPT, "manifest %s: duplicate record ID %q", path, rec.ID)
			}
			seen[rec.ID] = true
			images++
		}
	}
	if images != m.Counters.Images {
		return nil, propix.Errorf(propix.ECORRUPT, "manifest %s: counter says %d images, found %d", path, m.Counters.Images, images)
	}

	return &m, nil
}

func (m *manifest) marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func (m *manifest) hasID(id string) bool {
	for _, prop := range m.Properties {
		for _, rec := range prop.Images {
			if rec.ID == id {
				return true
			}
		}
	}
	return false
}

func (m *manifest) propertyKeys() []string {
	keys := make([]string, 0, len(m.Properties))
	for key := range m.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
