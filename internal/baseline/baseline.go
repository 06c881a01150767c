// Package baseline loads the static dataset a roadmap is seeded from.
package baseline

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/starford/roadmap/internal/apperr"
	"github.com/starford/roadmap/internal/models"
)

//go:embed roadmap.jsonc
var defaultData []byte

// Record is a baseline entry: a node without store-assigned fields. ID and
// Order are optional.
type Record struct {
	ID             string            `json:"id,omitempty" yaml:"id"`
	Title          string            `json:"title" yaml:"title"`
	Category       string            `json:"category" yaml:"category"`
	Description    string            `json:"description" yaml:"description"`
	Status         models.Status     `json:"status,omitempty" yaml:"status"`
	EstimatedHours float64           `json:"estimatedHours" yaml:"estimatedHours"`
	Tags           []string          `json:"tags,omitempty" yaml:"tags"`
	Resources      []models.Resource `json:"resources,omitempty" yaml:"resources"`
	Order          *int              `json:"order,omitempty" yaml:"order"`
}

// Default returns the embedded dataset.
func Default() []Record {
	records, err := parseJSON(defaultData)
	if err != nil {
		panic(fmt.Sprintf("baseline: embedded dataset: %v", err))
	}
	return records
}

// Load reads records from path. The format follows the extension: .json
// and .jsonc (comments and trailing commas allowed), .yaml and .yml.
// An empty path returns the embedded dataset.
func Load(path string) ([]Record, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("baseline: read %s: %w", path, err)
	}
	var records []Record
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", ".jsonc":
		records, err = parseJSON(data)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		return nil, fmt.Errorf("baseline: unsupported extension %q: %w", ext, apperr.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("baseline: parse %s: %w: %w", path, apperr.ErrInvalidInput, err)
	}
	return records, nil
}

func parseJSON(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(jsonc.ToJSON(data), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Seed turns records into nodes. Records without an id get one from newID,
// status defaults to pending and order defaults to the record's position.
// The result is stably sorted by order. Duplicate ids, blank titles and
// unknown statuses are rejected.
func Seed(records []Record, newID func() string) ([]models.Node, error) {
	nodes := make([]models.Node, 0, len(records))
	seen := make(map[string]int, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.Title) == "" {
			return nil, fmt.Errorf("baseline: record %d has no title: %w", i, apperr.ErrInvalidInput)
		}
		n := models.Node{
			ID:             r.ID,
			Title:          r.Title,
			Category:       r.Category,
			Description:    r.Description,
			Status:         r.Status,
			EstimatedHours: r.EstimatedHours,
			Tags:           slices.Clone(r.Tags),
			Resources:      slices.Clone(r.Resources),
			Order:          i,
		}
		if n.ID == "" {
			n.ID = newID()
		}
		if prev, dup := seen[n.ID]; dup {
			return nil, fmt.Errorf("baseline: records %d and %d share id %q: %w", prev, i, n.ID, apperr.ErrInvalidInput)
		}
		seen[n.ID] = i
		if n.Status == "" {
			n.Status = models.StatusPending
		}
		if !n.Status.Valid() {
			return nil, fmt.Errorf("baseline: record %d has status %q: %w", i, n.Status, apperr.ErrInvalidInput)
		}
		if r.Order != nil {
			n.Order = *r.Order
		}
		nodes = append(nodes, n)
	}
	return models.SortByOrder(nodes), nil
}

// LoadNodes loads path (or the embedded dataset) and seeds it.
func LoadNodes(path string, newID func() string) ([]models.Node, error) {
	records, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Seed(records, newID)
}
