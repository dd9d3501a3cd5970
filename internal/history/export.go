// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/signal-engine/pkg/types"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

type exportDoc struct {
	Points []types.PressurePoint `json:"points" yaml:"points"`
}

// Encode writes points to w as YAML or indented JSON.
func Encode(w io.Writer, points []types.PressurePoint, format string) error {
	doc := exportDoc{Points: points}
	if doc.Points == nil {
		doc.Points = []types.PressurePoint{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown history format %q (want yaml or json)", format)
	}
}

// ExportYAML writes readings since the given time to path as YAML.
func (s *Store) ExportYAML(ctx context.Context, since time.Time, path string) error {
	return s.export(ctx, since, path, FormatYAML)
}

// ExportJSON writes readings since the given time to path as JSON.
func (s *Store) ExportJSON(ctx context.Context, since time.Time, path string) error {
	return s.export(ctx, since, path, FormatJSON)
}

func (s *Store) export(ctx context.Context, since time.Time, path, format string) error {
	points, err := s.Recent(ctx, since)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Encode(f, points, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
