// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/signal-engine/pkg/types"
)

// signalFile is the on-disk shape of a signal list.
type signalFile struct {
	Signals []types.Signal `json:"signals" yaml:"signals"`
}

// ReadFile loads a signal list from a .json file, or from YAML for any
// other extension. The document holds a top-level "signals" list.
func ReadFile(path string) ([]types.Signal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signals %s: %w", path, err)
	}

	var f signalFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing signals %s: %w", path, err)
	}
	return f.Signals, nil
}

// WriteFile saves signals in the format chosen by the extension of path.
func WriteFile(path string, signals []types.Signal) error {
	f := signalFile{Signals: signals}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(f, "", "  ")
	} else {
		data, err = yaml.Marshal(f)
	}
	if err != nil {
		return fmt.Errorf("marshaling signals: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
