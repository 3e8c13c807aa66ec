package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/knapsack-search/internal/schemas"
	"github.com/jonathan/knapsack-search/internal/types"
)

// SaveDataset writes ds as indented JSON, creating parent directories
func SaveDataset(path string, ds *types.Dataset) error {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create dataset directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

// LoadDataset reads a dataset file and validates it against the dataset schema
func LoadDataset(path string) (*types.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return ParseDataset(data)
}

// ParseDataset validates and decodes dataset JSON
func ParseDataset(data []byte) (*types.Dataset, error) {
	if err := schemas.ValidateDocument(schemas.DatasetSchema, data); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	var ds types.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}
	for i := range ds.Samples {
		s := &ds.Samples[i]
		if len(s.Weights) != len(s.Values) {
			return nil, fmt.Errorf("sample %d: weights and values differ in length: %d != %d",
				s.ID, len(s.Weights), len(s.Values))
		}
		if s.NumItems == 0 {
			s.NumItems = len(s.Weights)
		}
	}
	return &ds, nil
}
