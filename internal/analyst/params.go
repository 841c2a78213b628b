package analyst

import (
	"encoding/json"
	"os"
	"path/filepath"

	"TradeResearcher/internal/model"
)

// defaultAccuracy is reported before the first retraining run completes.
const defaultAccuracy = 72

// LoadParams reads the persisted model parameters from a JSON file. Returns
// defaults if the file doesn't exist.
func LoadParams(filePath string) (*model.ModelParams, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.ModelParams{LastAccuracy: defaultAccuracy, Version: "1.0"}, nil
		}
		return nil, err
	}
	var params model.ModelParams
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// SaveParams writes the model parameters to a JSON file, creating the parent
// directory if needed.
func SaveParams(filePath string, params *model.ModelParams) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
