package service

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/datasage-ai/datasage/pkg/models"
)

// fallbackPriceModel prices any model missing from the table.
const fallbackPriceModel = "gpt-3.5-turbo"

// defaultPriceTable is the built-in table used when no pricing file
// exists. Prices are USD per 1000 tokens.
func defaultPriceTable() *models.PriceTable {
	return &models.PriceTable{
		Prices: map[string]models.ModelPrice{
			"gpt-3.5-turbo":    {Input: 0.0015, Output: 0.002},
			"gpt-4":            {Input: 0.03, Output: 0.06},
			"gpt-4-turbo":      {Input: 0.01, Output: 0.03},
			"gpt-4o":           {Input: 0.0025, Output: 0.01},
			"gpt-4o-mini":      {Input: 0.00015, Output: 0.0006},
			"claude-3-5-haiku": {Input: 0.0008, Output: 0.004},
			"deepseek-chat":    {Input: 0.00027, Output: 0.0011},
		},
		LastUpdated: "built-in",
		Source:      "default",
	}
}

// loadPriceTable reads a price table from path. A missing file yields
// the built-in defaults; a malformed file is an error so stale prices
// are not silently kept.
func loadPriceTable(path string) (*models.PriceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultPriceTable(), nil
		}
		return nil, fmt.Errorf("read pricing file: %w", err)
	}

	var table models.PriceTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse pricing file: %w", err)
	}
	if len(table.Prices) == 0 {
		return nil, fmt.Errorf("pricing file %s defines no models", path)
	}
	// The fallback model prices every unknown model; without it an
	// unlisted model would silently cost zero.
	if _, ok := table.Prices[fallbackPriceModel]; !ok {
		return nil, fmt.Errorf("pricing file %s is missing fallback model %q", path, fallbackPriceModel)
	}
	if table.Source == "" {
		table.Source = path
	}
	if table.LastUpdated == "" {
		table.LastUpdated = time.Now().Format(time.RFC3339)
	}
	return &table, nil
}
