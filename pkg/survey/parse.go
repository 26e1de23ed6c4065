package survey

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Batch is the on-disk form of a survey request.
type Batch struct {
	Distances []float64 `json:"distances,omitempty" yaml:"distances,omitempty"`
	Items     []Item    `json:"items" yaml:"items"`
}

// Parse decodes a batch in the given format ("yaml", "yml", "json" or
// "jsonc"). JSON input may carry comments and trailing commas.
func Parse(b []byte, format string) (*Batch, error) {
	var batch Batch

	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(b, &batch); err != nil {
			return nil, errors.Wrap(err, "error decoding yaml batch")
		}
	case "json", "jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(b), &batch); err != nil {
			return nil, errors.Wrap(err, "error decoding json batch")
		}
	default:
		return nil, errors.Errorf("unsupported batch format: %s", format)
	}

	if len(batch.Items) == 0 {
		return nil, errors.New("batch contains no items")
	}

	for i := range batch.Items {
		if batch.Items[i].Name == "" {
			batch.Items[i].Name = string(batch.Items[i].Source.Shape) + "-" + strconv.Itoa(i+1)
		}
	}

	return &batch, nil
}

// ParseFile reads a batch file; the format is taken from its extension.
func ParseFile(path string) (*Batch, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading batch file: %s", path)
	}

	batch, err := Parse(b, filepath.Ext(path))
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing batch file: %s", path)
	}
	return batch, nil
}
