package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnsupportedConfigFormat = errors.New("hyperionctl: unsupported deployment config format")

// loadDeploymentConfig decodes a deployment config mapping. The format follows
// the file extension; "-" reads YAML (or JSON, which YAML accepts) from stdin.
// An empty document yields a nil map.
func loadDeploymentConfig(path string, stdin io.Reader) (map[string]any, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read deployment config: %w", err)
	}

	var deployment map[string]any

	switch ext := strings.ToLower(filepath.Ext(path)); {
	case path == "-" || ext == ".yaml" || ext == ".yml":
		err = yaml.Unmarshal(data, &deployment)
	case ext == ".json":
		if len(strings.TrimSpace(string(data))) == 0 {
			return nil, nil //nolint:nilnil
		}

		err = json.Unmarshal(data, &deployment)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedConfigFormat, ext)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode deployment config %s: %w", path, err)
	}

	return stringKeys(deployment), nil
}

// stringKeys rewrites nested YAML mappings with non-string keys, which the
// JSON encoder rejects, into map[string]any.
func stringKeys(deployment map[string]any) map[string]any {
	for key, value := range deployment {
		deployment[key] = normalizeValue(value)
	}

	return deployment
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return stringKeys(v)
	case map[any]any:
		converted := make(map[string]any, len(v))
		for key, item := range v {
			converted[fmt.Sprint(key)] = normalizeValue(item)
		}

		return converted
	case []any:
		for i, item := range v {
			v[i] = normalizeValue(item)
		}

		return v
	default:
		return value
	}
}
