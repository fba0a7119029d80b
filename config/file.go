package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"readfile/types"
)

// LoadFile decodes a YAML job file over cfg. Keys absent from the file
// keep their current value.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		kind := types.KindConfig
		if os.IsNotExist(err) {
			kind = types.KindNotFound
		}
		return &types.OpError{Op: "config.load_file", Kind: kind, Path: path, Err: err}
	}

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return &types.OpError{Op: "config.load_file", Kind: types.KindConfig, Path: path, Err: err}
	}
	return nil
}
