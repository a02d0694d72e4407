package main

import (
	"encoding/json"
	"os"
)

// ToolConfig is the JSON config gensiotool reloads on change. It supplies the
// readbuf/nodelay defaults that -opts entries override. The driver options
// are built from it once at startup; a reload replaces the loaded config
// but does not change the options of an endpoint or accepter already
// allocated.
type ToolConfig struct {
	Readbuf int  `json:"readbuf"`
	Nodelay bool `json:"nodelay"`
}

func defaultToolConfig() *ToolConfig {
	return &ToolConfig{Readbuf: 4096, Nodelay: true}
}

func loadToolConfig(path string) (*ToolConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultToolConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
