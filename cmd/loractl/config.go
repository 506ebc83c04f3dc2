package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/NV4RE/sx127x"
)

// fileConfig is the JSON document loaded with -c.
type fileConfig struct {
	SPI      string             `json:"spi"`
	DIO0     string             `json:"dio0"`
	Reset    string             `json:"reset"`
	Radio    sx127x.RadioConfig `json:"radio"`
	TxPower  int                `json:"tx_power"`
	SyncWord byte               `json:"sync_word"`
	// SF6Detection enables the SF6 detection register writes.
	SF6Detection bool `json:"sf6_detection,omitempty"`
}

func defaultFileConfig() *fileConfig {
	return &fileConfig{
		SPI:      "/dev/spidev0.0",
		DIO0:     "GPIO25",
		Reset:    "GPIO17",
		Radio:    sx127x.DefaultRadioConfig(),
		TxPower:  17,
		SyncWord: 0x12,
	}
}

// loadConfig overlays the file at path onto the defaults. An empty path
// returns the defaults.
func loadConfig(path string) (*fileConfig, error) {
	cfg := defaultFileConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Radio.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
