package sx127x

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestRadioConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *RadioConfig)
		ok     bool
	}{
		{"default", func(c *RadioConfig) {}, true},
		{"sf6 explicit", func(c *RadioConfig) { c.SpreadingFactor = SF6 }, false},
		{"sf6 implicit", func(c *RadioConfig) {
			c.SpreadingFactor = SF6
			c.HeaderMode = HeaderImplicit
		}, true},
		{"implicit without length", func(c *RadioConfig) {
			c.HeaderMode = HeaderImplicit
			c.PayloadLength = 0
		}, false},
		{"frequency too low", func(c *RadioConfig) { c.Frequency = 100e6 }, false},
		{"frequency too high", func(c *RadioConfig) { c.Frequency = 1100e6 }, false},
		{"zero bandwidth", func(c *RadioConfig) { c.Bandwidth = 0 }, false},
		{"coding rate 4/9", func(c *RadioConfig) { c.CodingRate = 5 }, false},
		{"sf13", func(c *RadioConfig) { c.SpreadingFactor = 13 }, false},
		{"bad header mode", func(c *RadioConfig) { c.HeaderMode = 2 }, false},
		{"symbol timeout 11 bits", func(c *RadioConfig) { c.SymbolTimeout = 0x400 }, false},
		{"symbol timeout max", func(c *RadioConfig) { c.SymbolTimeout = 0x3ff }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultRadioConfig()
			tt.modify(&c)
			err := c.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestRadioConfigJSON(t *testing.T) {
	in := `{
		"frequency": 868100000,
		"bandwidth": "250kHz",
		"coding_rate": "4/7",
		"spreading_factor": "SF9",
		"header_mode": "implicit",
		"preamble_length": 12,
		"payload_length": 20,
		"symbol_timeout": 300
	}`
	var c RadioConfig
	if err := json.Unmarshal([]byte(in), &c); err != nil {
		t.Fatal(err)
	}
	want := RadioConfig{
		Frequency:       868100000,
		Bandwidth:       Bandwidth250kHz,
		CodingRate:      CodingRate4_7,
		SpreadingFactor: SF9,
		HeaderMode:      HeaderImplicit,
		PreambleLength:  12,
		PayloadLength:   20,
		SymbolTimeout:   300,
	}
	if c != want {
		t.Fatalf("got %+v, want %+v", c, want)
	}

	out, err := json.Marshal(DefaultRadioConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{`"bandwidth":"125kHz"`, `"coding_rate":"4/5"`, `"spreading_factor":"SF7"`, `"header_mode":"explicit"`} {
		if !strings.Contains(string(out), s) {
			t.Errorf("%s missing from %s", s, out)
		}
	}

	for _, in := range []string{`{"spreading_factor":10}`, `{"spreading_factor":"10"}`, `{"spreading_factor":"sf10"}`} {
		var sc RadioConfig
		if err := json.Unmarshal([]byte(in), &sc); err != nil {
			t.Errorf("%s: %v", in, err)
		} else if sc.SpreadingFactor != SF10 {
			t.Errorf("%s: got %s", in, sc.SpreadingFactor)
		}
	}
	if err := json.Unmarshal([]byte(`{"spreading_factor":13}`), &c); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for SF13, got %v", err)
	}

	err = json.Unmarshal([]byte(`{"bandwidth":"300kHz"}`), &c)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBandwidthHz(t *testing.T) {
	if Bandwidth500kHz.Hz() != 500e3 || Bandwidth(3).Hz() != 0 {
		t.Error("unexpected bandwidth conversion")
	}
}
