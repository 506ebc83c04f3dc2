package sx127x

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Bandwidth values are the raw ModemConfig1 Bw codes.
type Bandwidth byte

const (
	Bandwidth125kHz Bandwidth = 7
	Bandwidth250kHz Bandwidth = 8
	Bandwidth500kHz Bandwidth = 9
)

// Hz returns the signal bandwidth.
func (b Bandwidth) Hz() uint32 {
	switch b {
	case Bandwidth125kHz:
		return 125e3
	case Bandwidth250kHz:
		return 250e3
	case Bandwidth500kHz:
		return 500e3
	}
	return 0
}

func (b Bandwidth) valid() bool { return b >= Bandwidth125kHz && b <= Bandwidth500kHz }

func (b Bandwidth) String() string { return fieldBandwidth.Symbol(fieldBandwidth.Encode(byte(b))) }

func (b Bandwidth) MarshalText() ([]byte, error) {
	if !b.valid() {
		return nil, fmt.Errorf("%w: bandwidth %d", ErrInvalidConfig, byte(b))
	}
	return []byte(b.String()), nil
}

func (b *Bandwidth) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "125khz", "125000":
		*b = Bandwidth125kHz
	case "250khz", "250000":
		*b = Bandwidth250kHz
	case "500khz", "500000":
		*b = Bandwidth500kHz
	default:
		return fmt.Errorf("%w: bandwidth %q", ErrInvalidConfig, text)
	}
	return nil
}

// CodingRate values are the raw ModemConfig1 CodingRate codes.
type CodingRate byte

const (
	CodingRate4_5 CodingRate = 1
	CodingRate4_6 CodingRate = 2
	CodingRate4_7 CodingRate = 3
	CodingRate4_8 CodingRate = 4
)

func (c CodingRate) valid() bool { return c >= CodingRate4_5 && c <= CodingRate4_8 }

func (c CodingRate) String() string { return fieldCodingRate.Symbol(fieldCodingRate.Encode(byte(c))) }

func (c CodingRate) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("%w: coding rate %d", ErrInvalidConfig, byte(c))
	}
	return []byte(c.String()), nil
}

func (c *CodingRate) UnmarshalText(text []byte) error {
	v, err := fieldCodingRate.EncodeSymbol(string(text))
	if err != nil {
		return fmt.Errorf("%w: coding rate %q", ErrInvalidConfig, text)
	}
	*c = CodingRate(fieldCodingRate.Extract(v))
	return nil
}

// SpreadingFactor is the base-2 log of chips per symbol, 6 to 12.
type SpreadingFactor byte

const (
	SF6  SpreadingFactor = 6
	SF7  SpreadingFactor = 7
	SF8  SpreadingFactor = 8
	SF9  SpreadingFactor = 9
	SF10 SpreadingFactor = 10
	SF11 SpreadingFactor = 11
	SF12 SpreadingFactor = 12
)

func (s SpreadingFactor) valid() bool { return s >= SF6 && s <= SF12 }

func (s SpreadingFactor) String() string { return "SF" + strconv.Itoa(int(s)) }

func (s SpreadingFactor) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("%w: spreading factor %d", ErrInvalidConfig, byte(s))
	}
	return []byte(s.String()), nil
}

func (s *SpreadingFactor) UnmarshalText(text []byte) error {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(string(text)), "SF"))
	if err != nil || !SpreadingFactor(n).valid() {
		return fmt.Errorf("%w: spreading factor %q", ErrInvalidConfig, text)
	}
	*s = SpreadingFactor(n)
	return nil
}

// UnmarshalJSON accepts a bare number as well as the text forms.
func (s *SpreadingFactor) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		b = []byte(text)
	}
	return s.UnmarshalText(b)
}

// HeaderMode selects between explicit and implicit LoRa headers.
type HeaderMode byte

const (
	HeaderExplicit HeaderMode = 0
	HeaderImplicit HeaderMode = 1
)

func (h HeaderMode) String() string { return fieldHeaderMode.Symbol(byte(h)) }

func (h HeaderMode) MarshalText() ([]byte, error) {
	if h > HeaderImplicit {
		return nil, fmt.Errorf("%w: header mode %d", ErrInvalidConfig, byte(h))
	}
	return []byte(h.String()), nil
}

func (h *HeaderMode) UnmarshalText(text []byte) error {
	v, err := fieldHeaderMode.EncodeSymbol(strings.ToLower(string(text)))
	if err != nil {
		return fmt.Errorf("%w: header mode %q", ErrInvalidConfig, text)
	}
	*h = HeaderMode(v)
	return nil
}

// DefaultSymbolTimeout is the chip's reset value of SymbTimeout.
const DefaultSymbolTimeout uint16 = 0x64

const (
	minFrequency uint32 = 137e6
	maxFrequency uint32 = 1020e6
)

// RadioConfig is a complete LoRa modem state.
type RadioConfig struct {
	Frequency       uint32          `json:"frequency"`
	Bandwidth       Bandwidth       `json:"bandwidth"`
	CodingRate      CodingRate      `json:"coding_rate"`
	SpreadingFactor SpreadingFactor `json:"spreading_factor"`
	HeaderMode      HeaderMode      `json:"header_mode"`
	PreambleLength  uint16          `json:"preamble_length"`
	PayloadLength   uint8           `json:"payload_length"`
	// SymbolTimeout is the single-receive timeout in symbols, 10 bits.
	SymbolTimeout uint16 `json:"symbol_timeout"`
}

// DefaultRadioConfig is 915 MHz, SF7, 125 kHz, 4/5, explicit header,
// preamble 8.
func DefaultRadioConfig() RadioConfig {
	return RadioConfig{
		Frequency:       915e6,
		Bandwidth:       Bandwidth125kHz,
		CodingRate:      CodingRate4_5,
		SpreadingFactor: SF7,
		HeaderMode:      HeaderExplicit,
		PreambleLength:  8,
		PayloadLength:   uint8(MaxPktLength),
		SymbolTimeout:   DefaultSymbolTimeout,
	}
}

// Validate reports whether c can be applied to the chip. SF6 only works
// with implicit headers.
func (c RadioConfig) Validate() error {
	switch {
	case c.Frequency < minFrequency || c.Frequency > maxFrequency:
		return fmt.Errorf("%w: frequency %d Hz outside %d-%d Hz", ErrInvalidConfig, c.Frequency, minFrequency, maxFrequency)
	case !c.Bandwidth.valid():
		return fmt.Errorf("%w: bandwidth %d", ErrInvalidConfig, byte(c.Bandwidth))
	case !c.CodingRate.valid():
		return fmt.Errorf("%w: coding rate %d", ErrInvalidConfig, byte(c.CodingRate))
	case !c.SpreadingFactor.valid():
		return fmt.Errorf("%w: spreading factor %d", ErrInvalidConfig, byte(c.SpreadingFactor))
	case c.HeaderMode > HeaderImplicit:
		return fmt.Errorf("%w: header mode %d", ErrInvalidConfig, byte(c.HeaderMode))
	case c.SpreadingFactor == SF6 && c.HeaderMode != HeaderImplicit:
		return fmt.Errorf("%w: SF6 requires implicit header mode", ErrInvalidConfig)
	case c.HeaderMode == HeaderImplicit && c.PayloadLength == 0:
		return fmt.Errorf("%w: implicit header mode requires a payload length", ErrInvalidConfig)
	case c.SymbolTimeout > 0x3ff:
		return fmt.Errorf("%w: symbol timeout %d does not fit 10 bits", ErrInvalidConfig, c.SymbolTimeout)
	}
	return nil
}
