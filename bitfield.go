package sx127x

import (
	"fmt"
	"strconv"
)

// Symbol names one raw value of a Field.
type Symbol struct {
	Raw  byte
	Name string
}

// Field is a named, shifted sub-range of a register.
type Field struct {
	Name    string
	Shift   uint8
	Width   uint8
	Symbols []Symbol
}

// Mask returns the bits covered by the field.
func (f Field) Mask() byte {
	return byte((uint16(1)<<f.Width - 1) << f.Shift)
}

// Keep returns the mask to AND a register with to preserve every bit
// outside the field. It is the mask argument of UpdateRegister.
func (f Field) Keep() byte {
	return ^f.Mask()
}

// Encode shifts raw into position. Bits that do not fit are discarded.
func (f Field) Encode(raw byte) byte {
	return (raw << f.Shift) & f.Mask()
}

func (f Field) Extract(v byte) byte {
	return (v & f.Mask()) >> f.Shift
}

// EncodeSymbol encodes the raw value registered under name.
func (f Field) EncodeSymbol(name string) (byte, error) {
	for _, s := range f.Symbols {
		if s.Name == name {
			return f.Encode(s.Raw), nil
		}
	}
	return 0, fmt.Errorf("sx127x: field %s has no value %q", f.Name, name)
}

// Symbol decodes the field held in v. Values without a registered name
// are rendered in decimal.
func (f Field) Symbol(v byte) string {
	raw := f.Extract(v)
	for _, s := range f.Symbols {
		if s.Raw == raw {
			return s.Name
		}
	}
	return strconv.Itoa(int(raw))
}

// Layout describes every field of one register.
type Layout struct {
	Reg    Register
	Fields []Field
}

func (l Layout) Decode(v byte) map[string]string {
	out := make(map[string]string, len(l.Fields))
	for _, f := range l.Fields {
		out[f.Name] = f.Symbol(v)
	}
	return out
}

func offOn(name string, shift uint8) Field {
	return Field{Name: name, Shift: shift, Width: 1, Symbols: []Symbol{{0, "off"}, {1, "on"}}}
}

var (
	fieldLongRangeMode = Field{Name: "LongRangeMode", Shift: 7, Width: 1, Symbols: []Symbol{
		{0, "fsk"}, {1, "lora"},
	}}
	fieldModulationType = Field{Name: "ModulationType", Shift: 5, Width: 2, Symbols: []Symbol{
		{0, "fsk"}, {1, "ook"},
	}}
	fieldLowFrequencyMode = Field{Name: "LowFrequencyModeOn", Shift: 3, Width: 1, Symbols: []Symbol{
		{0, "hf"}, {1, "lf"},
	}}
	fieldMode = Field{Name: "Mode", Shift: 0, Width: 3, Symbols: []Symbol{
		{byte(ModeSleep), "sleep"},
		{byte(ModeStandby), "standby"},
		{byte(ModeFSTx), "fstx"},
		{byte(ModeTx), "tx"},
		{byte(ModeFSRx), "fsrx"},
		{byte(ModeRxContinuous), "rxcontinuous"},
		{byte(ModeRxSingle), "rxsingle"},
		{byte(ModeCAD), "cad"},
	}}

	fieldBandwidth = Field{Name: "Bw", Shift: 4, Width: 4, Symbols: []Symbol{
		{0, "7.8kHz"}, {1, "10.4kHz"}, {2, "15.6kHz"}, {3, "20.8kHz"}, {4, "31.25kHz"},
		{5, "41.7kHz"}, {6, "62.5kHz"},
		{byte(Bandwidth125kHz), "125kHz"},
		{byte(Bandwidth250kHz), "250kHz"},
		{byte(Bandwidth500kHz), "500kHz"},
	}}
	fieldCodingRate = Field{Name: "CodingRate", Shift: 1, Width: 3, Symbols: []Symbol{
		{byte(CodingRate4_5), "4/5"},
		{byte(CodingRate4_6), "4/6"},
		{byte(CodingRate4_7), "4/7"},
		{byte(CodingRate4_8), "4/8"},
	}}
	fieldHeaderMode = Field{Name: "ImplicitHeaderModeOn", Shift: 0, Width: 1, Symbols: []Symbol{
		{byte(HeaderExplicit), "explicit"},
		{byte(HeaderImplicit), "implicit"},
	}}

	fieldSpreadingFactor = Field{Name: "SpreadingFactor", Shift: 4, Width: 4, Symbols: []Symbol{
		{6, "SF6"}, {7, "SF7"}, {8, "SF8"}, {9, "SF9"}, {10, "SF10"}, {11, "SF11"}, {12, "SF12"},
	}}
	fieldTxContinuous = Field{Name: "TxContinuousMode", Shift: 3, Width: 1, Symbols: []Symbol{
		{0, "normal"}, {1, "continuous"},
	}}
	fieldRxPayloadCrc  = offOn("RxPayloadCrcOn", 2)
	fieldSymbTimeoutHi = Field{Name: "SymbTimeoutMsb", Shift: 0, Width: 2}

	fieldLowDataRateOptimize = offOn("LowDataRateOptimize", 3)
	fieldAgcAuto             = offOn("AgcAutoOn", 2)

	fieldDio0Mapping = Field{Name: "Dio0Mapping", Shift: 6, Width: 2, Symbols: []Symbol{
		{byte(DIO0RxDone), "rxdone"},
		{byte(DIO0TxDone), "txdone"},
		{byte(DIO0CadDone), "caddone"},
	}}
)

// Register layouts used for diagnostics.
var (
	OpModeLayout = Layout{Reg: RegOpMode, Fields: []Field{
		fieldLongRangeMode, fieldModulationType, fieldLowFrequencyMode, fieldMode,
	}}
	ModemConfig1Layout = Layout{Reg: RegModemConfig1, Fields: []Field{
		fieldBandwidth, fieldCodingRate, fieldHeaderMode,
	}}
	ModemConfig2Layout = Layout{Reg: RegModemConfig2, Fields: []Field{
		fieldSpreadingFactor, fieldTxContinuous, fieldRxPayloadCrc, fieldSymbTimeoutHi,
	}}
	ModemConfig3Layout = Layout{Reg: RegModemConfig3, Fields: []Field{
		fieldLowDataRateOptimize, fieldAgcAuto,
	}}
	IrqFlagsLayout = Layout{Reg: RegIrqFlags, Fields: []Field{
		offOn("RxTimeout", 7),
		offOn("RxDone", 6),
		offOn("PayloadCrcError", 5),
		offOn("ValidHeader", 4),
		offOn("TxDone", 3),
		offOn("CadDone", 2),
		offOn("FhssChangeChannel", 1),
		offOn("CadDetected", 0),
	}}
	DioMapping1Layout = Layout{Reg: RegDioMapping1, Fields: []Field{fieldDio0Mapping}}

	Layouts = []Layout{
		OpModeLayout,
		ModemConfig1Layout,
		ModemConfig2Layout,
		ModemConfig3Layout,
		IrqFlagsLayout,
		DioMapping1Layout,
	}
)
