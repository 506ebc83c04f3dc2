package sx127x

import (
	"fmt"
	"log/slog"
)

// Step is one register operation of a configuration sequence. An update
// step writes (current & Mask) | Value, a plain step writes Value.
type Step struct {
	Name   string
	Reg    Register
	Mask   byte
	Value  byte
	Update bool
}

func (s Step) String() string {
	if s.Update {
		return fmt.Sprintf("%s: update %s mask %#02x value %#02x", s.Name, s.Reg, s.Mask, s.Value)
	}
	return fmt.Sprintf("%s: write %s value %#02x", s.Name, s.Reg, s.Value)
}

func writeStep(name string, reg Register, v byte) Step {
	return Step{Name: name, Reg: reg, Value: v}
}

func updateStep(name string, reg Register, f Field, raw byte) Step {
	return Step{Name: name, Reg: reg, Mask: f.Keep(), Value: f.Encode(raw), Update: true}
}

// Plan returns the ordered steps Configure would issue for cfg.
func Plan(cfg RadioConfig, opts Options) ([]Step, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return planSteps(cfg, opts), nil
}

// planSteps builds the configuration table. Several steps target the same
// register; each one only owns its own field, and a later step wins over an
// earlier one where they overlap.
func planSteps(cfg RadioConfig, opts Options) []Step {
	timeout := cfg.SymbolTimeout
	if timeout == 0 {
		timeout = DefaultSymbolTimeout
	}
	frf := frfBytes(hzToSteps(cfg.Frequency, crystalHz(opts.Crystal)))

	steps := enterLoRaSteps()
	steps = append(steps,
		updateStep("bandwidth", RegModemConfig1, fieldBandwidth, byte(cfg.Bandwidth)),
		updateStep("coding rate", RegModemConfig1, fieldCodingRate, byte(cfg.CodingRate)),
		updateStep("header mode", RegModemConfig1, fieldHeaderMode, byte(cfg.HeaderMode)),
		updateStep("spreading factor", RegModemConfig2, fieldSpreadingFactor, byte(cfg.SpreadingFactor)),
		updateStep("payload crc on", RegModemConfig2, fieldRxPayloadCrc, 1),
		updateStep("tx continuous off", RegModemConfig2, fieldTxContinuous, 0),
		updateStep("symbol timeout msb", RegModemConfig2, fieldSymbTimeoutHi, byte(timeout>>8)),
		updateStep("low data rate optimize", RegModemConfig3, fieldLowDataRateOptimize, 1),
	)
	if opts.SF6Detection {
		optimize, threshold := byte(0x03), byte(0x0a)
		if cfg.SpreadingFactor == SF6 {
			optimize, threshold = 0x05, 0x0c
		}
		steps = append(steps,
			Step{Name: "detection optimize", Reg: RegDetectionOptimize, Mask: 0xf8, Value: optimize, Update: true},
			writeStep("detection threshold", RegDetectionThreshold, threshold),
		)
	}
	return append(steps,
		writeStep("symbol timeout lsb", RegSymbTimeoutLsb, byte(timeout)),
		writeStep("preamble msb", RegPreambleMsb, byte(cfg.PreambleLength>>8)),
		writeStep("preamble lsb", RegPreambleLsb, byte(cfg.PreambleLength)),
		writeStep("frequency msb", RegFrfMsb, frf[0]),
		writeStep("frequency mid", RegFrfMid, frf[1]),
		writeStep("frequency lsb", RegFrfLsb, frf[2]),
		writeStep("payload length", RegPayloadLength, cfg.PayloadLength),
	)
}

// runSteps executes steps in order and stops at the first failure. Callers
// hold d.mu.
func (d *Device) runSteps(sequence string, steps []Step) error {
	for i, s := range steps {
		var err error
		if s.Update {
			err = d.updateReg(s.Reg, s.Mask, s.Value)
		} else {
			err = d.writeReg(s.Reg, s.Value)
		}
		if err != nil {
			d.log.Error("sequence aborted",
				slog.String("sequence", sequence),
				slog.String("step", s.Name),
				slog.Int("applied", i),
				slog.Any("err", err))
			return &SequenceAbortError{Sequence: sequence, Step: s.Name, Index: i, Err: err}
		}
		d.log.Debug("step", slog.String("sequence", sequence), slog.String("step", s.String()))
	}
	return nil
}

// Configure validates cfg, then applies it from sleep: LoRa entry sequence,
// modem config, symbol timeout, preamble, frequency and payload length. It
// leaves the chip in standby. On a *SequenceAbortError the chip holds a
// partial configuration; re-issue Configure to recover.
func (d *Device) Configure(cfg RadioConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.runSteps("configure", planSteps(cfg, d.opts)); err != nil {
		return err
	}
	d.header = cfg.HeaderMode
	d.freq = cfg.Frequency
	return nil
}

// Plan returns the steps Configure would issue for cfg on this device.
func (d *Device) Plan(cfg RadioConfig) ([]Step, error) {
	return Plan(cfg, d.opts)
}

// ReadConfig reads the modem registers back and decodes them.
func (d *Device) ReadConfig() (RadioConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	regs := []Register{
		RegModemConfig1, RegModemConfig2, RegSymbTimeoutLsb,
		RegPreambleMsb, RegPreambleLsb,
		RegFrfMsb, RegFrfMid, RegFrfLsb,
		RegPayloadLength,
	}
	v := make(map[Register]byte, len(regs))
	for _, r := range regs {
		b, err := d.readReg(r)
		if err != nil {
			return RadioConfig{}, err
		}
		v[r] = b
	}

	mc1, mc2 := v[RegModemConfig1], v[RegModemConfig2]
	steps := uint32(v[RegFrfMsb])<<16 | uint32(v[RegFrfMid])<<8 | uint32(v[RegFrfLsb])
	return RadioConfig{
		Frequency:       stepsToHz(steps, crystalHz(d.opts.Crystal)),
		Bandwidth:       Bandwidth(fieldBandwidth.Extract(mc1)),
		CodingRate:      CodingRate(fieldCodingRate.Extract(mc1)),
		SpreadingFactor: SpreadingFactor(fieldSpreadingFactor.Extract(mc2)),
		HeaderMode:      HeaderMode(fieldHeaderMode.Extract(mc1)),
		PreambleLength:  uint16(v[RegPreambleMsb])<<8 | uint16(v[RegPreambleLsb]),
		PayloadLength:   v[RegPayloadLength],
		SymbolTimeout:   uint16(fieldSymbTimeoutHi.Extract(mc2))<<8 | uint16(v[RegSymbTimeoutLsb]),
	}, nil
}
