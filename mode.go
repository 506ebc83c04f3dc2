package sx127x

import (
	"fmt"
	"log/slog"
)

// Mode is the state sub-field of RegOpMode.
type Mode byte

const (
	ModeSleep        Mode = 0x00
	ModeStandby      Mode = 0x01
	ModeFSTx         Mode = 0x02
	ModeTx           Mode = 0x03
	ModeFSRx         Mode = 0x04
	ModeRxContinuous Mode = 0x05
	ModeRxSingle     Mode = 0x06
	ModeCAD          Mode = 0x07
)

func (m Mode) String() string {
	return fieldMode.Symbol(byte(m))
}

// Mode reads RegOpMode back and returns its state field. The modulation
// and band bits are ignored.
func (d *Device) Mode() (Mode, error) {
	v, err := d.ReadRegister(RegOpMode)
	if err != nil {
		return 0, err
	}
	return Mode(fieldMode.Extract(v)), nil
}

// SetMode changes the state field of RegOpMode, leaving the modulation and
// band bits untouched. It is meant to be called once EnterLoRa has left
// the chip in standby.
func (d *Device) SetMode(m Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setMode(m)
}

func (d *Device) setMode(m Mode) error {
	if err := d.updateReg(RegOpMode, fieldMode.Keep(), fieldMode.Encode(byte(m))); err != nil {
		return err
	}
	d.log.Debug("mode", slog.String("mode", m.String()))
	return nil
}

// EnterLoRa runs the entry sequence: sleep, LoRa modulation, low frequency
// register bank, standby. The modulation bit is only writable in sleep,
// hence the order. A failure aborts the remaining steps.
func (d *Device) EnterLoRa() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runSteps("enter lora", enterLoRaSteps())
}

func enterLoRaSteps() []Step {
	return []Step{
		updateStep("sleep", RegOpMode, fieldMode, byte(ModeSleep)),
		updateStep("lora modulation", RegOpMode, fieldLongRangeMode, 1),
		updateStep("low frequency band", RegOpMode, fieldLowFrequencyMode, 1),
		updateStep("standby", RegOpMode, fieldMode, byte(ModeStandby)),
	}
}

// DIO0Mapping selects the event signalled on the DIO0 pin.
type DIO0Mapping byte

const (
	DIO0RxDone  DIO0Mapping = 0
	DIO0TxDone  DIO0Mapping = 1
	DIO0CadDone DIO0Mapping = 2
)

func (m DIO0Mapping) String() string {
	return fieldDio0Mapping.Symbol(byte(m))
}

func (d *Device) SetDIO0(m DIO0Mapping) error {
	if m > DIO0CadDone {
		return fmt.Errorf("sx127x: invalid DIO0 mapping %d", m)
	}
	return d.UpdateRegister(RegDioMapping1, fieldDio0Mapping.Keep(), fieldDio0Mapping.Encode(byte(m)))
}
