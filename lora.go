// Package sx127x drives a Semtech SX1276/77/78/79 (HopeRF RFM95/96/97/98)
// transceiver in LoRa mode over SPI.
//
// A Device turns a RadioConfig into an ordered sequence of register
// transactions and moves packet bytes through the chip's FIFO. Interrupts
// raised on DIO0 are handed to a Pipeline, whose single worker goroutine
// reads the interrupt flags, invokes the registered Handler and clears the
// flags afterwards.
//
// All register access on a Device is serialized by an internal mutex, so a
// configuration sequence never interleaves with interrupt servicing.
package sx127x

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// DefaultResetPulse is how long the reset line is held low.
const DefaultResetPulse = 20 * time.Millisecond

// Options tune a Device. The zero value is usable.
type Options struct {
	Logger *slog.Logger
	// Crystal is the reference oscillator frequency, DefaultCrystal if zero.
	Crystal physic.Frequency
	// ResetPulse is DefaultResetPulse if zero.
	ResetPulse time.Duration
	// SF6Detection writes the detection optimize and threshold registers
	// during Configure, using the SF6 values when SF6 is selected.
	SF6Detection bool
}

// Device is one physical transceiver: an SPI endpoint, a reset line and
// the DIO0 interrupt line. Either pin may be nil.
type Device struct {
	bus   Bus
	reset gpio.PinOut
	dio0  gpio.PinIn
	log   *slog.Logger
	opts  Options

	mu     sync.Mutex
	header HeaderMode
	freq   uint32
}

// New wraps an already opened bus and pins.
func New(bus Bus, reset gpio.PinOut, dio0 gpio.PinIn, opts Options) *Device {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Crystal <= 0 {
		opts.Crystal = DefaultCrystal
	}
	if opts.ResetPulse <= 0 {
		opts.ResetPulse = DefaultResetPulse
	}
	return &Device{
		bus:   bus,
		reset: reset,
		dio0:  dio0,
		log:   opts.Logger.With(slog.String("driver", "sx127x")),
		opts:  opts,
	}
}

// Open initializes the host drivers and opens the named SPI port and pins,
// e.g. Open("/dev/spidev0.0", "GPIO25", "GPIO17", Options{}).
func Open(spiDev, dio0Name, resetName string, opts Options) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	if _, err := driverreg.Init(); err != nil {
		return nil, err
	}

	p, err := spireg.Open(spiDev)
	if err != nil {
		return nil, err
	}
	c, err := p.Connect(8*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, err
	}

	dio0 := gpioreg.ByName(dio0Name)
	if dio0 == nil {
		p.Close()
		return nil, fmt.Errorf("sx127x: failed to find DIO0 pin %q", dio0Name)
	}

	reset := gpioreg.ByName(resetName)
	if reset == nil {
		p.Close()
		return nil, fmt.Errorf("sx127x: failed to find RESET pin %q", resetName)
	}
	if err := reset.Out(gpio.High); err != nil {
		p.Close()
		return nil, err
	}

	return New(NewSPIBus(c), reset, dio0, opts), nil
}

// Reset pulses the reset line low for Options.ResetPulse.
func (d *Device) Reset() error {
	if d.reset == nil {
		return errors.New("sx127x: device has no reset pin")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.reset.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(d.opts.ResetPulse)
	if err := d.reset.Out(gpio.High); err != nil {
		return err
	}
	// The chip needs a few ms after reset before it answers on SPI.
	time.Sleep(5 * time.Millisecond)
	return nil
}

func (d *Device) Version() (byte, error) {
	return d.ReadRegister(RegVersion)
}

// Init resets the chip, when a reset pin is wired, and checks that it
// answers with the expected silicon revision.
func (d *Device) Init() error {
	if d.reset != nil {
		if err := d.Reset(); err != nil {
			return err
		}
	}
	v, err := d.Version()
	if err != nil {
		return err
	}
	if v != ChipVersion {
		return fmt.Errorf("%w: expected %#02x, found %#02x", ErrVersionMismatch, ChipVersion, v)
	}
	d.log.Debug("chip detected", slog.Int("version", int(v)))
	return nil
}

// DumpRegisters reads every register that has a Layout and decodes it.
func (d *Device) DumpRegisters() (map[Register]map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[Register]map[string]string, len(Layouts))
	for _, l := range Layouts {
		v, err := d.readReg(l.Reg)
		if err != nil {
			return nil, err
		}
		out[l.Reg] = l.Decode(v)
	}
	return out, nil
}
