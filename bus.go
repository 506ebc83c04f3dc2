package sx127x

import (
	"periph.io/x/conn/v3/spi"
)

// Bus is the transaction primitive the radio is driven through. Every call
// is exactly one chip-select cycle.
type Bus interface {
	// WriteRead clocks out w and returns the n bytes clocked in after it.
	WriteRead(w []byte, n int) ([]byte, error)
	// Write clocks out w and discards whatever comes back.
	Write(w []byte) error
}

type spiBus struct {
	conn spi.Conn
}

// NewSPIBus adapts a connected SPI device to Bus.
func NewSPIBus(c spi.Conn) Bus {
	return &spiBus{conn: c}
}

func (b *spiBus) WriteRead(w []byte, n int) ([]byte, error) {
	tx := make([]byte, len(w)+n)
	copy(tx, w)
	rx := make([]byte, len(tx))
	if err := b.conn.Tx(tx, rx); err != nil {
		return nil, err
	}
	return rx[len(w):], nil
}

func (b *spiBus) Write(w []byte) error {
	return b.conn.Tx(w, nil)
}
