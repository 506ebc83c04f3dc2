package sx127x

import (
	"fmt"
	"log/slog"
)

// Message is a received packet with its link quality.
type Message struct {
	Data []byte
	RSSI int
	SNR  float64
}

func checkLength(n int, allowEmpty bool) error {
	if n > MaxPktLength || (n == 0 && !allowEmpty) {
		return fmt.Errorf("%w: %d bytes", ErrPacketSize, n)
	}
	return nil
}

// Receive copies len(buf) bytes of the last received packet out of the
// FIFO. The read cursor is reset to RegFifoRxCurrentAddr first. After a
// failed transfer the cursor position is undefined.
func (d *Device) Receive(buf []byte) error {
	if err := checkLength(len(buf), true); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.receive(buf)
}

func (d *Device) receive(buf []byte) error {
	addr, err := d.readReg(RegFifoRxCurrentAddr)
	if err != nil {
		return err
	}
	if err := d.writeReg(RegFifoAddrPtr, addr); err != nil {
		return err
	}
	for i := range buf {
		b, err := d.readReg(RegFifo)
		if err != nil {
			return err
		}
		buf[i] = b
	}
	return nil
}

// Transmit loads buf into the FIFO starting at RegFifoTxBaseAddr and puts
// the chip in TX. The number of bytes radiated is whatever RegPayloadLength
// holds; use Send to set it from len(buf).
func (d *Device) Transmit(buf []byte) error {
	if err := checkLength(len(buf), false); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transmit(buf)
}

func (d *Device) transmit(buf []byte) error {
	base, err := d.readReg(RegFifoTxBaseAddr)
	if err != nil {
		return err
	}
	for i, b := range buf {
		if err := d.writeReg(RegFifoAddrPtr, base+byte(i)); err != nil {
			return err
		}
		if err := d.writeReg(RegFifo, b); err != nil {
			return err
		}
	}
	return d.setMode(ModeTx)
}

// Send sets the payload length to len(payload) and transmits it.
func (d *Device) Send(payload []byte) error {
	if err := checkLength(len(payload), false); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writeReg(RegPayloadLength, byte(len(payload))); err != nil {
		return err
	}
	if err := d.transmit(payload); err != nil {
		return err
	}
	d.log.Debug("sent", slog.Int("len", len(payload)))
	return nil
}

// ReadPacket reads the last received packet. Its length comes from
// RegRxNbBytes in explicit header mode and RegPayloadLength in implicit
// header mode.
func (d *Device) ReadPacket() (*Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	lengthReg := RegRxNbBytes
	if d.header == HeaderImplicit {
		lengthReg = RegPayloadLength
	}
	n, err := d.readReg(lengthReg)
	if err != nil {
		return nil, err
	}

	data := make([]byte, n)
	if err := d.receive(data); err != nil {
		return nil, err
	}
	rssi, err := d.rssi()
	if err != nil {
		return nil, err
	}
	snr, err := d.snr()
	if err != nil {
		return nil, err
	}
	return &Message{Data: data, RSSI: rssi, SNR: snr}, nil
}

// RSSI returns the last packet's RSSI in dBm, using the HF or LF port
// offset for the configured frequency.
func (d *Device) RSSI() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rssi()
}

func (d *Device) rssi() (int, error) {
	v, err := d.readReg(RegPktRssiValue)
	if err != nil {
		return 0, err
	}
	if d.freq != 0 && d.freq < RfMidBandThreshold {
		return int(v) - RssiOffsetLfPort, nil
	}
	return int(v) - RssiOffsetHfPort, nil
}

func (d *Device) SNR() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snr()
}

func (d *Device) snr() (float64, error) {
	v, err := d.readReg(RegPktSnrValue)
	if err != nil {
		return 0, err
	}
	return float64(int8(v)) * 0.25, nil
}
