package sx127x

import (
	"bytes"
	"errors"
	"testing"
)

func TestReceiveCycle(t *testing.T) {
	pb, d := playback(t,
		rd(RegFifoRxCurrentAddr, 0x20),
		wr(RegFifoAddrPtr, 0x20),
		rd(RegFifo, 0x01),
		rd(RegFifo, 0x02),
		rd(RegFifo, 0x03),
	)
	buf := make([]byte, 3)
	if err := d.Receive(buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("Receive = %#v", buf)
	}
	checkPlayback(t, pb)
}

func TestTransmitCycle(t *testing.T) {
	pb, d := playback(t,
		rd(RegFifoTxBaseAddr, 0x80),
		wr(RegFifoAddrPtr, 0x80),
		wr(RegFifo, 0xaa),
		wr(RegFifoAddrPtr, 0x81),
		wr(RegFifo, 0xbb),
		rd(RegOpMode, 0x89),
		wr(RegOpMode, 0x8b),
	)
	if err := d.Transmit([]byte{0xaa, 0xbb}); err != nil {
		t.Fatal(err)
	}
	checkPlayback(t, pb)
}

func TestTransmitLength(t *testing.T) {
	chip := &fakeChip{}
	d := newTestDevice(chip)
	for _, n := range []int{0, MaxPktLength + 1} {
		if err := d.Transmit(make([]byte, n)); !errors.Is(err, ErrPacketSize) {
			t.Errorf("Transmit(%d bytes) = %v", n, err)
		}
	}
	if err := d.Receive(make([]byte, MaxPktLength+1)); !errors.Is(err, ErrPacketSize) {
		t.Errorf("Receive(256 bytes) = %v", err)
	}
	if chip.txn != 0 {
		t.Errorf("%d transactions for rejected transfers", chip.txn)
	}
}

func TestTransmitAbortsMidStream(t *testing.T) {
	// read base, then pointer/data pairs; transaction 4 is the second pointer write.
	chip := &fakeChip{failAt: 4}
	d := newTestDevice(chip)

	err := d.Transmit([]byte{1, 2, 3})
	var be *BusError
	if !errors.As(err, &be) || be.Reg != RegFifoAddrPtr {
		t.Fatalf("unexpected error %v", err)
	}
	if len(chip.writes(RegOpMode)) != 0 {
		t.Error("mode changed after a failed transfer")
	}
}

func TestReceiveAbortsMidStream(t *testing.T) {
	// read rx address, write pointer, then one read per byte; transaction 4
	// is the second FIFO read.
	chip := &fakeChip{failAt: 4}
	chip.set(RegFifoRxCurrentAddr, 0x10)
	copy(chip.fifo[0x10:], []byte{0xaa, 0xbb, 0xcc})
	d := newTestDevice(chip)

	buf := make([]byte, 3)
	err := d.Receive(buf)
	var be *BusError
	if !errors.As(err, &be) || be.Reg != RegFifo || be.Op != "read" {
		t.Fatalf("unexpected error %v", err)
	}
	if !errors.Is(err, errBus) {
		t.Errorf("transport error not preserved: %v", err)
	}
	if chip.txn != 4 {
		t.Errorf("%d transactions, expected the transfer to stop at 4", chip.txn)
	}
	if buf[0] != 0xaa || buf[1] != 0 || buf[2] != 0 {
		t.Errorf("buf = % x", buf)
	}
}

func TestSendThenReceiveThroughFifo(t *testing.T) {
	chip := &fakeChip{}
	chip.set(RegOpMode, 0x89)
	chip.set(RegFifoTxBaseAddr, 0x00)
	d := newTestDevice(chip)

	payload := []byte("hello")
	if err := d.Send(payload); err != nil {
		t.Fatal(err)
	}
	if got := chip.reg(RegPayloadLength); got != byte(len(payload)) {
		t.Errorf("payload length = %d", got)
	}
	if got := chip.reg(RegOpMode); got != 0x8b {
		t.Errorf("opmode = %#02x, want tx", got)
	}

	// Pretend the same bytes were received at the start of the FIFO.
	chip.set(RegFifoRxCurrentAddr, 0x00)
	chip.set(RegRxNbBytes, byte(len(payload)))
	chip.set(RegPktRssiValue, 100)
	chip.set(RegPktSnrValue, 0xf8)

	msg, err := d.ReadPacket()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(msg.Data, payload) {
		t.Errorf("data = %q", msg.Data)
	}
	if msg.RSSI != 100-RssiOffsetHfPort {
		t.Errorf("rssi = %d", msg.RSSI)
	}
	if msg.SNR != -2 {
		t.Errorf("snr = %v", msg.SNR)
	}
}

func TestReadPacketImplicitHeader(t *testing.T) {
	chip := &fakeChip{}
	d := newTestDevice(chip)

	cfg := DefaultRadioConfig()
	cfg.Frequency = 433e6
	cfg.HeaderMode = HeaderImplicit
	cfg.PayloadLength = 2
	if err := d.Configure(cfg); err != nil {
		t.Fatal(err)
	}

	chip.set(RegRxNbBytes, 9) // ignored in implicit mode
	chip.set(RegFifoRxCurrentAddr, 0x40)
	chip.fifo[0x40], chip.fifo[0x41] = 0xde, 0xad
	chip.set(RegPktRssiValue, 120)

	msg, err := d.ReadPacket()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(msg.Data, []byte{0xde, 0xad}) {
		t.Errorf("data = %#v", msg.Data)
	}
	if msg.RSSI != 120-RssiOffsetLfPort {
		t.Errorf("rssi = %d", msg.RSSI)
	}
}
