package sx127x

import (
	"bytes"
	"errors"
	"testing"
)

func TestEnterLoRaOrder(t *testing.T) {
	for _, start := range []byte{0x05, 0x81, 0x8d, 0x00} {
		chip := &fakeChip{}
		chip.set(RegOpMode, start)
		d := newTestDevice(chip)

		if err := d.EnterLoRa(); err != nil {
			t.Fatal(err)
		}
		// sleep, LoRa, low frequency, standby
		want := []byte{start &^ 0x07, start&^0x07 | 0x80, start&^0x07 | 0x88, start&^0x07 | 0x89}
		if got := chip.writes(RegOpMode); !bytes.Equal(got, want) {
			t.Errorf("start %#02x: opmode writes %#v, want %#v", start, got, want)
		}
		if got := chip.reg(RegOpMode); got&0x89 != 0x89 {
			t.Errorf("start %#02x: final opmode %#02x", start, got)
		}
	}
}

func TestEnterLoRaAbort(t *testing.T) {
	// Transaction 4 is the write of the LoRa modulation step.
	chip := &fakeChip{failAt: 4}
	chip.set(RegOpMode, 0x01)
	d := newTestDevice(chip)

	err := d.EnterLoRa()
	var se *SequenceAbortError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SequenceAbortError, got %v", err)
	}
	if se.Index != 1 || se.Step != "lora modulation" {
		t.Errorf("aborted at %d (%s)", se.Index, se.Step)
	}
	var be *BusError
	if !errors.As(err, &be) || be.Op != "write" {
		t.Errorf("expected wrapped write BusError, got %v", err)
	}
	if got := chip.reg(RegOpMode); got != 0x00 {
		t.Errorf("opmode = %#02x, want sleep left in place", got)
	}
	if n := len(chip.writes(RegOpMode)); n != 1 {
		t.Errorf("%d opmode writes, want 1", n)
	}
}

func TestModeIgnoresSchemeBits(t *testing.T) {
	pb, d := playback(t, rd(RegOpMode, 0x8b), rd(RegOpMode, 0x05))
	m, err := d.Mode()
	if err != nil {
		t.Fatal(err)
	}
	if m != ModeTx {
		t.Errorf("Mode() = %s, want tx", m)
	}
	if m, _ = d.Mode(); m != ModeRxContinuous {
		t.Errorf("Mode() = %s, want rxcontinuous", m)
	}
	checkPlayback(t, pb)
}

func TestSetMode(t *testing.T) {
	pb, d := playback(t,
		rd(RegOpMode, 0x89),
		wr(RegOpMode, 0x8d),
	)
	if err := d.SetMode(ModeRxContinuous); err != nil {
		t.Fatal(err)
	}
	checkPlayback(t, pb)
}

func TestSetDIO0(t *testing.T) {
	chip := &fakeChip{}
	chip.set(RegDioMapping1, 0x3f)
	d := newTestDevice(chip)

	if err := d.SetDIO0(DIO0TxDone); err != nil {
		t.Fatal(err)
	}
	if got := chip.reg(RegDioMapping1); got != 0x7f {
		t.Errorf("DioMapping1 = %#02x, want 0x7f", got)
	}
	if err := d.SetDIO0(3); err == nil {
		t.Error("expected error for unknown mapping")
	}
}
