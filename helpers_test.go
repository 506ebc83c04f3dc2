package sx127x

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

var errBus = errors.New("spi: transfer failed")

type busOp struct {
	write bool
	reg   Register
	val   byte
}

// fakeChip is a register file behind spi.Conn. FIFO accesses go through
// RegFifoAddrPtr and RegIrqFlags is write-1-to-clear, as on the chip.
type fakeChip struct {
	mu     sync.Mutex
	regs   [0x80]byte
	fifo   [256]byte
	ops    []busOp
	txn    int
	failAt int // 1-based transaction that fails, 0 for never
}

func (c *fakeChip) String() string      { return "fakeChip" }
func (c *fakeChip) Duplex() conn.Duplex { return conn.Full }
func (c *fakeChip) TxPackets(p []spi.Packet) error {
	return errors.New("fakeChip: packets not supported")
}

func (c *fakeChip) Tx(w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.txn++
	if c.txn == c.failAt {
		return errBus
	}
	reg := Register(w[0] & addrMask)
	if w[0]&writeFlag != 0 {
		for _, b := range w[1:] {
			c.ops = append(c.ops, busOp{write: true, reg: reg, val: b})
			c.store(reg, b)
		}
		return nil
	}
	for i := 1; i < len(r); i++ {
		v := c.load(reg)
		c.ops = append(c.ops, busOp{reg: reg, val: v})
		r[i] = v
	}
	return nil
}

func (c *fakeChip) store(reg Register, b byte) {
	switch reg {
	case RegFifo:
		c.fifo[c.regs[RegFifoAddrPtr]] = b
		c.regs[RegFifoAddrPtr]++
	case RegIrqFlags:
		c.regs[reg] &^= b
	default:
		c.regs[reg] = b
	}
}

func (c *fakeChip) load(reg Register) byte {
	if reg == RegFifo {
		v := c.fifo[c.regs[RegFifoAddrPtr]]
		c.regs[RegFifoAddrPtr]++
		return v
	}
	return c.regs[reg]
}

func (c *fakeChip) reg(r Register) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[r]
}

func (c *fakeChip) set(r Register, v byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regs[r] = v
}

// writes returns the values written to reg, in order.
func (c *fakeChip) writes(reg Register) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []byte
	for _, op := range c.ops {
		if op.write && op.reg == reg {
			out = append(out, op.val)
		}
	}
	return out
}

func (c *fakeChip) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, op := range c.ops {
		if op.write {
			n++
		}
	}
	return n
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDevice(c spi.Conn) *Device {
	return New(NewSPIBus(c), nil, nil, Options{Logger: testLogger()})
}

// rd and wr build the exact transactions the driver issues.
func rd(reg Register, v byte) conntest.IO {
	return conntest.IO{W: []byte{byte(reg), 0x00}, R: []byte{0x00, v}}
}

func wr(reg Register, v byte) conntest.IO {
	return conntest.IO{W: []byte{byte(reg) | 0x80, v}}
}

func playback(t *testing.T, ops ...conntest.IO) (*spitest.Playback, *Device) {
	t.Helper()
	pb := &spitest.Playback{Playback: conntest.Playback{Ops: ops, DontPanic: true}}
	c, err := pb.Connect(physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		t.Fatal(err)
	}
	return pb, newTestDevice(c)
}

func checkPlayback(t *testing.T, pb *spitest.Playback) {
	t.Helper()
	if pb.Count != len(pb.Ops) {
		t.Errorf("%d of %d transactions issued", pb.Count, len(pb.Ops))
	}
}
