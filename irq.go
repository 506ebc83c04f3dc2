package sx127x

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// IrqFlags is the content of RegIrqFlags.
type IrqFlags byte

const (
	IrqCadDetected       IrqFlags = 1 << 0
	IrqFhssChangeChannel IrqFlags = 1 << 1
	IrqCadDone           IrqFlags = 1 << 2
	IrqTxDone            IrqFlags = 1 << 3
	IrqValidHeader       IrqFlags = 1 << 4
	IrqPayloadCrcError   IrqFlags = 1 << 5
	IrqRxDone            IrqFlags = 1 << 6
	IrqRxTimeout         IrqFlags = 1 << 7

	irqAll IrqFlags = 0xff
)

var irqNames = []struct {
	f    IrqFlags
	name string
}{
	{IrqRxTimeout, "RxTimeout"},
	{IrqRxDone, "RxDone"},
	{IrqPayloadCrcError, "PayloadCrcError"},
	{IrqValidHeader, "ValidHeader"},
	{IrqTxDone, "TxDone"},
	{IrqCadDone, "CadDone"},
	{IrqFhssChangeChannel, "FhssChangeChannel"},
	{IrqCadDetected, "CadDetected"},
}

func (f IrqFlags) Has(flag IrqFlags) bool { return f&flag != 0 }

func (f IrqFlags) RxTimeout() bool         { return f.Has(IrqRxTimeout) }
func (f IrqFlags) RxDone() bool            { return f.Has(IrqRxDone) }
func (f IrqFlags) PayloadCrcError() bool   { return f.Has(IrqPayloadCrcError) }
func (f IrqFlags) ValidHeader() bool       { return f.Has(IrqValidHeader) }
func (f IrqFlags) TxDone() bool            { return f.Has(IrqTxDone) }
func (f IrqFlags) CadDone() bool           { return f.Has(IrqCadDone) }
func (f IrqFlags) FhssChangeChannel() bool { return f.Has(IrqFhssChangeChannel) }
func (f IrqFlags) CadDetected() bool       { return f.Has(IrqCadDetected) }

func (f IrqFlags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, n := range irqNames {
		if f.Has(n.f) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// IrqFlags reads the latched interrupt flags without clearing them.
func (d *Device) IrqFlags() (IrqFlags, error) {
	v, err := d.ReadRegister(RegIrqFlags)
	return IrqFlags(v), err
}

// ClearIrqFlags clears every latched flag. The register is write-1-to-clear.
func (d *Device) ClearIrqFlags() error {
	return d.WriteRegister(RegIrqFlags, byte(irqAll))
}

// Handler is notified by the pipeline worker with the flags latched when
// the interrupt was serviced. It runs on the worker goroutine and may
// perform bus I/O on the device; the flags are cleared once it returns.
type Handler interface {
	OnInterrupt(d *Device, flags IrqFlags)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(d *Device, flags IrqFlags)

func (f HandlerFunc) OnInterrupt(d *Device, flags IrqFlags) { f(d, flags) }

// SaturationPolicy decides what a full queue means for the pipeline.
type SaturationPolicy int

const (
	// DropOnSaturation discards the event and counts it in Dropped. A
	// device holds at most one queued event, so the queue only fills when
	// more devices are registered than it has slots. A dropped device keeps
	// its flags latched and DIO0 high until it is fired again.
	DropOnSaturation SaturationPolicy = iota
	// FailOnSaturation stops the worker; Run returns a *QueueSaturationError.
	FailOnSaturation
)

// DefaultQueueCapacity is the number of pending events the pipeline holds.
const DefaultQueueCapacity = 4

// Token identifies a device and its handler in the pipeline queue.
type Token struct {
	p       *Pipeline
	dev     *Device
	handler Handler
	// pending is set while the token sits in the queue.
	pending atomic.Bool
}

func (t *Token) Device() *Device { return t.dev }

// Fire queues the token without blocking. This is the only operation the
// interrupt side performs. Firing a token that is already queued is a
// no-op: the worker reads every flag latched so far when it gets to it.
func (t *Token) Fire() error {
	if !t.pending.CompareAndSwap(false, true) {
		return nil
	}
	if err := t.p.enqueue(t); err != nil {
		t.pending.Store(false)
		return err
	}
	return nil
}

// Pipeline hands interrupts from per-device edge watchers to one worker
// goroutine. Bus I/O only ever happens on the worker.
type Pipeline struct {
	queue   chan *Token
	policy  SaturationPolicy
	log     *slog.Logger
	poll    time.Duration
	dropped atomic.Uint64

	registered atomic.Int32
	running    atomic.Bool

	failOnce sync.Once
	failed   chan struct{}
	failErr  error
}

// PipelineOptions tune a Pipeline. The zero value is usable.
type PipelineOptions struct {
	Capacity int // DefaultQueueCapacity if zero
	Policy   SaturationPolicy
	Logger   *slog.Logger
	// EdgePoll bounds each WaitForEdge call so watchers notice
	// cancellation, one second if zero.
	EdgePoll time.Duration
}

// NewPipeline creates the queue. Start the worker with Run.
func NewPipeline(opts PipelineOptions) *Pipeline {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultQueueCapacity
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.EdgePoll <= 0 {
		opts.EdgePoll = time.Second
	}
	return &Pipeline{
		queue:  make(chan *Token, opts.Capacity),
		policy: opts.Policy,
		log:    opts.Logger.With(slog.String("component", "irq")),
		poll:   opts.EdgePoll,
		failed: make(chan struct{}),
	}
}

func (p *Pipeline) Capacity() int { return cap(p.queue) }

// Dropped counts events discarded because the queue was full.
func (p *Pipeline) Dropped() uint64 { return p.dropped.Load() }

// Register creates the token for d and h. No goroutine is started; use
// Watch to bind it to the device's DIO0 pin, or call Token.Fire directly.
func (p *Pipeline) Register(d *Device, h Handler) *Token {
	if n := p.registered.Add(1); int(n) > cap(p.queue) {
		p.log.Warn("more devices than queue slots, interrupts may be dropped",
			slog.Int("devices", int(n)), slog.Int("capacity", cap(p.queue)))
	}
	return &Token{p: p, dev: d, handler: h}
}

// Watch registers d and h, arms DIO0 for rising edges and starts a
// goroutine that fires the token on every edge until ctx is done.
func (p *Pipeline) Watch(ctx context.Context, d *Device, h Handler) (*Token, error) {
	if d.dio0 == nil {
		return nil, ErrNoInterruptPin
	}
	if err := d.dio0.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, err
	}
	t := p.Register(d, h)
	go p.watch(ctx, t)
	return t, nil
}

func (p *Pipeline) watch(ctx context.Context, t *Token) {
	pin := t.dev.dio0
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.failed:
			return
		default:
		}
		if !pin.WaitForEdge(p.poll) {
			continue
		}
		if err := t.Fire(); err != nil {
			p.log.Warn("interrupt dropped", slog.String("pin", pin.Name()), slog.Any("err", err))
		}
	}
}

func (p *Pipeline) enqueue(t *Token) error {
	select {
	case p.queue <- t:
		return nil
	default:
	}
	err := &QueueSaturationError{Capacity: cap(p.queue)}
	if p.policy == FailOnSaturation {
		p.failOnce.Do(func() {
			p.failErr = err
			close(p.failed)
		})
		return err
	}
	p.dropped.Add(1)
	return err
}

// Run is the worker loop. For each queued token it reads the interrupt
// flags, invokes the handler, then clears the flags. Bus errors are logged
// and the token is skipped. Run returns when ctx is done or, under
// FailOnSaturation, when an event could not be queued. Only one Run may be
// active per Pipeline; a concurrent call returns ErrPipelineRunning.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrPipelineRunning
	}
	defer p.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.failed:
			return p.failErr
		case t := <-p.queue:
			p.service(t)
		}
	}
}

func (p *Pipeline) service(t *Token) {
	// Edges from here on queue the token again.
	t.pending.Store(false)
	flags, err := t.dev.IrqFlags()
	if err != nil {
		p.log.Error("read irq flags", slog.Any("err", err))
		return
	}
	t.handler.OnInterrupt(t.dev, flags)
	if err := t.dev.ClearIrqFlags(); err != nil {
		p.log.Error("clear irq flags", slog.String("flags", flags.String()), slog.Any("err", err))
	}
}
