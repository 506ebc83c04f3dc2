// loractl drives an SX127x LoRa radio attached to a Linux SPI bus.
//
// Examples:
//
//	# Print the register sequence a configuration produces, no hardware needed
//	./loractl -m plan -c etc/radio.json
//
//	# Decode the chip's configuration registers
//	./loractl -m dump -c etc/radio.json
//
//	# Transmit a string
//	./loractl -m send -c etc/radio.json -data "hello"
//
//	# Print received packets until interrupted
//	./loractl -m recv -c etc/radio.json
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/NV4RE/sx127x"
)

func main() {
	mode := flag.String("m", "", "Mode: 'plan', 'dump', 'send' or 'recv' (required)")
	configPath := flag.String("c", "", "Configuration file path")
	spiDev := flag.String("spi", "", "SPI device, overrides the config file")
	verbose := flag.Bool("v", false, "Verbose output")
	data := flag.String("data", "", "Data to send (ASCII string)")
	hexStr := flag.String("hex", "", "Data to send (hex encoded)")
	timeout := flag.Duration("timeout", 5*time.Second, "Transmit completion timeout")
	flag.Parse()

	switch *mode {
	case "plan", "dump", "send", "recv":
	default:
		fmt.Fprintln(os.Stderr, "Error: Mode (-m) must be 'plan', 'dump', 'send' or 'recv'")
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(logger, err)
	}
	if *spiDev != "" {
		cfg.SPI = *spiDev
	}
	opts := sx127x.Options{Logger: logger, SF6Detection: cfg.SF6Detection}

	if *mode == "plan" {
		if err := printPlan(cfg.Radio, opts); err != nil {
			fatal(logger, err)
		}
		return
	}

	payload, err := payloadFromFlags(*data, *hexStr)
	if err != nil {
		fatal(logger, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev, err := sx127x.Open(cfg.SPI, cfg.DIO0, cfg.Reset, opts)
	if err != nil {
		fatal(logger, err)
	}
	if err := dev.Init(); err != nil {
		fatal(logger, err)
	}

	switch *mode {
	case "dump":
		err = dump(dev)
	case "send":
		err = send(ctx, dev, cfg, payload, *timeout, logger)
	case "recv":
		err = recv(ctx, dev, cfg, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fatal(logger, err)
	}
}

func fatal(logger *slog.Logger, err error) {
	logger.Error("loractl failed", slog.Any("err", err))
	os.Exit(1)
}

func payloadFromFlags(data, hexStr string) ([]byte, error) {
	if hexStr != "" {
		b, err := hex.DecodeString(hexStr)
		if err != nil {
			return nil, fmt.Errorf("invalid hex data: %w", err)
		}
		return b, nil
	}
	return []byte(data), nil
}

func printPlan(radio sx127x.RadioConfig, opts sx127x.Options) error {
	steps, err := sx127x.Plan(radio, opts)
	if err != nil {
		return err
	}
	for i, s := range steps {
		fmt.Printf("%2d  %s\n", i, s)
	}
	return nil
}

func dump(dev *sx127x.Device) error {
	regs, err := dev.DumpRegisters()
	if err != nil {
		return err
	}
	for _, l := range sx127x.Layouts {
		fields := regs[l.Reg]
		names := make([]string, 0, len(fields))
		for n := range fields {
			names = append(names, n)
		}
		sort.Strings(names)
		fmt.Printf("%s\n", l.Reg)
		for _, n := range names {
			fmt.Printf("  %-22s %s\n", n, fields[n])
		}
	}
	return nil
}

// configure applies the radio config and the link settings outside it.
func configure(dev *sx127x.Device, cfg *fileConfig) error {
	if err := dev.Configure(cfg.Radio); err != nil {
		return err
	}
	if err := dev.SetTxPower(cfg.TxPower); err != nil {
		return err
	}
	if err := dev.SetLnaBoost(true); err != nil {
		return err
	}
	return dev.SetSyncWord(cfg.SyncWord)
}

func send(ctx context.Context, dev *sx127x.Device, cfg *fileConfig, payload []byte, timeout time.Duration, logger *slog.Logger) error {
	if err := configure(dev, cfg); err != nil {
		return err
	}
	if err := dev.SetDIO0(sx127x.DIO0TxDone); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pipeline := sx127x.NewPipeline(sx127x.PipelineOptions{Logger: logger})
	done := make(chan struct{}, 1)
	_, err := pipeline.Watch(ctx, dev, sx127x.HandlerFunc(func(d *sx127x.Device, flags sx127x.IrqFlags) {
		if flags.TxDone() {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	}))
	if err != nil {
		return err
	}
	go pipeline.Run(ctx)

	if err := dev.Send(payload); err != nil {
		return err
	}

	select {
	case <-done:
		logger.Info("sent", slog.Int("len", len(payload)))
		return dev.SetMode(sx127x.ModeStandby)
	case <-time.After(timeout):
		return fmt.Errorf("transmit did not complete within %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recv(ctx context.Context, dev *sx127x.Device, cfg *fileConfig, logger *slog.Logger) error {
	if err := configure(dev, cfg); err != nil {
		return err
	}
	if err := dev.SetDIO0(sx127x.DIO0RxDone); err != nil {
		return err
	}

	pipeline := sx127x.NewPipeline(sx127x.PipelineOptions{Logger: logger})
	_, err := pipeline.Watch(ctx, dev, sx127x.HandlerFunc(func(d *sx127x.Device, flags sx127x.IrqFlags) {
		if !flags.RxDone() {
			return
		}
		if flags.PayloadCrcError() {
			logger.Warn("crc error, packet discarded")
			return
		}
		msg, err := d.ReadPacket()
		if err != nil {
			logger.Error("read packet", slog.Any("err", err))
			return
		}
		fmt.Printf("rssi=%d snr=%.2f %s\n", msg.RSSI, msg.SNR, hex.EncodeToString(msg.Data))
	}))
	if err != nil {
		return err
	}

	if err := dev.SetMode(sx127x.ModeRxContinuous); err != nil {
		return err
	}
	defer dev.SetMode(sx127x.ModeStandby)

	return pipeline.Run(ctx)
}
