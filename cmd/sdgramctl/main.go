package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/seagrayinc/sdgram/internal/config"
	"github.com/seagrayinc/sdgram/internal/hid"
	"github.com/seagrayinc/sdgram/internal/logging"
	"github.com/seagrayinc/sdgram/internal/metrics"
	"github.com/seagrayinc/sdgram/internal/serialport"
	"github.com/seagrayinc/sdgram/internal/usbbulk"
	"github.com/seagrayinc/sdgram/pkg/sdgram"
)

const usage = `usage: sdgramctl [flags] <listen|send|ports>

  listen   print datagrams received on the configured ports
  send     send one datagram (-port with -hex or -text)
  ports    list serial ports, USB and HID devices

flags:
`

type options struct {
	configPath string
	port       uint
	hexPayload string
	text       string
	command    string
	cfg        config.Config
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "sdgramctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseArgs(args, os.Stderr)
	if err != nil {
		return err
	}

	lvl, ok := logging.ParseLevel(opts.cfg.LogLevel)
	if !ok {
		lvl = zerolog.InfoLevel
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = lvl
	logger := logging.New("sdgramctl", logCfg)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer stop()

	switch opts.command {
	case "listen":
		return listen(ctx, opts.cfg, logger)
	case "send":
		payload, err := parsePayload(opts.hexPayload, opts.text)
		if err != nil {
			return err
		}
		if opts.port > 0xFF {
			return fmt.Errorf("port %d out of range", opts.port)
		}
		return send(opts.cfg, logger, uint8(opts.port), payload)
	case "ports":
		return listPorts(stdout)
	default:
		return fmt.Errorf("unknown command %q", opts.command)
	}
}

// parseArgs reads flags, loads the config file and applies flags that were
// set on top of it.
func parseArgs(args []string, errOut io.Writer) (options, error) {
	var opts options
	defaults := config.Default()

	fs := flag.NewFlagSet("sdgramctl", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "TOML config file")
	fs.UintVar(&opts.port, "port", 1, "destination port for send")
	fs.StringVar(&opts.hexPayload, "hex", "", "payload as hex digits")
	fs.StringVar(&opts.text, "text", "", "payload as text")
	transport := fs.String("transport", defaults.Transport, "link type: serial, usb or hid")
	device := fs.String("device", defaults.Device, "serial device path")
	baud := fs.Int("baud", defaults.Baud, "serial baud rate")
	vid := fs.Uint("vid", 0, "USB vendor id")
	pid := fs.Uint("pid", 0, "USB product id")
	maxPayload := fs.Int("max-payload", defaults.MaxPayload, "largest payload in bytes")
	metricsAddr := fs.String("metrics", defaults.MetricsAddr, "address to serve /metrics on")
	logLevel := fs.String("log-level", defaults.LogLevel, "trace, debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, fmt.Errorf("expected one command, got %d", fs.NArg())
	}
	opts.command = fs.Arg(0)

	cfg := defaults
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return options{}, err
		}
		cfg = loaded
	}

	var idErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "transport":
			cfg.Transport = strings.ToLower(*transport)
		case "device":
			cfg.Device = *device
		case "baud":
			cfg.Baud = *baud
		case "vid":
			if *vid > 0xFFFF {
				idErr = fmt.Errorf("invalid vid: %d", *vid)
			}
			cfg.VID = uint16(*vid)
		case "pid":
			if *pid > 0xFFFF {
				idErr = fmt.Errorf("invalid pid: %d", *pid)
			}
			cfg.PID = uint16(*pid)
		case "max-payload":
			cfg.MaxPayload = *maxPayload
		case "metrics":
			cfg.MetricsAddr = *metricsAddr
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if idErr != nil {
		return options{}, idErr
	}

	if opts.command != "ports" {
		if err := cfg.Validate(); err != nil {
			return options{}, err
		}
	}
	opts.cfg = cfg
	return opts, nil
}

func parsePayload(hexPayload, text string) ([]byte, error) {
	switch {
	case hexPayload != "" && text != "":
		return nil, errors.New("use either -hex or -text")
	case hexPayload != "":
		clean := strings.NewReplacer(" ", "", "-", "", ":", "").Replace(hexPayload)
		b, err := hex.DecodeString(clean)
		if err != nil {
			return nil, fmt.Errorf("parse -hex: %w", err)
		}
		return b, nil
	default:
		return []byte(text), nil
	}
}

func listen(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	link, name, err := openLink(cfg)
	if err != nil {
		return err
	}
	defer link.Close()

	n := sdgram.New(link,
		sdgram.WithMaxPayloadSize(cfg.MaxPayload),
		sdgram.WithLogger(logger),
	)
	for _, port := range cfg.Ports {
		port := port
		n.Register(port, func(payload []byte) error {
			logger.Info().Uint8("port", port).Int("size", len(payload)).Hex("payload", payload).Msg("datagram")
			return nil
		})
	}

	collector := metrics.NewCollector(name)
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collector)
		srv := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info().Str("link", name).Uints8("ports", cfg.Ports).Dur("poll", cfg.PollInterval).Msg("listening")

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logStats(logger, n.Stats())
			return nil
		case <-ticker.C:
		}

		err := n.Process()
		collector.Observe(n.Stats())
		if err != nil {
			logStats(logger, n.Stats())
			return fmt.Errorf("process %s: %w", name, err)
		}
	}
}

func send(cfg config.Config, logger zerolog.Logger, port uint8, payload []byte) error {
	link, name, err := openLink(cfg)
	if err != nil {
		return err
	}
	defer link.Close()

	n := sdgram.New(link,
		sdgram.WithMaxPayloadSize(cfg.MaxPayload),
		sdgram.WithLogger(logger),
	)
	if err := n.Send(port, payload); err != nil {
		return fmt.Errorf("send to %s: %w", name, err)
	}
	logger.Info().Str("link", name).Uint8("port", port).Int("size", len(payload)).Msg("sent")
	logStats(logger, n.Stats())
	return nil
}

func listPorts(w io.Writer) error {
	ports, err := serialport.List()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "serial:")
	for _, p := range ports {
		fmt.Fprintf(w, "  %s\n", p)
	}

	fmt.Fprintln(w, "usb:")
	if devs, err := usbbulk.List(0, 0); err != nil {
		fmt.Fprintf(w, "  unavailable: %v\n", err)
	} else {
		for _, d := range devs {
			fmt.Fprintf(w, "  %04x:%04x %s %s (%s)\n", d.VendorID, d.ProductID, d.Manufacturer, d.Product, d.Path)
		}
	}

	fmt.Fprintln(w, "hid:")
	if devs, err := hid.NewManager().List(); err != nil {
		fmt.Fprintf(w, "  unavailable: %v\n", err)
	} else {
		for _, d := range devs {
			fmt.Fprintf(w, "  %04x:%04x %s %s (%s)\n", d.VendorID, d.ProductID, d.Manufacturer, d.Product, d.Path)
		}
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	return srv
}

func logStats(logger zerolog.Logger, s sdgram.Stats) {
	logger.Info().
		Uint64("sent", s.SentMessages).
		Uint64("sent_bytes", s.SentBytes).
		Uint64("incomplete_writes", s.IncompleteWrites).
		Uint64("received", s.ReceivedMessages).
		Uint64("received_bytes", s.ReceivedBytes).
		Uint64("dropped_bytes", s.DroppedBytes).
		Uint64("checksum_errors", s.ChecksumErrors).
		Uint64("size_errors", s.SizeErrors).
		Uint64("trailer_errors", s.TrailerErrors).
		Uint64("no_receiver", s.NoReceiverErrors).
		Msg("stats")
}
