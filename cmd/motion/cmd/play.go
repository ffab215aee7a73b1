package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-drift/motion/pkg/animation"
	"github.com/go-drift/motion/pkg/config"
	"github.com/go-drift/motion/pkg/errors"
	"github.com/go-drift/motion/pkg/timing"
)

func init() {
	RegisterCommand(&Command{
		Name:  "play",
		Short: "Play a preset and trace style writes",
		Long: `Play an animation, stagger or sequence from a preset file against an
in-memory set of nodes, printing every style write as it is flushed.

Flags:
  --nodes SPEC       Comma-separated nodes as id.class.class (default: el)
  --interval D       Frame interval (default: 16.666ms)
  --timeout D        Stop after D even if still running (default: 30s)
  --metrics          Print runtime metrics when done

Examples:
  motion play presets.yaml fade-in --nodes a.card,b.card
  motion play presets.toml items --nodes item0,item1,item2 --metrics`,
		Usage: "motion play <preset> <name> [--nodes SPEC] [--interval D] [--timeout D] [--metrics]",
		Run:   runPlay,
	})
}

type playOptions struct {
	nodes    string
	interval time.Duration
	timeout  time.Duration
	metrics  bool
}

func parsePlayArgs(args []string) ([]string, playOptions, error) {
	opts := playOptions{interval: timing.DefaultFrameInterval, timeout: 30 * time.Second}
	positional := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")
		switch name {
		case "--metrics":
			opts.metrics = true
			continue
		case "--nodes", "--interval", "--timeout":
		default:
			positional = append(positional, arg)
			continue
		}
		if !hasValue {
			if i+1 >= len(args) {
				return nil, opts, fmt.Errorf("%s requires a value", name)
			}
			i++
			value = args[i]
		}
		switch name {
		case "--nodes":
			opts.nodes = value
		case "--interval", "--timeout":
			d, err := time.ParseDuration(value)
			if err != nil || d <= 0 {
				return nil, opts, fmt.Errorf("%s: invalid duration %q", name, value)
			}
			if name == "--interval" {
				opts.interval = d
			} else {
				opts.timeout = d
			}
		}
	}
	return positional, opts, nil
}

func runPlay(args []string) error {
	positional, opts, err := parsePlayArgs(args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return fmt.Errorf("preset and name are required\n\nUsage: motion play <preset> <name> [flags]")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return play(ctx, positional[0], positional[1], opts)
}

func play(ctx context.Context, presetPath, name string, opts playOptions) error {
	preset, err := config.Load(presetPath)
	if err != nil {
		return err
	}
	surface, err := parseNodes(opts.nodes)
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	cfg := animation.RuntimeConfig{FrameInterval: opts.interval, Logger: slog.Default()}
	if opts.metrics {
		reg = prometheus.NewRegistry()
		cfg.Registerer = reg
	}
	rt := animation.NewRuntime(surface, cfg)
	surface.onWrite = func(n *node, property, value string, removed bool) {
		at := rt.Pump.Now().Round(time.Millisecond)
		if removed {
			fmt.Fprintf(stdout, "%8v %s %s removed\n", at, n, property)
			return
		}
		fmt.Fprintf(stdout, "%8v %s %s: %s\n", at, n, property, value)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- rt.Run(ctx) }()

	var (
		pb      *playback
		setup   error
		done    bool
		failure error
	)
	ran := rt.Do(func() {
		builder := config.NewBuilder(preset, rt.Pump, rt.Processor,
			animation.WithLogger(slog.Default()),
			animation.WithMetrics(rt.Metrics))
		pb, setup = resolvePlayback(builder, preset, name)
		if setup != nil {
			cancel()
			return
		}
		pb.onDone(func(err error) {
			done, failure = true, err
			cancel()
		})
		fmt.Fprintf(stdout, "playing %s %q\n", pb.kind, pb.name)
		if !pb.start() {
			setup = fmt.Errorf("%s %q did not start", pb.kind, pb.name)
			cancel()
		}
	})

	err = <-runErr
	if !ran {
		return fmt.Errorf("runtime stopped before %q started: %w", name, err)
	}
	if setup != nil {
		return setup
	}
	if failure != nil {
		return failure
	}

	printSnapshot(surface)
	if reg != nil {
		printMetrics(reg)
	}
	if !done && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %q still running after %v (progress %.2f)", pb.kind, pb.name, opts.timeout, pb.progress())
	}
	return nil
}

func printSnapshot(surface *nodeSurface) {
	snap := surface.snapshot()
	for _, id := range surface.ids() {
		fmt.Fprintf(stdout, "#%s\n", id)
		for _, line := range snap[id] {
			fmt.Fprintf(stdout, "  %s\n", line)
		}
	}
}

func printMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		fmt.Fprintf(stderr, "metrics: %v\n", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			series := mf.GetName()
			if len(labels) > 0 {
				series += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(stdout, "%s %g\n", series, m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				fmt.Fprintf(stdout, "%s %g\n", series, m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				fmt.Fprintf(stdout, "%s count=%d sum=%g\n", series, m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum())
			}
		}
	}
}
