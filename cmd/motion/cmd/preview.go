package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/go-drift/motion/pkg/animation"
	"github.com/go-drift/motion/pkg/config"
	"github.com/go-drift/motion/pkg/errors"
)

func init() {
	RegisterCommand(&Command{
		Name:  "preview",
		Short: "Watch a preset play in the terminal",
		Long: `Play an animation, stagger or sequence in a full-screen terminal view
showing overall progress and the current style values of every node.

Keys:
  space      Pause or resume
  r          Restart
  c          Cancel
  q, Esc     Quit

Flags:
  --nodes SPEC       Comma-separated nodes as id.class.class (default: el)
  --interval D       Frame interval (default: 16.666ms)`,
		Usage: "motion preview <preset> <name> [--nodes SPEC] [--interval D]",
		Run:   runPreview,
	})
}

// view is what one render shows.
type view struct {
	title    string
	status   string
	progress float64
	paused   bool
	ids      []string
	props    map[string][]string
}

func runPreview(args []string) error {
	positional, opts, err := parsePlayArgs(args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return fmt.Errorf("preset and name are required\n\nUsage: motion preview <preset> <name> [flags]")
	}
	preset, err := config.Load(positional[0])
	if err != nil {
		return err
	}
	surface, err := parseNodes(opts.nodes)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return preview(ctx, screen, preset, positional[1], surface, opts.interval)
}

func preview(ctx context.Context, screen tcell.Screen, preset *config.Preset, name string, surface *nodeSurface, interval time.Duration) error {
	// Logs would tear the screen.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt := animation.NewRuntime(surface, animation.RuntimeConfig{FrameInterval: interval, Logger: quiet})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- rt.Run(ctx) }()

	var (
		pb     *playback
		setup  error
		paused bool
	)
	ran := rt.Do(func() {
		builder := config.NewBuilder(preset, rt.Pump, rt.Processor, animation.WithLogger(quiet))
		pb, setup = resolvePlayback(builder, preset, name)
		if setup != nil {
			cancel()
			return
		}
		var render func(time.Duration)
		render = func(time.Duration) {
			renderView(screen, view{
				title:    fmt.Sprintf("%s %q", pb.kind, pb.name),
				status:   pb.status(),
				progress: pb.progress(),
				paused:   paused,
				ids:      surface.ids(),
				props:    surface.snapshot(),
			})
			rt.Pump.ScheduleFrame(render)
		}
		rt.Pump.ScheduleFrame(render)
		pb.start()
	})
	if !ran || setup != nil {
		err := <-runErr
		if setup != nil {
			return setup
		}
		return fmt.Errorf("runtime stopped before %q started: %w", name, err)
	}

	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			if !rt.Pump.Post(func() {
				if handleKey(ev, pb, &paused) == actionQuit {
					pb.dispose()
					cancel()
				}
			}) {
				return
			}
		}
	}()

	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type keyAction int

const (
	actionNone keyAction = iota
	actionQuit
)

// handleKey applies one terminal event. It runs on the runtime loop.
func handleKey(ev tcell.Event, pb *playback, paused *bool) keyAction {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return actionNone
	}
	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return actionQuit
	case tcell.KeyRune:
	default:
		return actionNone
	}
	switch key.Rune() {
	case 'q':
		return actionQuit
	case ' ':
		if *paused {
			pb.resume()
		} else {
			pb.pause()
		}
		*paused = !*paused
	case 'r':
		pb.restart()
		*paused = false
	case 'c':
		pb.cancel()
		*paused = false
	}
	return actionNone
}

var (
	titleStyle  = tcell.StyleDefault.Bold(true)
	barStyle    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	pausedStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	idStyle     = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	helpStyle   = tcell.StyleDefault.Dim(true)
)

func renderView(screen tcell.Screen, v view) {
	screen.Clear()
	width, height := screen.Size()

	status := v.status
	if v.paused {
		status += " (paused)"
	}
	drawText(screen, 0, 0, titleStyle, "motion preview  "+v.title)
	drawText(screen, 0, 1, pausedStyle, status)

	barWidth := max(width-8, 10)
	filled := int(clamp01(v.progress) * float64(barWidth))
	bar := "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
	drawText(screen, 0, 2, barStyle, bar)
	drawText(screen, barWidth+3, 2, tcell.StyleDefault, fmt.Sprintf("%3.0f%%", clamp01(v.progress)*100))

	y := 4
	for _, id := range v.ids {
		if y >= height-2 {
			break
		}
		drawText(screen, 0, y, idStyle, "#"+id)
		drawText(screen, len(id)+3, y, tcell.StyleDefault, strings.Join(v.props[id], "  "))
		y++
	}

	drawText(screen, 0, height-1, helpStyle, "space pause/resume  r restart  c cancel  q quit")
	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
