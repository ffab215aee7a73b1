package cmd

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(60, 12)
	t.Cleanup(screen.Fini)
	return screen
}

// screenRows returns the screen text, one string per row.
func screenRows(screen tcell.SimulationScreen) []string {
	cells, width, height := screen.GetContents()
	rows := make([]string, height)
	for y := range height {
		var b strings.Builder
		for x := range width {
			cell := cells[y*width+x]
			if len(cell.Runes) == 0 {
				b.WriteByte(' ')
				continue
			}
			b.WriteRune(cell.Runes[0])
		}
		rows[y] = strings.TrimRight(b.String(), " ")
	}
	return rows
}

func TestRenderView(t *testing.T) {
	screen := newSimScreen(t)
	renderView(screen, view{
		title:    `animation "grow"`,
		status:   "running",
		progress: 0.5,
		paused:   true,
		ids:      []string{"box", "other"},
		props:    map[string][]string{"box": {"opacity: 1", "width: 50px"}},
	})

	rows := screenRows(screen)
	assert.Equal(t, `motion preview  animation "grow"`, rows[0])
	assert.Equal(t, "running (paused)", rows[1])
	assert.True(t, strings.HasPrefix(rows[2], "["+strings.Repeat("#", 26)+"."), rows[2])
	assert.True(t, strings.HasSuffix(rows[2], " 50%"), rows[2])
	assert.Equal(t, "#box  opacity: 1  width: 50px", rows[4])
	assert.Equal(t, "#other", rows[5])
	assert.Contains(t, rows[11], "q quit")
}

func TestRenderViewClampsProgress(t *testing.T) {
	screen := newSimScreen(t)
	renderView(screen, view{title: "x", status: "completed", progress: 1.3})

	rows := screenRows(screen)
	assert.Equal(t, "["+strings.Repeat("#", 52)+"] 100%", rows[2])
}

type recordingPlayback struct {
	calls []string
}

func (r *recordingPlayback) playback() *playback {
	record := func(name string) func() { return func() { r.calls = append(r.calls, name) } }
	return &playback{
		kind:    "animation",
		name:    "grow",
		pause:   record("pause"),
		resume:  record("resume"),
		cancel:  record("cancel"),
		dispose: record("dispose"),
		restart: func() bool { r.calls = append(r.calls, "restart"); return true },
	}
}

func TestHandleKey(t *testing.T) {
	screen := newSimScreen(t)
	rec := &recordingPlayback{}
	pb := rec.playback()
	paused := false

	press := func(key tcell.Key, r rune) keyAction {
		screen.InjectKey(key, r, tcell.ModNone)
		for {
			ev := screen.PollEvent()
			require.NotNil(t, ev)
			// Skip resize events from setup.
			if key, ok := ev.(*tcell.EventKey); ok {
				return handleKey(key, pb, &paused)
			}
		}
	}

	assert.Equal(t, actionNone, press(tcell.KeyRune, ' '))
	assert.True(t, paused)
	assert.Equal(t, actionNone, press(tcell.KeyRune, ' '))
	assert.False(t, paused)
	press(tcell.KeyRune, ' ')
	assert.Equal(t, actionNone, press(tcell.KeyRune, 'r'))
	assert.False(t, paused)
	press(tcell.KeyRune, 'c')
	press(tcell.KeyRune, 'x')
	press(tcell.KeyEnter, 0)

	assert.Equal(t, []string{"pause", "resume", "pause", "restart", "cancel"}, rec.calls)

	assert.Equal(t, actionQuit, press(tcell.KeyRune, 'q'))
	assert.Equal(t, actionQuit, press(tcell.KeyEscape, 0))
	assert.Equal(t, actionQuit, press(tcell.KeyCtrlC, 0))
}
