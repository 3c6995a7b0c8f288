// Package enginetest provides a fake clock and a scripted keyboard/display
// for driving tasks in tests without a terminal.
package enginetest

import (
	"sort"
	"strings"
	"time"

	"cogbattery/internal/screen"
)

// Epoch is the fake clock's starting instant.
var Epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// Clock is a fake clock that only advances when Sleep is called.
type Clock struct {
	now time.Time
}

// NewClock starts a fake clock at Epoch.
func NewClock() *Clock { return &Clock{now: Epoch} }

func (c *Clock) Now() time.Time        { return c.now }
func (c *Clock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

// Since returns fake time elapsed since Epoch.
func (c *Clock) Since() time.Duration { return c.now.Sub(Epoch) }

// KeyPress is a key that becomes available at a point on the fake timeline.
type KeyPress struct {
	At  time.Duration
	Key screen.Key
}

// Device is a scripted screen.Device. Keys are delivered once the fake clock
// reaches their time; Clear drops everything already delivered. Every flipped
// frame is retained, and OnFlip, when set, sees each frame's text so a test
// can script responses to what is on screen.
type Device struct {
	OnFlip func(text string)

	clock   *Clock
	width   int
	height  int
	script  []KeyPress
	pending *screen.Surface
	Frames  []*screen.Surface
	Caption string
}

// NewDevice builds a device of the given size over clock.
func NewDevice(clock *Clock, width, height int) *Device {
	return &Device{clock: clock, width: width, height: height}
}

// Script appends key presses; they are kept ordered by time.
func (d *Device) Script(presses ...KeyPress) {
	d.script = append(d.script, presses...)
	sort.SliceStable(d.script, func(i, j int) bool { return d.script[i].At < d.script[j].At })
}

// Press schedules key at the current fake time plus offset.
func (d *Device) Press(offset time.Duration, key screen.Key) {
	d.Script(KeyPress{At: d.clock.Since() + offset, Key: key})
}

func (d *Device) Size() (int, int) { return d.width, d.height }

func (d *Device) Blit(frame *screen.Surface) { d.pending = frame.Clone() }

func (d *Device) Flip() {
	if d.pending == nil {
		return
	}
	d.Frames = append(d.Frames, d.pending)
	if d.OnFlip != nil {
		d.OnFlip(FrameText(d.pending))
	}
}

func (d *Device) SetCaption(title string) { d.Caption = title }

func (d *Device) Poll() (screen.Key, bool) {
	if len(d.script) == 0 || d.script[0].At > d.clock.Since() {
		return screen.KeyOther, false
	}
	k := d.script[0].Key
	d.script = d.script[1:]
	return k, true
}

func (d *Device) Clear() {
	for len(d.script) > 0 && d.script[0].At <= d.clock.Since() {
		d.script = d.script[1:]
	}
}

// Remaining reports how many scripted keys are still undelivered.
func (d *Device) Remaining() int { return len(d.script) }

// Screens returns the text of each flipped frame, lines joined by "|" and
// blank lines dropped, which keeps screen-sequence assertions compact.
func (d *Device) Screens() []string {
	out := make([]string, 0, len(d.Frames))
	for _, f := range d.Frames {
		out = append(out, FrameText(f))
	}
	return out
}

// FrameText flattens a surface into its non-blank lines joined by "|".
func FrameText(f *screen.Surface) string {
	_, h := f.Size()
	var lines []string
	for y := 0; y < h; y++ {
		if line := strings.TrimLeft(f.Line(y), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "|")
}
