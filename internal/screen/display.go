package screen

// Key is a keyboard key as seen by the tasks. Drivers map their native
// events onto this small set; everything else arrives as KeyOther.
type Key int

const (
	KeyOther Key = iota
	KeyLeft
	KeyRight
	KeySpace
	KeyEscape
	// KeyAbort is the global emergency-stop hotkey (F12).
	KeyAbort
)

func (k Key) String() string {
	switch k {
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeySpace:
		return "space"
	case KeyEscape:
		return "escape"
	case KeyAbort:
		return "abort"
	default:
		return "other"
	}
}

// Display is the presentation side of a terminal driver. A frame is built by
// blitting a surface and made visible with Flip.
type Display interface {
	Size() (int, int)
	Blit(frame *Surface)
	Flip()
}

// Input is the process-wide key queue. Poll never blocks; it reports false
// when the queue is empty. Clear discards everything queued so far.
type Input interface {
	Poll() (Key, bool)
	Clear()
}

// Device is a driver providing both halves.
type Device interface {
	Display
	Input
}
