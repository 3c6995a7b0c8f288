package sternberg

import "cogbattery/internal/screen"

const (
	practiceReadyText = "We will begin with some practice trials..."
	mainReadyText     = "We will now begin the main trials..."
	endText           = "End of task"
	probeWarningText  = "Was the following number in the original sequence?"
)

var instructionLines = []struct {
	text string
	row  int
}{
	{"You will see a sequence of numbers. Try your best to memorize them", 2},
	{"You will then be shown a single test number", 4},
	{"If this number was in the original sequence, press the LEFT arrow", 8},
	{"If this number was NOT in the original sequence, press the RIGHT arrow", 10},
	{"Try to do this as quickly, and as accurately, as possible", 12},
}

var (
	stimulusStyle = screen.Style{FG: screen.Black, Bold: true}
	probeStyle    = screen.Style{FG: screen.Blue, Bold: true}
)

func drawInstructions(f *screen.Surface) {
	_, h := f.Size()
	for _, line := range instructionLines {
		f.Text(line.text, 4, line.row, screen.Plain)
	}
	f.SpaceText(screen.Center, h-3)
}

func drawReady(text string) func(*screen.Surface) {
	return func(f *screen.Surface) {
		_, h := f.Size()
		f.Text(text, screen.Center, screen.Center, screen.Plain)
		f.SpaceText(screen.Center, h/2+4)
	}
}

func drawStimulus(digit string) func(*screen.Surface) {
	return func(f *screen.Surface) {
		f.Text(digit, screen.Center, screen.Center, stimulusStyle)
	}
}

func drawProbeWarning(f *screen.Surface) {
	f.Text(probeWarningText, screen.Center, screen.Center, screen.Plain)
}

func drawProbe(probe string) func(*screen.Surface) {
	return func(f *screen.Surface) {
		w, h := f.Size()
		f.Text(probe, screen.Center, screen.Center, probeStyle)
		row := h/2 + h/4
		f.Text("(yes)", w/6, row, screen.Plain)
		f.Text("(no)", w-w/6-4, row, screen.Plain)
	}
}

func drawFeedback(correct bool) func(*screen.Surface) {
	return func(f *screen.Surface) {
		if correct {
			f.Text("correct", screen.Center, screen.Center, screen.Style{FG: screen.Green})
			return
		}
		f.Text("incorrect", screen.Center, screen.Center, screen.Style{FG: screen.Red})
	}
}
