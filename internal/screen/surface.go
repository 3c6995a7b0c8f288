// Package screen provides the character-cell surfaces tasks draw on and the
// display/input contracts a terminal driver satisfies.
package screen

import "unicode/utf8"

// Center positions text in the middle of the surface along an axis.
const Center = -1

// Color is a 24-bit RGB colour.
type Color struct {
	R, G, B uint8
}

// Palette used by the tasks.
var (
	White = Color{255, 255, 255}
	Black = Color{0, 0, 0}
	Blue  = Color{0, 0, 255}
	Green = Color{0, 255, 0}
	Red   = Color{255, 0, 0}
)

// Cell is one character position.
type Cell struct {
	Rune rune
	FG   Color
	BG   Color
	Bold bool
}

// Style controls how text is drawn.
type Style struct {
	FG   Color
	Bold bool
}

// Plain is black regular text.
var Plain = Style{FG: Black}

// Surface is an off-screen grid of cells. The background surface a task
// receives and the frame pushed to the display are both Surfaces.
type Surface struct {
	width  int
	height int
	bg     Color
	cells  []Cell
}

// NewSurface allocates a surface filled with white.
func NewSurface(width, height int) *Surface {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	s := &Surface{width: width, height: height, cells: make([]Cell, width*height)}
	s.Fill(White)
	return s
}

// Size returns the surface dimensions in cells.
func (s *Surface) Size() (int, int) { return s.width, s.height }

// Background returns the current fill colour.
func (s *Surface) Background() Color { return s.bg }

// Fill clears every cell to the given background colour.
func (s *Surface) Fill(bg Color) {
	s.bg = bg
	for i := range s.cells {
		s.cells[i] = Cell{Rune: ' ', FG: Black, BG: bg}
	}
}

// At returns the cell at x, y. Out-of-range positions return a blank cell.
func (s *Surface) At(x, y int) Cell {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return Cell{Rune: ' ', BG: s.bg}
	}
	return s.cells[y*s.width+x]
}

func (s *Surface) set(x, y int, c Cell) {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return
	}
	s.cells[y*s.width+x] = c
}

// Text draws a single line. x and y are the top-left cell of the text, or
// Center to centre it along that axis. Text running off the edge is clipped.
func (s *Surface) Text(text string, x, y int, style Style) {
	n := utf8.RuneCountInString(text)
	if x == Center {
		x = (s.width - n) / 2
	}
	if y == Center {
		y = s.height / 2
	}
	i := 0
	for _, r := range text {
		s.set(x+i, y, Cell{Rune: r, FG: style.FG, BG: s.bg, Bold: style.Bold})
		i++
	}
}

// SpaceText draws the standard gate prompt.
func (s *Surface) SpaceText(x, y int) {
	s.Text("(Press space to continue)", x, y, Plain)
}

// Line returns the text content of row y with trailing blanks trimmed.
func (s *Surface) Line(y int) string {
	if y < 0 || y >= s.height {
		return ""
	}
	runes := make([]rune, s.width)
	last := -1
	for x := 0; x < s.width; x++ {
		r := s.cells[y*s.width+x].Rune
		if r == 0 {
			r = ' '
		}
		runes[x] = r
		if r != ' ' {
			last = x
		}
	}
	return string(runes[:last+1])
}

// Blit copies src onto s with its top-left corner at x, y.
func (s *Surface) Blit(src *Surface, x, y int) {
	for sy := 0; sy < src.height; sy++ {
		for sx := 0; sx < src.width; sx++ {
			s.set(x+sx, y+sy, src.cells[sy*src.width+sx])
		}
	}
}

// Clone returns an independent copy.
func (s *Surface) Clone() *Surface {
	dup := &Surface{width: s.width, height: s.height, bg: s.bg, cells: make([]Cell, len(s.cells))}
	copy(dup.cells, s.cells)
	return dup
}
