// Package scenario loads hand-drawn liquid layouts from YAML.
//
// A layout is an ASCII picture, one character per cell:
//
//	#  solid wall
//	.  empty blank cell (a space works too)
//	~  blank cell holding one full unit of liquid
//	o  blank cell holding half a unit
//
// The outermost ring is always built Solid, whatever the picture says.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mad-liquid/internal/liquid"
)

var (
	// ErrEmptyLayout is returned when a scenario has no layout rows.
	ErrEmptyLayout = errors.New("scenario: empty layout")
	// ErrRagged is returned when layout rows differ in length.
	ErrRagged = errors.New("scenario: layout rows differ in length")
	// ErrTooSmall is returned for layouts without an interior cell.
	ErrTooSmall = errors.New("scenario: layout must be at least 3x3")
)

// Source pours liquid into one cell on a fixed cadence.
type Source struct {
	X      int     `yaml:"x"`
	Y      int     `yaml:"y"`
	Amount float32 `yaml:"amount"`
	// Every pours on ticks divisible by Every; values below 1 mean every tick.
	Every int `yaml:"every"`
	// Until stops the source at this tick; 0 keeps it running forever.
	Until int `yaml:"until"`
}

// Active reports whether the source pours on tick.
func (s Source) Active(tick int) bool {
	if s.Until > 0 && tick >= s.Until {
		return false
	}
	every := s.Every
	if every < 1 {
		every = 1
	}
	return tick%every == 0
}

// Scenario is a layout plus the sources feeding it.
type Scenario struct {
	Name    string   `yaml:"name"`
	Ticks   int      `yaml:"ticks"`
	Layout  string   `yaml:"layout"`
	Sources []Source `yaml:"sources"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes a scenario and validates its layout and sources.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scenario) rows() []string {
	text := strings.Trim(s.Layout, "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	rows := strings.Split(text, "\n")
	for i, r := range rows {
		rows[i] = strings.TrimRight(r, "\r")
	}
	return rows
}

// Size returns the layout dimensions.
func (s *Scenario) Size() (int, int) {
	rows := s.rows()
	if len(rows) == 0 {
		return 0, 0
	}
	return len(rows[0]), len(rows)
}

// Validate checks the layout shape, the cell alphabet, and source positions.
func (s *Scenario) Validate() error {
	rows := s.rows()
	if len(rows) == 0 {
		return ErrEmptyLayout
	}
	w := len(rows[0])
	for y, r := range rows {
		if len(r) != w {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrRagged, y, len(r), w)
		}
		for x, ch := range []byte(r) {
			if _, _, ok := decodeCell(ch); !ok {
				return fmt.Errorf("scenario: unknown cell %q at (%d,%d)", ch, x, y)
			}
		}
	}
	if w < 3 || len(rows) < 3 {
		return ErrTooSmall
	}
	for i, src := range s.Sources {
		if src.X <= 0 || src.Y <= 0 || src.X >= w-1 || src.Y >= len(rows)-1 {
			return fmt.Errorf("scenario: source %d at (%d,%d) is outside the interior", i, src.X, src.Y)
		}
		if src.Amount <= 0 {
			return fmt.Errorf("scenario: source %d has non-positive amount %v", i, src.Amount)
		}
	}
	if s.Ticks < 0 {
		return fmt.Errorf("scenario: negative ticks %d", s.Ticks)
	}
	return nil
}

func decodeCell(ch byte) (liquid.CellType, float32, bool) {
	switch ch {
	case '#':
		return liquid.Solid, 0, true
	case '.', ' ':
		return liquid.Blank, 0, true
	case '~':
		return liquid.Blank, 1, true
	case 'o':
		return liquid.Blank, 0.5, true
	default:
		return liquid.Blank, 0, false
	}
}

// Build returns a fresh grid drawn from the layout.
func (s *Scenario) Build() (*liquid.Grid, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	rows := s.rows()
	g := liquid.NewGrid(len(rows[0]), len(rows))
	for y, r := range rows {
		for x, ch := range []byte(r) {
			if g.OnBorder(x, y) {
				continue
			}
			t, amount, _ := decodeCell(ch)
			if t == liquid.Solid {
				g.SetCellType(x, y, liquid.Solid)
				continue
			}
			if amount > 0 {
				g.AddLiquid(x, y, amount)
			}
		}
	}
	return g, nil
}

// Pour applies every source active on tick and returns the volume added.
// Sources buried under a wall pour nothing.
func (s *Scenario) Pour(g *liquid.Grid, tick int) float64 {
	var added float64
	for _, src := range s.Sources {
		if !src.Active(tick) {
			continue
		}
		c := g.At(src.X, src.Y)
		if c == nil || c.Type != liquid.Blank {
			continue
		}
		g.AddLiquid(src.X, src.Y, src.Amount)
		added += float64(src.Amount)
	}
	return added
}
