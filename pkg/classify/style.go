package classify

// Palette holds the colors used to draw one category.
type Palette struct {
	Fill   string // background, hex
	Border string // outline, hex
	ANSI   string // terminal color for lipgloss
}

var palettes = map[Category]Palette{
	EntryPoint:  {Fill: "#d8ecff", Border: "#1f6feb", ANSI: "33"},
	HighError:   {Fill: "#ffdada", Border: "#cf222e", ANSI: "196"},
	HighLatency: {Fill: "#fff1c2", Border: "#bf8700", ANSI: "214"},
	Default:     {Fill: "#f3f4f6", Border: "#6e7781", ANSI: "245"},
}

// Style returns the palette for c.
func (c Category) Style() Palette {
	if p, ok := palettes[c]; ok {
		return p
	}
	return palettes[Default]
}
