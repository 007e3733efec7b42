package graph

// Grid spacing for initial node placement. Positions carry no meaning beyond
// presentation; they only need to be finite and not pile up on one point.
const (
	GridOriginX     = 100.0
	GridOriginY     = 100.0
	GridColumnWidth = 250.0
	GridRowHeight   = 120.0
)

// GridPosition returns the position of a grid cell: one column per service,
// one row per method.
func GridPosition(column, row int) Position {
	return Position{
		X: GridOriginX + float64(column)*GridColumnWidth,
		Y: GridOriginY + float64(row)*GridRowHeight,
	}
}

// Arrange resets every node's position to the service grid, with services
// as columns in first-seen order and methods as rows in insertion order.
func (g *Graph) Arrange() {
	column := make(map[string]int)
	rows := make(map[string]int)
	for _, n := range g.nodes {
		c, ok := column[n.Service]
		if !ok {
			c = len(column)
			column[n.Service] = c
		}
		n.Position = GridPosition(c, rows[n.Service])
		rows[n.Service]++
	}
}

// nextPosition places a new node one row below the lowest existing node, in
// the first column.
func (g *Graph) nextPosition() Position {
	if len(g.nodes) == 0 {
		return GridPosition(0, 0)
	}
	maxY := g.nodes[0].Position.Y
	for _, n := range g.nodes[1:] {
		maxY = max(maxY, n.Position.Y)
	}
	return Position{X: GridOriginX, Y: maxY + GridRowHeight}
}
