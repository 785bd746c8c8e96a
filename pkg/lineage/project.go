package lineage

// DisplayTableType is the node type the diagram renderer expects.
const DisplayTableType = "displayTable"

// Position is a node's top-left corner in diagram coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DisplayColumn is one column row inside a display table.
type DisplayColumn struct {
	Name     string `json:"name"`
	ColumnID string `json:"columnId"`
}

// DisplayData is the payload of a display table.
type DisplayData struct {
	TableName string          `json:"tableName"`
	Columns   []DisplayColumn `json:"columns"`
}

// DisplayTable is a table node with its columns nested, ready for layout.
type DisplayTable struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Data     DisplayData `json:"data"`
	Position Position    `json:"position"`
}

// FlowEdge is a column connector between two display tables.
type FlowEdge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
}

// DisplayTables projects every table-level node with its columns. Positions
// are left at the origin for the layout engine to fill in. The condition
// pseudo-column is not shown.
func DisplayTables(g *Graph) []DisplayTable {
	cols := make(map[string][]DisplayColumn)
	for _, n := range g.Nodes {
		if n.Type != KindColumn || n.Name == ConditionColumn {
			continue
		}
		cols[n.TableID] = append(cols[n.TableID], DisplayColumn{Name: n.Name, ColumnID: n.ID})
	}

	tables := make([]DisplayTable, 0, len(g.TableNodes))
	for _, n := range g.Tables() {
		columns := cols[n.ID]
		if columns == nil {
			columns = []DisplayColumn{}
		}
		tables = append(tables, DisplayTable{
			ID:   n.ID,
			Type: DisplayTableType,
			Data: DisplayData{TableName: n.Name, Columns: columns},
		})
	}
	return tables
}

// FlowEdges projects the column mapping edges that carry both handles.
func FlowEdges(g *Graph) []FlowEdge {
	edges := []FlowEdge{}
	for _, e := range g.Edges {
		if e.Type != EdgeColumnMapping || !e.HasHandles() {
			continue
		}
		edges = append(edges, FlowEdge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
		})
	}
	return edges
}
