// Package workbook is the boundary to spreadsheet input. The pipeline
// only sees the Workbook interface; cell mechanics live behind it.
package workbook

// Workbook exposes cell values of one uploaded survey file.
// Cell returns the raw value at a reference like "C61" on the active
// sheet, or nil when the cell is empty.
type Workbook interface {
	Name() string
	Cell(ref string) (any, error)
}

// MapWorkbook is an in-memory Workbook keyed by cell reference.
// Cells absent from the map read as empty.
type MapWorkbook struct {
	FileName string
	Cells    map[string]any
}

// Name returns the simulated file name.
func (m *MapWorkbook) Name() string { return m.FileName }

// Cell returns the stored value for ref, nil if unset.
func (m *MapWorkbook) Cell(ref string) (any, error) {
	return m.Cells[ref], nil
}
