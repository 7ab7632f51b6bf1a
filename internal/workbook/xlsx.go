package workbook

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// XLSX reads cells from the active sheet of an .xlsx survey template.
type XLSX struct {
	name  string
	sheet string
	file  *excelize.File
}

// OpenXLSX opens the workbook at path. The survey template keeps all
// mapped cells on the first sheet.
func OpenXLSX(path string) (*XLSX, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}
	return &XLSX{name: filepath.Base(path), sheet: sheets[0], file: f}, nil
}

// Name returns the workbook file name for error reporting.
func (x *XLSX) Name() string { return x.name }

// Cell returns the calculated cell value as a string, nil when empty.
// Type coercion happens downstream in the extractor; the raw string is
// enough because the caster parses numerics from text.
func (x *XLSX) Cell(ref string) (any, error) {
	v, err := x.file.GetCellValue(x.sheet, ref)
	if err != nil {
		return nil, fmt.Errorf("read cell %s: %w", ref, err)
	}
	if v == "" {
		return nil, nil
	}
	return v, nil
}

// Close releases the underlying file.
func (x *XLSX) Close() error { return x.file.Close() }
