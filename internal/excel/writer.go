// Package excel renders the extracted frames into a single workbook, one
// sheet per source.
package excel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sheetflow/excel-etl/internal/table"
)

// Excel caps sheet names at 31 characters and forbids a handful of
// characters.
const maxSheetNameLen = 31

var sheetNameReplacer = strings.NewReplacer(
	":", "_",
	"\\", "_",
	"/", "_",
	"?", "_",
	"*", "_",
	"[", "_",
	"]", "_",
)

type Sheet struct {
	Name  string
	Table *table.Table
}

// WriteWorkbook writes one sheet per frame, header row first, and saves the
// workbook at path. The default placeholder sheet is dropped.
func WriteWorkbook(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	keepPlaceholder := false
	used := make(map[string]struct{}, len(sheets))

	for _, sh := range sheets {
		name := uniqueSheetName(SanitizeSheetName(sh.Name), used)
		used[name] = struct{}{}
		if name == "Sheet1" {
			keepPlaceholder = true
		}
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}

		header := make([]any, sh.Table.NumColumns())
		for i, c := range sh.Table.Columns() {
			header[i] = c
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return fmt.Errorf("write header of sheet %q: %w", name, err)
		}

		for i := 0; i < sh.Table.NumRows(); i++ {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return fmt.Errorf("cell name for row %d: %w", i, err)
			}

			row := sh.Table.Row(i)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return fmt.Errorf("write row %d of sheet %q: %w", i, name, err)
			}
		}
	}

	if !keepPlaceholder {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("drop placeholder sheet: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	return nil
}

// SanitizeSheetName maps a source name onto a legal Excel sheet name. The
// length cap counts runes, not bytes, so multibyte names are never cut
// mid-character.
func SanitizeSheetName(name string) string {
	name = sheetNameReplacer.Replace(name)
	if runes := []rune(name); len(runes) > maxSheetNameLen {
		name = string(runes[:maxSheetNameLen])
	}

	return name
}

// uniqueSheetName suffixes a sanitized name that collides with an already
// taken one, since two distinct source names can sanitize to the same sheet
// name. The suffix counts against the length cap.
func uniqueSheetName(name string, used map[string]struct{}) string {
	if _, taken := used[name]; !taken {
		return name
	}

	for n := 2; ; n++ {
		suffix := "_" + strconv.Itoa(n)
		base := []rune(name)
		if limit := maxSheetNameLen - len(suffix); len(base) > limit {
			base = base[:limit]
		}

		candidate := string(base) + suffix
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}
