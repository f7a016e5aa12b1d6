package tabular

import (
	"fmt"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/extrame/xls"
)

// parseXLS reads the first sheet of a legacy BIFF workbook. The decoder
// panics on some corrupt inputs, so panics become parse errors.
func parseXLS(path string) (rows []Row, err error) {
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("%w: corrupt xls: %v", common.ErrParse, p)
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrParse, err)
	}
	if wb.NumSheets() == 0 {
		return nil, nil
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	var t table
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = row.Col(c)
		}
		t.add(cells)
	}
	return t.rows, nil
}
