package tabular

import (
	"fmt"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/xuri/excelize/v2"
)

// parseXLSX reads the first sheet.
func parseXLSX(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrParse, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrParse, err)
	}
	defer rows.Close()

	var t table
	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrParse, err)
		}
		t.add(cells)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrParse, err)
	}
	return t.rows, nil
}
