package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel reads sampling-result workbooks. Each sheet starts with a "[Sheet: name]"
// line, followed by one tab-separated line per non-empty row.
func extractExcel(_ context.Context, content []byte) (string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var b strings.Builder
	var errs []error
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			errs = append(errs, fmt.Errorf("sheet %s: %w", sheet, err))
			continue
		}
		wrote := false
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t ")
			if line == "" {
				continue
			}
			if !wrote {
				fmt.Fprintf(&b, "[Sheet: %s]\n", sheet)
				wrote = true
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if b.Len() == 0 && len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return b.String(), nil
}
