package extract

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"
)

// extractExcel renders every sheet as tab-separated rows, skipping empty rows.
func extractExcel(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", errors.Wrap(err, "open spreadsheet")
	}
	defer f.Close()

	var lines []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", errors.Wrapf(err, "read sheet %q", sheet)
		}
		for _, row := range rows {
			if line := strings.TrimSpace(strings.Join(row, "\t")); line != "" {
				lines = append(lines, strings.Join(row, "\t"))
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
