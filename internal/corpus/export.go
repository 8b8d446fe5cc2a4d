package corpus

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/jobscout/internal/models"
)

// ExportSheet is the worksheet name written by ExportXLSX.
const ExportSheet = "Jobs"

// ExportXLSX writes every posting of s to a spreadsheet at path and returns the row count.
func ExportXLSX(ctx context.Context, s Store, path string) (int, error) {
	postings, err := s.ReadAll(ctx)
	if err != nil {
		return 0, err
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return 0, errors.Wrap(err, "failed to name sheet")
	}
	header := models.CSVHeader
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		return 0, errors.Wrap(err, "failed to write header")
	}
	for i, p := range postings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		row := p.Row()
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return 0, errors.Wrapf(err, "failed to write posting %s", p.ID)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return 0, errors.Wrapf(err, "failed to save %s", path)
	}
	return len(postings), nil
}
