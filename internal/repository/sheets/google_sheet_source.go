package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/bookway/stocktake/internal/config"
)

// RowSource supplies raw catalog rows (row 0 = header) from a spreadsheet
// that lives in Google Sheets instead of a local xlsx file.
type RowSource interface {
	ReadRows(ctx context.Context, sheetRange string) ([][]string, error)
}

// GoogleSheetSource implements RowSource using the official Google Sheets API.
type GoogleSheetSource struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetSource builds a Google Sheets backed row source.
func NewGoogleSheetSource(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (RowSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetSource{
		service:       service,
		spreadsheetID: cfg.SourceID,
		logger:        logger,
	}, nil
}

// ReadRows fetches a rectangular data range and flattens every cell to its
// string form, matching what the xlsx reader produces.
func (s *GoogleSheetSource) ReadRows(ctx context.Context, sheetRange string) ([][]string, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}

	s.logger.Debug("rows fetched from sheet", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return rows, nil
}
