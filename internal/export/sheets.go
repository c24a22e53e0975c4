package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tally/internal/config"
	"tally/internal/core"
)

// SheetsClient appends ledger transactions to a Google Sheet. The sheet is an
// append-only mirror for reporting; it is never read back.
type SheetsClient struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsClient creates a Sheets client from configuration. Requires a
// spreadsheet ID, a sheet name and service account credentials (inline JSON
// or a file path).
func NewSheetsClient(ctx context.Context, cfg *config.Config) (*SheetsClient, error) {
	spreadsheetID := strings.TrimSpace(cfg.GoogleSpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing Google spreadsheet ID")
	}
	sheetName := strings.TrimSpace(cfg.GoogleSheetName)
	if sheetName == "" {
		return nil, errors.New("missing Google sheet name")
	}

	var credentialsJSON []byte
	switch {
	case cfg.GoogleCredentialsJSON != "":
		credentialsJSON = []byte(cfg.GoogleCredentialsJSON)
	case cfg.GoogleCredentialsFile != "":
		data, err := os.ReadFile(cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsClient{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// AppendTransaction appends one transaction as a row.
func (c *SheetsClient) AppendTransaction(ctx context.Context, txn core.Transaction) error {
	row := []any{
		txn.ID,
		txn.Date.ISO(),
		string(txn.Type),
		txn.Amount.Decimal(),
		txn.Description,
		formatOptionalID(txn.CategoryID),
		txn.AccountID,
		formatOptionalID(txn.ToAccountID),
		strings.Join(txn.Tags, ";"),
	}

	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.sheetName+"!A:I", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append transaction %d to sheet: %w", txn.ID, err)
	}
	return nil
}
