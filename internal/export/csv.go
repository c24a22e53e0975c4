package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tally/internal/core"
)

var csvHeader = []string{
	"id", "date", "type", "amount", "description",
	"category_id", "account_id", "to_account_id", "tags",
}

// WriteTransactionsCSV writes the given transactions as CSV. Amounts are
// rendered in major units with two decimals so the file opens cleanly in
// spreadsheet tools.
func WriteTransactionsCSV(w io.Writer, txns []core.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, txn := range txns {
		record := []string{
			strconv.FormatInt(txn.ID, 10),
			txn.Date.ISO(),
			string(txn.Type),
			txn.Amount.Decimal(),
			txn.Description,
			formatOptionalID(txn.CategoryID),
			strconv.FormatInt(txn.AccountID, 10),
			formatOptionalID(txn.ToAccountID),
			strings.Join(txn.Tags, ";"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row for transaction %d: %w", txn.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatOptionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
