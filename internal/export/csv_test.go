package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
)

func TestWriteTransactionsCSV(t *testing.T) {
	catID := int64(3)
	toAcc := int64(2)
	txns := []core.Transaction{
		{
			ID:          1,
			Type:        core.TypeExpense,
			Amount:      core.Money{Cents: 12345},
			Description: "Groceries, fresh",
			CategoryID:  &catID,
			AccountID:   1,
			Date:        core.NewDate(2026, 2, 14),
			Tags:        []string{"food", "weekly"},
		},
		{
			ID:        2,
			Type:      core.TypeTransfer,
			Amount:    core.Money{Cents: 50000},
			AccountID: 1,
			// destination account, no category on transfers
			ToAccountID: &toAcc,
			Date:        core.NewDate(2026, 2, 15),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, txns))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,date,type,amount,description,category_id,account_id,to_account_id,tags", lines[0])
	// The comma in the description forces quoting.
	assert.Equal(t, `1,2026-02-14,expense,123.45,"Groceries, fresh",3,1,,food;weekly`, lines[1])
	assert.Equal(t, `2,2026-02-15,transfer,500.00,,,1,2,`, lines[2])
}

func TestWriteTransactionsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "id,date,type")
}
