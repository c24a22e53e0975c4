package core

// Effect is one account's share of a transaction's balance change, expressed
// as a signed delta in minor units.
type Effect struct {
	AccountID int64
	Delta     int64
}

// Effects returns the signed balance deltas a transaction contributes to its
// accounts. direction is +1 to apply the transaction and -1 to reverse a
// previously applied one; every mutation path in the ledger goes through the
// same computation so the denormalized balances never drift from the sum of
// applied effects.
//
// A transfer missing its destination contributes only the debit leg. New
// transfers are rejected without a destination at validation time, but rows
// written before that rule must still reverse exactly what they applied.
func (t Transaction) Effects(direction int64) []Effect {
	delta := t.Amount.Cents * direction
	switch t.Type {
	case TypeIncome:
		return []Effect{{AccountID: t.AccountID, Delta: delta}}
	case TypeExpense:
		return []Effect{{AccountID: t.AccountID, Delta: -delta}}
	case TypeTransfer:
		effects := []Effect{{AccountID: t.AccountID, Delta: -delta}}
		if t.ToAccountID != nil {
			effects = append(effects, Effect{AccountID: *t.ToAccountID, Delta: delta})
		}
		return effects
	}
	return nil
}
