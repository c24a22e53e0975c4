package core

import "testing"

func TestEffects(t *testing.T) {
	cases := []struct {
		name      string
		txn       Transaction
		direction int64
		want      map[int64]int64
	}{
		{
			name:      "income applies credit",
			txn:       Transaction{Type: TypeIncome, Amount: Money{Cents: 100000}, AccountID: 1},
			direction: 1,
			want:      map[int64]int64{1: 100000},
		},
		{
			name:      "expense applies debit",
			txn:       Transaction{Type: TypeExpense, Amount: Money{Cents: 50000}, AccountID: 1},
			direction: 1,
			want:      map[int64]int64{1: -50000},
		},
		{
			name:      "transfer moves between accounts",
			txn:       Transaction{Type: TypeTransfer, Amount: Money{Cents: 30000}, AccountID: 1, ToAccountID: int64p(2)},
			direction: 1,
			want:      map[int64]int64{1: -30000, 2: 30000},
		},
		{
			name:      "reversal flips every leg",
			txn:       Transaction{Type: TypeTransfer, Amount: Money{Cents: 30000}, AccountID: 1, ToAccountID: int64p(2)},
			direction: -1,
			want:      map[int64]int64{1: 30000, 2: -30000},
		},
		{
			name:      "legacy transfer without destination only debits",
			txn:       Transaction{Type: TypeTransfer, Amount: Money{Cents: 1000}, AccountID: 1},
			direction: 1,
			want:      map[int64]int64{1: -1000},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := map[int64]int64{}
			for _, ef := range tc.txn.Effects(tc.direction) {
				got[ef.AccountID] += ef.Delta
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for id, delta := range tc.want {
				if got[id] != delta {
					t.Fatalf("account %d: got %d, want %d", id, got[id], delta)
				}
			}
		})
	}
}

func TestEffectsReversalCancels(t *testing.T) {
	txn := Transaction{Type: TypeTransfer, Amount: Money{Cents: 4200}, AccountID: 7, ToAccountID: int64p(9)}
	sums := map[int64]int64{}
	for _, ef := range txn.Effects(1) {
		sums[ef.AccountID] += ef.Delta
	}
	for _, ef := range txn.Effects(-1) {
		sums[ef.AccountID] += ef.Delta
	}
	for id, sum := range sums {
		if sum != 0 {
			t.Fatalf("account %d: apply+reverse left residue %d", id, sum)
		}
	}
}
