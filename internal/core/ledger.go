package core

// Effect is a signed change to one account's balance.
type Effect struct {
	AccountID int64
	Delta     Money
}

// Delta is the effect on the source account: income credits it, expenses
// and outgoing transfers debit it.
func (t Transaction) Delta() Money {
	if t.Type == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Effects lists every balance change the transaction causes. A transfer
// has two legs: the source is debited and the destination credited.
func (t Transaction) Effects() []Effect {
	effects := []Effect{{AccountID: t.AccountID, Delta: t.Delta()}}
	if t.Type == Transfer && t.TransferAccountID != nil {
		effects = append(effects, Effect{AccountID: *t.TransferAccountID, Delta: t.Amount})
	}
	return effects
}

// ReverseEffects negates effects so applying both leaves balances unchanged.
func ReverseEffects(effects []Effect) []Effect {
	out := make([]Effect, len(effects))
	for i, e := range effects {
		out[i] = Effect{AccountID: e.AccountID, Delta: e.Delta.Neg()}
	}
	return out
}

// MergeEffects sums effects per account, keeping first-seen order and
// dropping accounts whose net change is zero. An update that reverses and
// reapplies on the same account collapses into a single adjustment.
func MergeEffects(groups ...[]Effect) []Effect {
	var order []int64
	sums := make(map[int64]Money)
	for _, group := range groups {
		for _, e := range group {
			if _, seen := sums[e.AccountID]; !seen {
				order = append(order, e.AccountID)
			}
			sums[e.AccountID] = sums[e.AccountID].Add(e.Delta)
		}
	}
	var out []Effect
	for _, id := range order {
		if d := sums[id]; !d.IsZero() {
			out = append(out, Effect{AccountID: id, Delta: d})
		}
	}
	return out
}
