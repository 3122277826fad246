package api

import (
	"context"
	"time"
)

// Balance is the wallet's current token holding.
type Balance struct {
	Tokens int64 `json:"tokens"`
}

// CanAfford reports whether the balance covers cost. The booking flow
// checks this before submitting so the user sees the shortfall up front;
// the backend still enforces it.
func (b Balance) CanAfford(cost int64) bool {
	return cost >= 0 && b.Tokens >= cost
}

// TransactionKind labels a wallet ledger entry.
type TransactionKind string

const (
	TransactionPurchase TransactionKind = "purchase"
	TransactionSpend    TransactionKind = "spend"
	TransactionRefund   TransactionKind = "refund"
)

// Transaction is one wallet ledger entry. Amount is positive for credits
// and negative for debits.
type Transaction struct {
	ID        int64           `json:"id"`
	Kind      TransactionKind `json:"kind"`
	Amount    int64           `json:"amount"`
	Memo      string          `json:"memo"`
	CreatedAt time.Time       `json:"created_at"`
}

// WalletBalance fetches the current token balance.
func (c *Client) WalletBalance(ctx context.Context) (Balance, error) {
	var b Balance
	if err := c.get(ctx, "/wallet/balance/", nil, &b); err != nil {
		return Balance{}, err
	}
	return b, nil
}

// WalletTransactions lists the wallet ledger, newest first.
func (c *Client) WalletTransactions(ctx context.Context, opts ListOptions) ([]Transaction, error) {
	var p page[Transaction]
	if err := c.get(ctx, "/wallet/transactions/", opts.values(), &p); err != nil {
		return nil, err
	}
	return p.Results, nil
}

// PurchaseTokens buys a token pack through the backend's payment gateway
// and returns the post-purchase balance.
func (c *Client) PurchaseTokens(ctx context.Context, packID string) (Balance, error) {
	if packID == "" {
		return Balance{}, fieldErrors{"pack_id": "must not be empty"}.err()
	}
	var b Balance
	in := map[string]string{"pack_id": packID}
	if err := c.post(ctx, "/wallet/purchase/", in, &b); err != nil {
		return Balance{}, err
	}
	return b, nil
}
