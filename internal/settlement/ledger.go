// Package settlement keeps trader balances for the exchange and implements
// the engine's settlement collaborator in memory.
package settlement

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/matching"
)

var (
	ErrInvalidAmount   = errors.New("settlement: amount must be positive")
	ErrWithdrawBlocked = errors.New("settlement: asset cannot be withdrawn while its pair is trading")
	ErrTransferBlocked = errors.New("settlement: asset transfers are restricted")
)

// AssetGuard tells the ledger whether funds may leave an account.
type AssetGuard interface {
	CanWithdraw(asset string) bool
	CanTransfer(asset string) bool
}

// Balance is one trader's holding of one asset.
type Balance struct {
	Available decimal.Decimal `json:"available"`
	Reserved  decimal.Decimal `json:"reserved"`
}

// Total is available plus reserved.
func (b Balance) Total() decimal.Decimal { return b.Available.Add(b.Reserved) }

// Ledger is an in-memory balance book safe for concurrent use.
type Ledger struct {
	mu         sync.Mutex
	accounts   map[string]map[string]*Balance
	feeAccount string
	guard      AssetGuard
}

var _ matching.Settlement = (*Ledger)(nil)

// NewLedger returns an empty ledger crediting fees to feeAccount.
func NewLedger(feeAccount string) *Ledger {
	return &Ledger{
		accounts:   make(map[string]map[string]*Balance),
		feeAccount: feeAccount,
	}
}

// SetGuard installs the withdraw/transfer guard. Without one every asset is
// free to move.
func (l *Ledger) SetGuard(g AssetGuard) {
	l.mu.Lock()
	l.guard = g
	l.mu.Unlock()
}

// FeeAccount is the account collected fees are credited to.
func (l *Ledger) FeeAccount() string { return l.feeAccount }

func (l *Ledger) balance(trader, asset string) *Balance {
	acct, ok := l.accounts[trader]
	if !ok {
		acct = make(map[string]*Balance)
		l.accounts[trader] = acct
	}
	b, ok := acct[asset]
	if !ok {
		b = &Balance{Available: decimal.Zero, Reserved: decimal.Zero}
		acct[asset] = b
	}
	return b
}

func (l *Ledger) currentGuard() AssetGuard {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.guard
}

// Balance returns a trader's balance of asset.
func (l *Ledger) Balance(trader, asset string) Balance {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.balance(trader, asset)
}

// Balances returns every asset a trader holds, by symbol.
func (l *Ledger) Balances(trader string) map[string]Balance {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]Balance, len(l.accounts[trader]))
	for asset, b := range l.accounts[trader] {
		out[asset] = *b
	}
	return out
}

// Assets lists the symbols a trader has ever held, sorted.
func (l *Ledger) Assets(trader string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.accounts[trader]))
	for asset := range l.accounts[trader] {
		out = append(out, asset)
	}
	sort.Strings(out)
	return out
}

// Deposit credits amount to the trader's available balance.
func (l *Ledger) Deposit(_ context.Context, trader, asset string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.balance(trader, asset)
	b.Available = b.Available.Add(amount)
	return nil
}

// Withdraw debits available funds once the guard allows the asset to leave.
func (l *Ledger) Withdraw(_ context.Context, trader, asset string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if g := l.currentGuard(); g != nil && !g.CanWithdraw(asset) {
		return errors.Wrapf(ErrWithdrawBlocked, "%s", asset)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.balance(trader, asset)
	if b.Available.LessThan(amount) {
		return errors.Wrapf(matching.ErrInsufficientFunds, "withdraw %s %s, available %s", amount, asset, b.Available)
	}
	b.Available = b.Available.Sub(amount)
	return nil
}

// Transfer moves available funds between two accounts.
func (l *Ledger) Transfer(_ context.Context, from, to, asset string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if g := l.currentGuard(); g != nil && !g.CanTransfer(asset) {
		return errors.Wrapf(ErrTransferBlocked, "%s", asset)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	src := l.balance(from, asset)
	if src.Available.LessThan(amount) {
		return errors.Wrapf(matching.ErrInsufficientFunds, "transfer %s %s, available %s", amount, asset, src.Available)
	}
	dst := l.balance(to, asset)
	src.Available = src.Available.Sub(amount)
	dst.Available = dst.Available.Add(amount)
	return nil
}

func (l *Ledger) Reserve(_ context.Context, trader, asset string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.balance(trader, asset)
	if b.Available.LessThan(amount) {
		return errors.Wrapf(matching.ErrInsufficientFunds, "need %s %s, available %s", amount, asset, b.Available)
	}
	b.Available = b.Available.Sub(amount)
	b.Reserved = b.Reserved.Add(amount)
	return nil
}

func (l *Ledger) Release(_ context.Context, trader, asset string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.balance(trader, asset)
	if b.Reserved.LessThan(amount) {
		return errors.Errorf("settlement: release %s %s exceeds reserved %s of %s", amount, asset, b.Reserved, trader)
	}
	b.Reserved = b.Reserved.Sub(amount)
	b.Available = b.Available.Add(amount)
	return nil
}

// Execute settles one fill out of both reservations. Nothing moves unless
// both parties hold enough.
func (l *Ledger) Execute(_ context.Context, x matching.Execution) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	buyerQuote := l.balance(x.Buyer, x.QuoteAsset)
	sellerBase := l.balance(x.Seller, x.BaseAsset)
	if buyerQuote.Reserved.LessThan(x.QuoteAmount) {
		return errors.Errorf("settlement: trade %d buyer %s holds %s %s, owes %s",
			x.TradeID, x.Buyer, buyerQuote.Reserved, x.QuoteAsset, x.QuoteAmount)
	}
	if sellerBase.Reserved.LessThan(x.BaseAmount) {
		return errors.Errorf("settlement: trade %d seller %s holds %s %s, owes %s",
			x.TradeID, x.Seller, sellerBase.Reserved, x.BaseAsset, x.BaseAmount)
	}

	buyerQuote.Reserved = buyerQuote.Reserved.Sub(x.QuoteAmount)
	sellerBase.Reserved = sellerBase.Reserved.Sub(x.BaseAmount)

	buyerBase := l.balance(x.Buyer, x.BaseAsset)
	buyerBase.Available = buyerBase.Available.Add(x.BaseAmount.Sub(x.BuyFee))
	sellerQuote := l.balance(x.Seller, x.QuoteAsset)
	sellerQuote.Available = sellerQuote.Available.Add(x.QuoteAmount.Sub(x.SellFee))
	return nil
}

// TransferFee credits a fee already withheld by Execute to the fee account.
func (l *Ledger) TransferFee(_ context.Context, asset string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.balance(l.feeAccount, asset)
	b.Available = b.Available.Add(amount)
	return nil
}
