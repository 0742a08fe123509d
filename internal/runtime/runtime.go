package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/ledger"
)

// DefaultFeePerSignature is the fee charged per required signer.
const DefaultFeePerSignature uint64 = 5000

// SystemProgramID is the owner of plain lamport-holding accounts.
var SystemProgramID = address.Zero

// Program executes instructions addressed to its ID.
type Program interface {
	ID() address.Address
	Execute(ic *InvokeContext, accounts []AccountMeta, data []byte) error
}

// Ledger is the persistence the runtime needs. *ledger.Store implements it.
type Ledger interface {
	Update(ctx context.Context, fn func(w ledger.Writer) error) error
	View(ctx context.Context, fn func(r ledger.Reader) error) error
	LastSeq(ctx context.Context) (int64, error)
}

// Receipt is the outcome of one processed transaction or airdrop.
type Receipt struct {
	TxID      string        `json:"tx_id"`
	Seq       int64         `json:"seq"`
	Status    ledger.Status `json:"status"`
	ErrorCode string        `json:"error_code,omitempty"`
	Error     string        `json:"error,omitempty"`
	Fee       uint64        `json:"fee"`
	Logs      []string      `json:"logs"`
}

// OK reports whether the transaction committed.
func (r Receipt) OK() bool {
	return r.Status == ledger.StatusOK
}

// Runtime executes signed transactions against a ledger.
//
// Transactions are processed one at a time. Each runs inside a single
// ledger transaction: the fee, every instruction, and the journal entry
// commit together or not at all.
type Runtime struct {
	mu sync.Mutex

	ledger          Ledger
	rent            Rent
	feePerSignature uint64
	programs        map[address.Address]Program
	clock           *Clock
	ids             NonceGenerator
	logger          *slog.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithRent overrides the default rent parameters.
func WithRent(r Rent) Option {
	return func(rt *Runtime) { rt.rent = r }
}

// WithFeePerSignature overrides the per-signature fee.
func WithFeePerSignature(fee uint64) Option {
	return func(rt *Runtime) { rt.feePerSignature = fee }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) { rt.logger = l }
}

// WithClock replaces the clock that would otherwise resume from the
// ledger's last sequence number.
func WithClock(c *Clock) Option {
	return func(rt *Runtime) { rt.clock = c }
}

// WithIDGenerator sets the generator for airdrop IDs.
func WithIDGenerator(g NonceGenerator) Option {
	return func(rt *Runtime) { rt.ids = g }
}

// New creates a runtime over l. The clock resumes after the last journaled
// sequence number unless WithClock is given.
func New(ctx context.Context, l Ledger, opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		ledger:          l,
		rent:            DefaultRent(),
		feePerSignature: DefaultFeePerSignature,
		programs:        make(map[address.Address]Program),
		ids:             UUIDv7Generator{},
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}

	if rt.clock == nil {
		last, err := l.LastSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("resume clock: %w", err)
		}
		rt.clock = NewClockAt(last)
	}
	return rt, nil
}

// Register makes p callable by instructions addressed to p.ID().
// Registering a second program under the same ID replaces the first.
func (rt *Runtime) Register(p Program) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.programs[p.ID()] = p
}

// Rent returns the runtime's rent parameters.
func (rt *Runtime) Rent() Rent {
	return rt.rent
}

// FeePerSignature returns the fee charged per required signer.
func (rt *Runtime) FeePerSignature() uint64 {
	return rt.feePerSignature
}

// Process verifies and executes tx.
//
// Transactions that fail verification or were already processed are
// rejected: the returned error is set and nothing is journaled. A
// transaction that fails during execution is rolled back, fee included,
// and journaled as failed; the receipt and the execution error are both
// returned.
func (rt *Runtime) Process(ctx context.Context, tx Transaction) (Receipt, error) {
	txID, err := tx.ID()
	if err != nil {
		return Receipt{}, err
	}
	if err := tx.Verify(); err != nil {
		return Receipt{TxID: txID}, err
	}
	summary, err := tx.Message.Summary()
	if err != nil {
		return Receipt{TxID: txID}, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	signers := tx.Message.Signers()
	signerSet := make(map[address.Address]bool, len(signers))
	for _, s := range signers {
		signerSet[s] = true
	}
	fee := rt.feePerSignature * uint64(len(signers))

	receipt := Receipt{TxID: txID, Status: ledger.StatusOK, Fee: fee, Logs: []string{}}
	entry := ledger.JournalEntry{
		TxID:    txID,
		Kind:    ledger.KindTransaction,
		Payer:   tx.Message.Payer,
		Summary: summary,
		Status:  ledger.StatusOK,
		Fee:     fee,
	}

	var rejected bool
	execErr := rt.ledger.Update(ctx, func(w ledger.Writer) error {
		seen, err := w.HasTransaction(ctx, txID)
		if err != nil {
			return err
		}
		if seen {
			rejected = true
			return newError(CodeDuplicateTransaction, "%s", txID)
		}

		entry.Seq = rt.clock.Next()

		touched := make(map[address.Address]struct{})
		if err := rt.chargeFee(ctx, w, tx.Message.Payer, fee, touched); err != nil {
			return err
		}
		for i, ix := range tx.Message.Instructions {
			prog, ok := rt.programs[ix.Program]
			if !ok {
				return newError(CodeUnknownProgram, "instruction %d: %s", i, ix.Program)
			}
			ic := &InvokeContext{
				ctx:      ctx,
				w:        w,
				rent:     rt.rent,
				program:  ix.Program,
				signers:  signerSet,
				writable: writableSet(ix.Accounts),
				touched:  touched,
				logs:     &receipt.Logs,
				logger:   rt.logger,
			}
			if err := prog.Execute(ic, ix.Accounts, ix.Data); err != nil {
				return fmt.Errorf("instruction %d: %w", i, err)
			}
		}

		if err := purge(ctx, w, touched); err != nil {
			return err
		}
		_, err = w.AppendJournal(ctx, entry)
		return err
	})
	if execErr == nil {
		receipt.Seq = entry.Seq
		rt.logger.Debug("transaction processed",
			"tx", txID, "seq", entry.Seq, "fee", fee, "instructions", len(tx.Message.Instructions))
		return receipt, nil
	}
	// Without a seq the transaction never reached execution, so there is
	// nothing to journal.
	if rejected || entry.Seq == 0 || ctx.Err() != nil {
		return Receipt{TxID: txID}, execErr
	}

	// Record the failure on its own; the fee went with the rollback.
	entry.Status = ledger.StatusFailed
	entry.ErrorCode = CodeOf(execErr)
	entry.Error = execErr.Error()
	entry.Fee = 0
	if err := rt.ledger.Update(ctx, func(w ledger.Writer) error {
		_, err := w.AppendJournal(ctx, entry)
		return err
	}); err != nil {
		return Receipt{TxID: txID}, errors.Join(execErr, fmt.Errorf("journal failure: %w", err))
	}

	rt.logger.Warn("transaction failed",
		"tx", txID, "seq", entry.Seq, "code", entry.ErrorCode, "error", execErr)

	receipt.Seq = entry.Seq
	receipt.Status = ledger.StatusFailed
	receipt.ErrorCode = entry.ErrorCode
	receipt.Error = entry.Error
	receipt.Fee = 0
	return receipt, execErr
}

func (rt *Runtime) chargeFee(ctx context.Context, w ledger.Writer, payer address.Address, fee uint64, touched map[address.Address]struct{}) error {
	acct, err := w.Get(ctx, payer)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return newError(CodeInsufficientFundsForFee, "payer %s has no account", payer)
	}
	if err != nil {
		return err
	}
	if acct.Lamports < fee {
		return newError(CodeInsufficientFundsForFee, "payer %s holds %d, fee is %d", payer, acct.Lamports, fee)
	}
	acct.Lamports -= fee
	touched[payer] = struct{}{}
	return w.Put(ctx, acct)
}

// purge deletes touched accounts left with no lamports and no data.
func purge(ctx context.Context, w ledger.Writer, touched map[address.Address]struct{}) error {
	for addr := range touched {
		acct, err := w.Get(ctx, addr)
		if errors.Is(err, ledger.ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if acct.IsEmpty() {
			if err := w.Delete(ctx, addr); err != nil {
				return err
			}
		}
	}
	return nil
}

// Airdrop credits lamports to an account from nowhere. It exists to fund
// accounts on a local ledger.
func (rt *Runtime) Airdrop(ctx context.Context, to address.Address, lamports uint64) (Receipt, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	entry := ledger.JournalEntry{
		TxID:    rt.ids.Generate(),
		Kind:    ledger.KindAirdrop,
		Payer:   to,
		Summary: fmt.Sprintf("airdrop %d", lamports),
		Status:  ledger.StatusOK,
	}
	err := rt.ledger.Update(ctx, func(w ledger.Writer) error {
		acct, err := w.Get(ctx, to)
		if errors.Is(err, ledger.ErrAccountNotFound) {
			acct = ledger.Account{Address: to}
		} else if err != nil {
			return err
		}
		if acct.Lamports > maxLamports-lamports || lamports > maxLamports {
			return newError(CodeLamportsOverflow, "%s + %d", to, lamports)
		}
		acct.Lamports += lamports
		if err := w.Put(ctx, acct); err != nil {
			return err
		}

		entry.Seq = rt.clock.Next()
		_, err = w.AppendJournal(ctx, entry)
		return err
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("airdrop to %s: %w", to, err)
	}

	rt.logger.Debug("airdrop", "to", to.String(), "lamports", lamports, "seq", entry.Seq)
	return Receipt{TxID: entry.TxID, Seq: entry.Seq, Status: ledger.StatusOK, Logs: []string{}}, nil
}

// Balance returns the lamports held at addr; a missing account holds zero.
func (rt *Runtime) Balance(ctx context.Context, addr address.Address) (uint64, error) {
	acct, err := rt.Account(ctx, addr)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Lamports, nil
}

// Account returns the account at addr or an error wrapping
// ledger.ErrAccountNotFound.
func (rt *Runtime) Account(ctx context.Context, addr address.Address) (ledger.Account, error) {
	var acct ledger.Account
	err := rt.ledger.View(ctx, func(r ledger.Reader) error {
		var err error
		acct, err = r.Get(ctx, addr)
		return err
	})
	return acct, err
}
