package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

// Operation is a settled operation held by the Memory ledger.
type Operation struct {
	ID          models.OperationID
	Account     string
	Date        time.Time
	Reference   models.TransactionReference
	Kind        models.OperationKind
	Amount      models.Money
	Description string
	Card        *models.CardEnrichment
	ClearedHold string // id of the hold this operation settled, empty until one matched
}

// Hold is a provisional operation awaiting settlement.
type Hold struct {
	ID          string
	Account     string
	Date        time.Time
	Kind        models.OperationKind
	Amount      models.Money
	Description string
}

type referenceKey struct {
	account   string
	reference models.TransactionReference
}

// Memory is an in-memory ledger. It stands in for the accounting service
// when running locally and in tests.
//
// Settled operations are keyed by account and bank reference, so replaying
// a report after a partial failure does not duplicate them.
type Memory struct {
	mu          sync.Mutex
	accounts    map[string]struct{}
	openAll     bool
	operations  map[models.OperationID]*Operation
	byReference map[referenceKey]models.OperationID
	holds       []Hold
}

// NewMemory creates a ledger with the given accounts open. With no accounts
// every account number is accepted.
func NewMemory(accounts ...string) *Memory {
	m := &Memory{
		accounts:    make(map[string]struct{}, len(accounts)),
		openAll:     len(accounts) == 0,
		operations:  make(map[models.OperationID]*Operation),
		byReference: make(map[referenceKey]models.OperationID),
	}
	for _, a := range accounts {
		m.accounts[a] = struct{}{}
	}
	return m
}

// OpenAccount makes account known to the ledger.
func (m *Memory) OpenAccount(account string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account] = struct{}{}
}

func (m *Memory) RegisterHoldOperation(_ context.Context, account string, date time.Time, kind models.OperationKind, amount models.Money, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkAccount(account); err != nil {
		return err
	}
	m.holds = append(m.holds, Hold{
		ID:          uuid.NewString(),
		Account:     account,
		Date:        date,
		Kind:        kind,
		Amount:      amount,
		Description: description,
	})
	return nil
}

func (m *Memory) RegisterOperation(_ context.Context, account string, date time.Time, ref models.TransactionReference, kind models.OperationKind, amount models.Money, description string) (models.OperationID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkAccount(account); err != nil {
		return "", err
	}

	key := referenceKey{account: account, reference: ref}
	if id, ok := m.byReference[key]; ok {
		return id, nil
	}

	id := models.OperationID(uuid.NewString())
	m.operations[id] = &Operation{
		ID:          id,
		Account:     account,
		Date:        date,
		Reference:   ref,
		Kind:        kind,
		Amount:      amount,
		Description: description,
	}
	m.byReference[key] = id
	return id, nil
}

func (m *Memory) RegisterCardOperation(_ context.Context, id models.OperationID, card models.CardEnrichment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	op, ok := m.operations[id]
	if !ok {
		return fmt.Errorf("operation %s: %w", id, models.ErrNotFound)
	}
	op.Card = &card
	return nil
}

// RemoveMatchingHoldOperations drops the oldest hold on the same account with
// the same kind and amount, dated no later than the settled operation. An
// operation settles at most one hold; once it has, repeat calls do nothing.
func (m *Memory) RemoveMatchingHoldOperations(_ context.Context, id models.OperationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	op, ok := m.operations[id]
	if !ok {
		return fmt.Errorf("operation %s: %w", id, models.ErrNotFound)
	}
	if op.ClearedHold != "" {
		return nil
	}

	match := -1
	for i, h := range m.holds {
		if h.Account != op.Account || h.Kind != op.Kind || !h.Amount.Equal(op.Amount) || h.Date.After(op.Date) {
			continue
		}
		if match < 0 || h.Date.Before(m.holds[match].Date) {
			match = i
		}
	}
	if match >= 0 {
		op.ClearedHold = m.holds[match].ID
		m.holds = append(m.holds[:match], m.holds[match+1:]...)
	}
	return nil
}

// Operation returns a copy of a settled operation.
func (m *Memory) Operation(id models.OperationID) (Operation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	op, ok := m.operations[id]
	if !ok {
		return Operation{}, false
	}
	return *op, true
}

// Operations lists settled operations of an account ordered by date.
func (m *Memory) Operations(account string) []Operation {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Operation
	for _, op := range m.operations {
		if op.Account == account {
			out = append(out, *op)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].Reference < out[j].Reference
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Holds lists outstanding holds of an account in registration order.
func (m *Memory) Holds(account string) []Hold {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Hold
	for _, h := range m.holds {
		if h.Account == account {
			out = append(out, h)
		}
	}
	return out
}

func (m *Memory) checkAccount(account string) error {
	if m.openAll {
		return nil
	}
	if _, ok := m.accounts[account]; !ok {
		return fmt.Errorf("account %s: %w", account, models.ErrAccountNotFound)
	}
	return nil
}
