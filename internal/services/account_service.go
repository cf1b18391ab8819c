package services

import (
	"context"
	"strings"

	"bilancio/internal/core"
)

const DefaultCurrency = "EUR"

// AccountPatch lists the account fields a caller may change. Nil fields are
// left as they are. Balance and currency are not patchable.
type AccountPatch struct {
	Name   *string
	Type   *core.AccountType
	Active *bool
}

type AccountService struct {
	store AccountStore
}

func NewAccountService(store AccountStore) *AccountService {
	return &AccountService{store: store}
}

// Create opens an active account whose balance starts at its initial balance.
func (s *AccountService) Create(ctx context.Context, ownerID int64, a core.Account) (core.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	if a.Currency == "" {
		a.Currency = DefaultCurrency
	}
	a.Active = true
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	return s.store.CreateAccount(ctx, ownerID, a)
}

func (s *AccountService) Get(ctx context.Context, ownerID, id int64) (core.Account, error) {
	return s.store.GetAccount(ctx, ownerID, id)
}

func (s *AccountService) List(ctx context.Context, ownerID int64) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, ownerID)
}

func (s *AccountService) Update(ctx context.Context, ownerID, id int64, p AccountPatch) (core.Account, error) {
	a, err := s.store.GetAccount(ctx, ownerID, id)
	if err != nil {
		return core.Account{}, err
	}
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Active != nil {
		a.Active = *p.Active
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	return s.store.UpdateAccount(ctx, ownerID, a)
}

// Delete removes an account that no transaction references.
func (s *AccountService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.store.DeleteAccount(ctx, ownerID, id)
}
