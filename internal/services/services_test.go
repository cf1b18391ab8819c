package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) published() []*amqp.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.LedgerEvent(nil), p.events...)
}

type env struct {
	repo   *storage.SQLiteRepository
	owner  core.User
	logs   *bytes.Buffer
	logger *log.Logger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	owner, err := repo.CreateUser(context.Background(), core.User{Email: "owner@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	var buf bytes.Buffer
	return &env{
		repo:   repo,
		owner:  owner,
		logs:   &buf,
		logger: log.New(log.Config{Level: slog.LevelDebug, Output: &buf}),
	}
}

func (e *env) account(t *testing.T, initial int64) core.Account {
	t.Helper()
	a, err := NewAccountService(e.repo).Create(context.Background(), e.owner.ID, core.Account{
		Name: "Main", Type: core.Checking, InitialBalance: core.Cents(initial),
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func (e *env) category(t *testing.T, name string) core.Category {
	t.Helper()
	cats, err := e.repo.ListCategories(context.Background(), e.owner.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range cats {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("category %q not found", name)
	return core.Category{}
}

func (e *env) expense(t *testing.T, ledger *LedgerService, accountID, categoryID, cents int64, date core.Date) core.TransactionDetail {
	t.Helper()
	d, err := ledger.Create(context.Background(), e.owner.ID, core.Transaction{
		AccountID: accountID, CategoryID: categoryID, Type: core.Expense, Amount: core.Cents(cents), Date: date,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	return d
}

func TestLedgerServicePublishesAfterCommit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pub := &fakePublisher{}
	ledger := NewLedgerService(e.repo, pub, e.logger)
	acct := e.account(t, 100000)
	groceries := e.category(t, "Groceries")

	d := e.expense(t, ledger, acct.ID, groceries.ID, 15000, core.NewDate(2025, 6, 10))
	d.Amount = core.Cents(5000)
	if _, err := ledger.Update(ctx, e.owner.ID, d.Transaction); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := ledger.Delete(ctx, e.owner.ID, d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	events := pub.published()
	want := []amqp.EventType{amqp.TransactionCreated, amqp.TransactionUpdated, amqp.TransactionDeleted}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, ev := range events {
		if ev.Type != want[i] {
			t.Errorf("event %d: type %s, want %s", i, ev.Type, want[i])
		}
		if ev.OwnerID != e.owner.ID || ev.TransactionID != d.ID {
			t.Errorf("event %d: unexpected ids %+v", i, ev)
		}
	}
	if events[1].Amount != "50.00" {
		t.Errorf("update event should carry the new amount, got %s", events[1].Amount)
	}
}

func TestLedgerServicePublishFailureKeepsChange(t *testing.T) {
	e := newEnv(t)
	ledger := NewLedgerService(e.repo, &fakePublisher{err: errors.New("broker down")}, e.logger)
	acct := e.account(t, 1000)

	e.expense(t, ledger, acct.ID, e.category(t, "Groceries").ID, 300, core.NewDate(2025, 6, 1))

	got, err := e.repo.GetAccount(context.Background(), e.owner.ID, acct.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance.Cents != 700 {
		t.Fatalf("balance = %d, want 700", got.Balance.Cents)
	}
	if !bytes.Contains(e.logs.Bytes(), []byte("Failed to publish ledger event")) {
		t.Fatalf("publish failure not logged: %s", e.logs.String())
	}
}

func TestLedgerServiceValidatesBeforeStorage(t *testing.T) {
	e := newEnv(t)
	pub := &fakePublisher{}
	ledger := NewLedgerService(e.repo, pub, e.logger)
	acct := e.account(t, 1000)
	cat := e.category(t, "Groceries")

	cases := []struct {
		name string
		tx   core.Transaction
		want error
	}{
		{"zero amount", core.Transaction{AccountID: acct.ID, CategoryID: cat.ID, Type: core.Expense, Date: core.NewDate(2025, 1, 1)}, core.ErrInvalidAmount},
		{"bad type", core.Transaction{AccountID: acct.ID, CategoryID: cat.ID, Type: "REFUND", Amount: core.Cents(1), Date: core.NewDate(2025, 1, 1)}, core.ErrInvalidType},
		{"missing date", core.Transaction{AccountID: acct.ID, CategoryID: cat.ID, Type: core.Expense, Amount: core.Cents(1)}, core.ErrMissingDate},
		{"transfer to self", core.Transaction{AccountID: acct.ID, CategoryID: cat.ID, Type: core.Transfer, Amount: core.Cents(1), Date: core.NewDate(2025, 1, 1), TransferAccountID: &acct.ID}, core.ErrTransferTarget},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.Create(context.Background(), e.owner.ID, tc.tx)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if n := len(pub.published()); n != 0 {
		t.Fatalf("rejected input must not publish, got %d events", n)
	}
}

func TestLedgerServiceListLimits(t *testing.T) {
	e := newEnv(t)
	ledger := NewLedgerService(e.repo, nil, e.logger)
	acct := e.account(t, 100000)
	cat := e.category(t, "Groceries")
	for i := 1; i <= 3; i++ {
		e.expense(t, ledger, acct.ID, cat.ID, int64(i*100), core.NewDate(2025, 6, i))
	}

	all, err := ledger.List(context.Background(), e.owner.ID, core.TransactionFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("list: %d %v", len(all), err)
	}
	page, err := ledger.List(context.Background(), e.owner.ID, core.TransactionFilter{Limit: 1, Offset: 1})
	if err != nil || len(page) != 1 || page[0].Date.String() != "2025-06-02" {
		t.Fatalf("page: %+v %v", page, err)
	}
	_, err = ledger.List(context.Background(), e.owner.ID, core.TransactionFilter{
		From: core.NewDate(2025, 6, 5), To: core.NewDate(2025, 6, 1),
	})
	if !errors.Is(err, core.ErrInvalidDateRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
}

func TestBudgetServiceDefaultsEndDate(t *testing.T) {
	e := newEnv(t)
	budgets := NewBudgetService(e.repo, 2)
	eval, err := budgets.Create(context.Background(), e.owner.ID, core.Budget{
		Name: " Monthly ", Amount: core.Cents(100000), Period: core.Monthly,
		StartDate: core.NewDate(2025, 2, 1), Active: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if eval.Budget.EndDate.String() != "2025-02-28" {
		t.Fatalf("end date = %s, want 2025-02-28", eval.Budget.EndDate)
	}
	if eval.Budget.Name != "Monthly" {
		t.Fatalf("name not trimmed: %q", eval.Budget.Name)
	}
	if eval.Status != core.StatusGood || !eval.TotalSpent.IsZero() {
		t.Fatalf("unexpected evaluation: %+v", eval)
	}
}

func TestBudgetServiceSummary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ledger := NewLedgerService(e.repo, nil, e.logger)
	budgets := NewBudgetService(e.repo, 2)
	acct := e.account(t, 1000000)
	groceries := e.category(t, "Groceries")
	dining := e.category(t, "Dining Out")
	june := core.NewDate(2025, 6, 1)

	if _, err := budgets.Create(ctx, e.owner.ID, core.Budget{Name: "Food", CategoryID: &groceries.ID, Amount: core.Cents(100000), Period: core.Monthly, StartDate: june, Active: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := budgets.Create(ctx, e.owner.ID, core.Budget{Name: "Out", CategoryID: &dining.ID, Amount: core.Cents(10000), Period: core.Monthly, StartDate: june, Active: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := budgets.Create(ctx, e.owner.ID, core.Budget{Name: "Year", Amount: core.Cents(1000000), Period: core.Yearly, StartDate: core.NewDate(2025, 1, 1), Active: true}); err != nil {
		t.Fatal(err)
	}

	e.expense(t, ledger, acct.ID, groceries.ID, 90000, core.NewDate(2025, 6, 10))
	e.expense(t, ledger, acct.ID, dining.ID, 12000, core.NewDate(2025, 6, 30))
	e.expense(t, ledger, acct.ID, dining.ID, 5000, core.NewDate(2025, 7, 1))

	monthly, err := budgets.Summary(ctx, e.owner.ID, "monthly")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(monthly.Budgets) != 2 {
		t.Fatalf("expected 2 monthly budgets, got %d", len(monthly.Budgets))
	}
	if monthly.StatusCounts.Good != 1 || monthly.StatusCounts.Overbudget != 1 {
		t.Fatalf("unexpected counts: %+v", monthly.StatusCounts)
	}
	if monthly.TotalSpent.Cents != 102000 || monthly.TotalBudgetAmount.Cents != 110000 {
		t.Fatalf("unexpected totals: spent %d budget %d", monthly.TotalSpent.Cents, monthly.TotalBudgetAmount.Cents)
	}
	if monthly.OverallPercentageUsed.StringFixed(2) != "92.73" {
		t.Fatalf("overall = %s, want 92.73", monthly.OverallPercentageUsed.StringFixed(2))
	}

	all, err := budgets.Summary(ctx, e.owner.ID, "all")
	if err != nil || len(all.Budgets) != 3 {
		t.Fatalf("all: %d %v", len(all.Budgets), err)
	}
	if _, err := budgets.Summary(ctx, e.owner.ID, "daily"); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Fatalf("expected invalid period, got %v", err)
	}
}

func TestAccountServicePatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	accounts := NewAccountService(e.repo)

	a, err := accounts.Create(ctx, e.owner.ID, core.Account{Name: "Wallet", Type: core.Cash, Currency: "usd", InitialBalance: core.Cents(2500)})
	if err != nil {
		t.Fatal(err)
	}
	if a.Currency != "USD" || !a.Active || a.Balance.Cents != 2500 {
		t.Fatalf("unexpected account: %+v", a)
	}
	if e.account(t, 0).Currency != DefaultCurrency {
		t.Fatal("currency should default")
	}

	inactive := false
	name := "Pocket"
	got, err := accounts.Update(ctx, e.owner.ID, a.ID, AccountPatch{Name: &name, Active: &inactive})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Pocket" || got.Active || got.Type != core.Cash {
		t.Fatalf("patch not applied: %+v", got)
	}
	empty := " "
	if _, err := accounts.Update(ctx, e.owner.ID, a.ID, AccountPatch{Name: &empty}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected empty name, got %v", err)
	}
}

func TestCategoryServiceCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	categories := NewCategoryService(e.repo, nil)

	first, err := categories.List(ctx, e.owner.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := categories.List(ctx, e.owner.ID, core.DirectionIncome); err != nil {
		t.Fatal(err)
	}
	if hits := categories.Cache().Stats().Hits; hits != 1 {
		t.Fatalf("expected 1 cache hit, got %d", hits)
	}

	c, err := categories.Create(ctx, e.owner.ID, core.Category{Name: "Pets", Direction: core.DirectionExpense})
	if err != nil {
		t.Fatal(err)
	}
	after, err := categories.List(ctx, e.owner.ID, "")
	if err != nil || len(after) != len(first)+1 {
		t.Fatalf("cache not invalidated on create: %d vs %d (%v)", len(after), len(first), err)
	}

	name := "Animals"
	if _, err := categories.Update(ctx, e.owner.ID, c.ID, CategoryPatch{Name: &name}); err != nil {
		t.Fatal(err)
	}
	expense, err := categories.List(ctx, e.owner.ID, core.DirectionExpense)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, cat := range expense {
		if cat.Direction != core.DirectionExpense {
			t.Fatalf("direction filter leaked %q", cat.Name)
		}
		found = found || cat.Name == "Animals"
	}
	if !found {
		t.Fatal("renamed category missing from cached list")
	}

	if err := categories.Delete(ctx, e.owner.ID, c.ID); err != nil {
		t.Fatal(err)
	}
	final, _ := categories.List(ctx, e.owner.ID, "")
	if len(final) != len(first) {
		t.Fatalf("cache not invalidated on delete: %d", len(final))
	}
}

func TestGoalService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	goals := NewGoalService(e.repo)

	if _, err := goals.Create(ctx, e.owner.ID, core.Goal{Name: "Trip"}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	g, err := goals.Create(ctx, e.owner.ID, core.Goal{Name: "Trip", Target: core.Cents(200000), Current: core.Cents(50000)})
	if err != nil {
		t.Fatal(err)
	}
	g.Current = core.Cents(200000)
	updated, err := goals.Update(ctx, e.owner.ID, g)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Completed {
		t.Fatal("reaching the target must not complete a goal")
	}
	if err := goals.Delete(ctx, e.owner.ID, g.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := goals.Get(ctx, e.owner.ID, g.ID); !errors.Is(err, core.ErrGoalNotFound) {
		t.Fatalf("expected goal not found, got %v", err)
	}
}

func TestAlertServiceRaisesOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pub := &fakePublisher{}
	ledger := NewLedgerService(e.repo, pub, e.logger)
	budgets := NewBudgetService(e.repo, 2)
	alerts := NewAlertService(e.repo, budgets, e.logger)
	acct := e.account(t, 1000000)
	groceries := e.category(t, "Groceries")
	salary := e.category(t, "Salary")

	start := core.Today().AddDays(-3)
	if _, err := budgets.Create(ctx, e.owner.ID, core.Budget{
		Name: "Food", CategoryID: &groceries.ID, Amount: core.Cents(10000), Period: core.Monthly, StartDate: start, Active: true,
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := ledger.Create(ctx, e.owner.ID, core.Transaction{
		AccountID: acct.ID, CategoryID: salary.ID, Type: core.Income, Amount: core.Cents(99999), Date: core.Today(),
	}); err != nil {
		t.Fatal(err)
	}
	e.expense(t, ledger, acct.ID, groceries.ID, 9500, core.Today())
	e.expense(t, ledger, acct.ID, groceries.ID, 100, core.Today())

	raised := 0
	for _, ev := range pub.published() {
		n, err := alerts.HandleEvent(ctx, ev)
		if err != nil {
			t.Fatalf("handle %s: %v", ev.Type, err)
		}
		raised += n
	}
	if raised != 1 {
		t.Fatalf("expected one warning alert, got %d", raised)
	}

	e.expense(t, ledger, acct.ID, groceries.ID, 1000, core.Today())
	n, err := alerts.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("sweep should raise the overbudget alert, got %d", n)
	}
	if n, _ := alerts.Sweep(ctx); n != 0 {
		t.Fatalf("second sweep raised %d alerts", n)
	}

	list, err := alerts.List(ctx, e.owner.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("alerts: %+v %v", list, err)
	}
}
