package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkaragoz/finbook/internal/ledger"
	"github.com/dkaragoz/finbook/internal/models"
)

// MemoryRepository is an in-memory Repository implementation with the same
// semantics as the Postgres one, including cascade atomicity and the
// uniqueness invariants. It backs the test suites and local development
// without a database.
type MemoryRepository struct {
	mu           sync.Mutex
	users        map[string]models.User
	accounts     map[string]models.Account
	categories   map[string]models.Category
	transactions map[string]models.Transaction
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:        make(map[string]models.User),
		accounts:     make(map[string]models.Account),
		categories:   make(map[string]models.Category),
		transactions: make(map[string]models.Transaction),
	}
}

// SeedSystemCategory inserts an owner-less system category, mirroring the
// startup seeding the Postgres setup performs.
func (r *MemoryRepository) SeedSystemCategory(name string, kind models.CategoryKind, priority int) *models.Category {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	c := models.Category{
		ID:        uuid.New().String(),
		Name:      name,
		Kind:      kind,
		Priority:  priority,
		IsSystem:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.categories[c.ID] = c
	return &c
}

// User operations
func (r *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok {
		user := u
		return &user, nil
	}
	return nil, nil
}

// Account operations
func (r *MemoryRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.UserID == account.UserID && a.Name == account.Name && a.DeletedAt == nil {
			return ErrConflict
		}
	}

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	account.DeletedAt = nil
	r.accounts[account.ID] = *account
	return nil
}

func (r *MemoryRepository) GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getAccountLocked(userID, accountID)
}

func (r *MemoryRepository) getAccountLocked(userID, accountID string) (*models.Account, error) {
	if a, ok := r.accounts[accountID]; ok && a.UserID == userID {
		account := a
		return &account, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) GetActiveAccountByName(ctx context.Context, userID, name string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.UserID == userID && a.Name == name && a.DeletedAt == nil {
			account := a
			return &account, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := []models.Account{}
	for _, a := range r.accounts {
		if a.UserID == userID && a.DeletedAt == nil {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (r *MemoryRepository) ListDeletedAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := []models.Account{}
	for _, a := range r.accounts {
		if a.UserID == userID && a.DeletedAt != nil {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].DeletedAt.After(*accounts[j].DeletedAt)
	})
	return accounts, nil
}

func (r *MemoryRepository) UpdateAccount(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.accounts[account.ID]
	if !ok || existing.UserID != account.UserID || existing.DeletedAt != nil {
		return ErrNotFound
	}
	for _, a := range r.accounts {
		if a.ID != account.ID && a.UserID == account.UserID && a.Name == account.Name && a.DeletedAt == nil {
			return ErrConflict
		}
	}

	account.UpdatedAt = time.Now().UTC()
	account.DeletedAt = existing.DeletedAt
	account.CreatedAt = existing.CreatedAt
	r.accounts[account.ID] = *account
	return nil
}

func (r *MemoryRepository) SoftDeleteAccount(ctx context.Context, userID, accountID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountID]
	if !ok || account.UserID != userID || account.DeletedAt != nil {
		return 0, ErrNotFound
	}

	var affected int64
	for id, tx := range r.transactions {
		if tx.UserID == userID && tx.DeletedAt == nil && tx.References(accountID) {
			stamp := at
			tx.DeletedAt = &stamp
			tx.UpdatedAt = at
			r.transactions[id] = tx
			affected++
		}
	}

	stamp := at
	account.DeletedAt = &stamp
	account.UpdatedAt = at
	r.accounts[accountID] = account
	return affected, nil
}

func (r *MemoryRepository) RestoreAccount(ctx context.Context, userID, accountID string) (*models.Account, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountID]
	if !ok || account.UserID != userID {
		return nil, 0, ErrNotFound
	}
	if account.DeletedAt == nil {
		return nil, 0, ErrNotDeleted
	}
	for _, a := range r.accounts {
		if a.ID != accountID && a.UserID == userID && a.Name == account.Name && a.DeletedAt == nil {
			return nil, 0, ErrConflict
		}
	}

	deletedAt := *account.DeletedAt
	now := time.Now().UTC()

	var affected int64
	for id, tx := range r.transactions {
		if tx.UserID == userID && tx.DeletedAt != nil && tx.DeletedAt.Equal(deletedAt) && tx.References(accountID) {
			tx.DeletedAt = nil
			tx.UpdatedAt = now
			r.transactions[id] = tx
			affected++
		}
	}

	account.DeletedAt = nil
	account.UpdatedAt = now
	r.accounts[accountID] = account
	return &account, affected, nil
}

func (r *MemoryRepository) HardDeleteAccount(ctx context.Context, userID, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountID]
	if !ok || account.UserID != userID {
		return 0, ErrNotFound
	}

	var affected int64
	for id, tx := range r.transactions {
		if tx.UserID == userID && tx.References(accountID) {
			delete(r.transactions, id)
			affected++
		}
	}
	delete(r.accounts, accountID)
	return affected, nil
}

// Category operations
func (r *MemoryRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.categories {
		if category.IsOverride {
			if c.IsOverride && samePtr(c.UserID, category.UserID) && samePtr(c.SourceCategoryID, category.SourceCategoryID) {
				return ErrConflict
			}
		} else if !c.IsOverride && samePtr(c.UserID, category.UserID) && c.Name == category.Name && c.Kind == category.Kind {
			return ErrConflict
		}
	}

	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	r.categories[category.ID] = *category
	return nil
}

func (r *MemoryRepository) GetCategory(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.categories[categoryID]; ok {
		if c.UserID == nil || *c.UserID == userID {
			category := c
			return &category, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) GetOverrideForSource(ctx context.Context, userID, sourceCategoryID string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.categories {
		if c.IsOverride && c.UserID != nil && *c.UserID == userID &&
			c.SourceCategoryID != nil && *c.SourceCategoryID == sourceCategoryID {
			category := c
			return &category, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	categories := []models.Category{}
	for _, c := range r.categories {
		if c.UserID == nil || *c.UserID == userID {
			categories = append(categories, c)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Priority != categories[j].Priority {
			return categories[i].Priority < categories[j].Priority
		}
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (r *MemoryRepository) UpdateCategory(ctx context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.categories[category.ID]
	if !ok || !samePtr(existing.UserID, category.UserID) {
		return ErrNotFound
	}
	for _, c := range r.categories {
		if c.ID != category.ID && !c.IsOverride && !category.IsOverride &&
			samePtr(c.UserID, category.UserID) && c.Name == category.Name && c.Kind == category.Kind {
			return ErrConflict
		}
	}

	category.UpdatedAt = time.Now().UTC()
	category.CreatedAt = existing.CreatedAt
	r.categories[category.ID] = *category
	return nil
}

// Transaction operations
func (r *MemoryRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	r.transactions[tx.ID] = *tx
	return nil
}

func (r *MemoryRepository) GetTransaction(ctx context.Context, userID, txID string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.transactions[txID]; ok && t.UserID == userID {
		tx := t
		return &tx, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) ListTransactions(ctx context.Context, userID string, q models.ListTransactionsQuery) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txs := []models.Transaction{}
	for _, t := range r.transactions {
		if t.UserID != userID || t.DeletedAt != nil {
			continue
		}
		if q.AccountID != "" && !t.References(q.AccountID) {
			continue
		}
		if q.CategoryID != "" && (t.CategoryID == nil || *t.CategoryID != q.CategoryID) {
			continue
		}
		if q.Type != "" && string(t.Type) != q.Type {
			continue
		}
		txs = append(txs, t)
	}
	txs = ledger.InPeriod(txs, q.From, q.To)
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].OccurredAt.After(txs[j].OccurredAt)
	})
	return txs, nil
}

func (r *MemoryRepository) ListForAccount(ctx context.Context, userID, accountID string) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txs := []models.Transaction{}
	for _, t := range r.transactions {
		if t.UserID == userID && t.DeletedAt == nil && t.References(accountID) {
			txs = append(txs, t)
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].OccurredAt.Before(txs[j].OccurredAt)
	})
	return txs, nil
}

func (r *MemoryRepository) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.transactions[tx.ID]
	if !ok || existing.UserID != tx.UserID || existing.DeletedAt != nil {
		return ErrNotFound
	}

	tx.UpdatedAt = time.Now().UTC()
	tx.CreatedAt = existing.CreatedAt
	r.transactions[tx.ID] = *tx
	return nil
}

func (r *MemoryRepository) SoftDeleteTransaction(ctx context.Context, userID, txID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, ok := r.transactions[txID]
	if !ok || tx.UserID != userID || tx.DeletedAt != nil {
		return ErrNotFound
	}

	stamp := at
	tx.DeletedAt = &stamp
	tx.UpdatedAt = at
	r.transactions[txID] = tx
	return nil
}

// Retention sweep operations
func (r *MemoryRepository) ListExpiredAccounts(ctx context.Context, cutoff time.Time) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := []models.Account{}
	for _, a := range r.accounts {
		if a.DeletedAt != nil && a.DeletedAt.Before(cutoff) {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].DeletedAt.Before(*accounts[j].DeletedAt)
	})
	return accounts, nil
}

func (r *MemoryRepository) PurgeAccount(ctx context.Context, userID, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountID]
	if !ok || account.UserID != userID || account.DeletedAt == nil {
		return 0, ErrNotFound
	}

	var affected int64
	for id, tx := range r.transactions {
		if tx.UserID == userID && tx.DeletedAt != nil && tx.References(accountID) {
			delete(r.transactions, id)
			affected++
		}
	}
	delete(r.accounts, accountID)
	return affected, nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
