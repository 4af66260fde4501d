package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stocksim/models"
)

// Store is the ledger store: user accounts with their cash balance and the
// append-only share transactions. A Store obtained inside WithTx runs every
// query in that transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn against a Store bound to a single database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateUser inserts a new account. A taken username yields ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("user %q: %w", user.Username, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UserByUsername looks a user up by exact, case-sensitive username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	return userResult(&user, err)
}

func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	return userResult(&user, err)
}

// LockUser reads a user row and holds a write lock on it until the
// surrounding transaction ends. SQLite has no row locks; there the single
// connection already serialises transactions.
func (s *Store) LockUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, id).Error
	return userResult(&user, err)
}

func userResult(user *models.User, err error) (*models.User, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// SetCash overwrites a user's cash balance.
func (s *Store) SetCash(ctx context.Context, userID uint, cash decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("cash", cash)
	if res.Error != nil {
		return fmt.Errorf("failed to update cash: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendTransaction adds one ledger row.
func (s *Store) AppendTransaction(ctx context.Context, t *models.Transaction) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

// Holdings sums the ledger per symbol and keeps the symbols still held.
func (s *Store) Holdings(ctx context.Context, userID uint) ([]models.Holding, error) {
	var holdings []models.Holding
	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("symbol, CAST(SUM(shares) AS BIGINT) AS shares").
		Where("user_id = ?", userID).
		Group("symbol").
		Having("SUM(shares) > 0").
		Order("symbol").
		Scan(&holdings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate holdings: %w", err)
	}
	return holdings, nil
}

// HoldingShares is the aggregate share count a user holds in one symbol.
func (s *Store) HoldingShares(ctx context.Context, userID uint, symbol string) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("CAST(COALESCE(SUM(shares), 0) AS BIGINT)").
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum shares for %s: %w", symbol, err)
	}
	return total, nil
}

// Transactions lists a user's ledger oldest first.
func (s *Store) Transactions(ctx context.Context, userID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("transacted, id").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}
