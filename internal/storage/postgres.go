package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"papertrade/internal/model"
	"papertrade/pkg/exception"
)

// Postgres persists records through gorm. The zero value is unusable; build
// it with NewPostgres around an opened connection.
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates or updates the schema for all tracked models.
func (s *Postgres) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&model.Account{},
		&model.Position{},
		&model.MarketPrice{},
	)
}

func (s *Postgres) Account(ctx context.Context, id uint) (model.Account, error) {
	var account model.Account
	err := s.db.WithContext(ctx).First(&account, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Account{}, exception.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	return account, nil
}

func (s *Postgres) SaveAccount(ctx context.Context, account model.Account) error {
	return s.db.WithContext(ctx).Save(&account).Error
}

func (s *Postgres) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Account{}).Count(&count).Error
	return count, err
}

func (s *Postgres) Positions(ctx context.Context, accountID uint) ([]model.Position, error) {
	var positions []model.Position
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id").
		Find(&positions).Error
	return positions, err
}

func (s *Postgres) Position(ctx context.Context, accountID uint, symbol string) (model.Position, bool, error) {
	var position model.Position
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND symbol = ?", accountID, symbol).
		First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Position{}, false, nil
	}
	if err != nil {
		return model.Position{}, false, err
	}
	return position, true, nil
}

func (s *Postgres) SavePosition(ctx context.Context, position model.Position) error {
	return s.db.WithContext(ctx).Save(&position).Error
}

func (s *Postgres) DeletePosition(ctx context.Context, accountID uint, symbol string) error {
	return s.db.WithContext(ctx).
		Where("account_id = ? AND symbol = ?", accountID, symbol).
		Delete(&model.Position{}).Error
}

func (s *Postgres) DeletePositions(ctx context.Context, accountID uint) error {
	return s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&model.Position{}).Error
}

func (s *Postgres) SavePrice(ctx context.Context, price model.MarketPrice) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"price_usd", "updated_at"}),
		}).
		Create(&price).Error
}

func (s *Postgres) Transaction(ctx context.Context, fn func(Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Postgres{db: tx})
	})
}
