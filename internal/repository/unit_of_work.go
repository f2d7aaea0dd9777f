package repository

import (
	"context"
	"fmt"

	"golang-backtest/pkg/utils"

	"gorm.io/gorm"
)

// UnitOfWork runs repository calls in one transaction. fn receives the
// option binding each call to the transaction.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(opts ...utils.DBOption) error) error
}

type unitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Run(ctx context.Context, fn func(opts ...utils.DBOption) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(utils.WithTx(tx))
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}
