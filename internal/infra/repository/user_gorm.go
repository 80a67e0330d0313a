package repository

import (
	"academy/internal/domain/model"
	domainrepo "academy/internal/repository"
	"context"

	"gorm.io/gorm"
)

type accountGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてmiddlewareに注入します。
func NewAccountGormRepository(db *gorm.DB) domainrepo.AccountRepository {
	return &accountGormRepository{db: db}
}

// IDでアカウントを1件取得
func (r *accountGormRepository) FindByID(ctx context.Context, id int64) (model.Account, error) {
	var a model.Account

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&a).Error

	if isNotFound(err) {
		return model.Account{}, domainrepo.ErrNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	return a, nil
}
