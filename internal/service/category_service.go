package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finledger/internal/model"
	"finledger/internal/repository"

	"gorm.io/gorm"
)

type CategoryService struct {
	categoryRepo *repository.CategoryRepository
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{categoryRepo: repository.NewCategoryRepository(db)}
}

func (s *CategoryService) CreateType(ctx context.Context, name, category string) (*model.TransactionType, error) {
	name = strings.TrimSpace(name)
	category = strings.ToLower(strings.TrimSpace(category))
	if name == "" {
		return nil, fmt.Errorf("%w: type name is required", ErrInvalidRequest)
	}
	if !model.ValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, category)
	}

	t := &model.TransactionType{Name: name, Category: category}
	if err := s.categoryRepo.CreateType(ctx, nil, t); err != nil {
		return nil, fmt.Errorf("create transaction type: %w", err)
	}
	return t, nil
}

// EnsureType returns the type called name, creating it when missing.
func (s *CategoryService) EnsureType(ctx context.Context, name, category string) (*model.TransactionType, error) {
	t, err := s.categoryRepo.GetTypeByName(ctx, nil, strings.TrimSpace(name))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, repository.ErrTypeNotFound) {
		return nil, err
	}
	return s.CreateType(ctx, name, category)
}

func (s *CategoryService) CreateSubtype(ctx context.Context, typeID int64, name string) (*model.TransactionSubtype, error) {
	if _, err := s.categoryRepo.GetType(ctx, nil, typeID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: subtype name is required", ErrInvalidRequest)
	}

	sub := &model.TransactionSubtype{TypeID: typeID, Name: name}
	if err := s.categoryRepo.CreateSubtype(ctx, nil, sub); err != nil {
		return nil, fmt.Errorf("create transaction subtype: %w", err)
	}
	return sub, nil
}

func (s *CategoryService) ListTypes(ctx context.Context) ([]*model.TransactionType, error) {
	return s.categoryRepo.ListTypes(ctx)
}
