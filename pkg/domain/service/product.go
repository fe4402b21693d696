package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"novacart/pkg/domain/model"
)

type ProductService interface {
	CreateProduct(ctx context.Context, fields model.ProductFields) (*model.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, fields model.ProductFields) (*model.Product, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error

	GetProduct(ctx context.Context, productID uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
}

func NewProductService(repo model.ProductRepository, dispatcher EventDispatcher, logger logrus.FieldLogger) ProductService {
	return &productService{repo: repo, dispatcher: dispatcher, logger: logger}
}

type productService struct {
	repo       model.ProductRepository
	dispatcher EventDispatcher
	logger     logrus.FieldLogger
}

func (s *productService) CreateProduct(ctx context.Context, fields model.ProductFields) (*model.Product, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	productID, err := s.repo.NextID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &model.Product{ID: productID, CreatedAt: now}
	applyFields(product, fields)
	product.UpdatedAt = now

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	dispatchEvent(s.logger, s.dispatcher, model.ProductCreated{ProductID: productID, Name: product.Name})
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, productID uuid.UUID, fields model.ProductFields) (*model.Product, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	product, err := s.repo.Find(ctx, productID)
	if err != nil {
		return nil, err
	}

	applyFields(product, fields)
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}

	dispatchEvent(s.logger, s.dispatcher, model.ProductUpdated{ProductID: productID})
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if err := s.repo.Delete(ctx, productID); err != nil {
		return err
	}

	dispatchEvent(s.logger, s.dispatcher, model.ProductDeleted{ProductID: productID})
	return nil
}

func (s *productService) GetProduct(ctx context.Context, productID uuid.UUID) (*model.Product, error) {
	return s.repo.Find(ctx, productID)
}

func (s *productService) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	return s.repo.List(ctx, filter)
}

func applyFields(product *model.Product, fields model.ProductFields) {
	product.Name = strings.TrimSpace(fields.Name)
	product.Description = fields.Description
	product.Price = fields.Price
	product.Category = strings.TrimSpace(fields.Category)
	product.Images = fields.Images
	if product.Images == nil {
		product.Images = []string{}
	}
	product.Stock = fields.Stock
	product.IsDeal = fields.IsDeal
}
