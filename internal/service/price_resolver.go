package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fishryanie/GC-sub000/internal/model"
	"github.com/fishryanie/GC-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceEntry is one resolved product price.
type PriceEntry struct {
	ProductName string
	PricePerKg  decimal.Decimal
}

// PriceMap maps productId to its price in one list.
type PriceMap map[uuid.UUID]PriceEntry

// NewPriceMap indexes price list items by product.
func NewPriceMap(items []model.PriceListItem) PriceMap {
	m := make(PriceMap, len(items))
	for _, item := range items {
		m[item.ProductID] = PriceEntry{ProductName: item.ProductName, PricePerKg: item.PricePerKg}
	}
	return m
}

// PriceItemSource returns the items of a price list. The Redis price cache implements it.
type PriceItemSource interface {
	Items(ctx context.Context, list model.PriceList) ([]model.PriceListItem, error)
}

type repositoryItems struct {
	lists repository.PriceListRepository
}

// RepositoryItems reads items straight from the price list repository.
func RepositoryItems(lists repository.PriceListRepository) PriceItemSource {
	return repositoryItems{lists: lists}
}

func (r repositoryItems) Items(ctx context.Context, list model.PriceList) ([]model.PriceListItem, error) {
	return r.lists.FindItems(ctx, list.ID)
}

// Resolution is the outcome of in-app price resolution for one order intent.
type Resolution struct {
	CostList   model.PriceList
	SaleList   model.PriceList
	CostPrices PriceMap
	SalePrices PriceMap
	Policy     OrderPolicy
}

// PriceListResolver finds the active cost list and the applicable sale list.
type PriceListResolver struct {
	lists repository.PriceListRepository
	items PriceItemSource
}

func NewPriceListResolver(lists repository.PriceListRepository, items PriceItemSource) *PriceListResolver {
	if items == nil {
		items = RepositoryItems(lists)
	}
	return &PriceListResolver{lists: lists, items: items}
}

// ActiveCostList returns the most recent active COST list.
func (r *PriceListResolver) ActiveCostList(ctx context.Context) (*model.PriceList, error) {
	list, err := r.lists.FindActiveCost(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCostPriceAvailable
		}
		return nil, fmt.Errorf("find active cost list: %w", err)
	}
	return list, nil
}

// ActiveSaleList loads a sale list by id and checks it is an active SALE list.
func (r *PriceListResolver) ActiveSaleList(ctx context.Context, id uuid.UUID) (*model.PriceList, error) {
	if id == uuid.Nil {
		return nil, ErrSalePriceListInvalid
	}
	list, err := r.lists.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSalePriceListInvalid
		}
		return nil, fmt.Errorf("find sale list: %w", err)
	}
	if list.Type != model.PriceListTypeSale || !list.IsActive {
		return nil, ErrSalePriceListInvalid
	}
	return list, nil
}

// SaleListByID loads a SALE list regardless of its activation state.
func (r *PriceListResolver) SaleListByID(ctx context.Context, id uuid.UUID) (*model.PriceList, error) {
	list, err := r.lists.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSalePriceListInvalid
		}
		return nil, fmt.Errorf("find sale list: %w", err)
	}
	if list.Type != model.PriceListTypeSale {
		return nil, ErrSalePriceListInvalid
	}
	return list, nil
}

// Prices builds the lookup map of a list.
func (r *PriceListResolver) Prices(ctx context.Context, list model.PriceList) (PriceMap, error) {
	items, err := r.items.Items(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("load items of price list %s: %w", list.ID, err)
	}
	return NewPriceMap(items), nil
}

// ResolveInApp resolves both lists for an authenticated actor and evaluates the role policy once.
func (r *PriceListResolver) ResolveInApp(ctx context.Context, actor Actor, saleListID uuid.UUID) (Resolution, error) {
	costList, err := r.ActiveCostList(ctx)
	if err != nil {
		return Resolution{}, err
	}
	saleList, err := r.ActiveSaleList(ctx, saleListID)
	if err != nil {
		return Resolution{}, err
	}

	policy := EvaluatePolicy(actor.Role, saleList.OwnerSellerID, actor.SellerID)
	if !policy.AllowedSaleListScope.Permits(*saleList, actor.SellerID) {
		return Resolution{}, ErrSalePriceListInvalid
	}

	costPrices, err := r.Prices(ctx, *costList)
	if err != nil {
		return Resolution{}, err
	}
	salePrices, err := r.Prices(ctx, *saleList)
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		CostList:   *costList,
		SaleList:   *saleList,
		CostPrices: costPrices,
		SalePrices: salePrices,
		Policy:     policy,
	}, nil
}

func refOf(list model.PriceList) model.PriceListRef {
	return model.PriceListRef{ID: list.ID, Name: list.Name, EffectiveFrom: list.EffectiveFrom}
}
