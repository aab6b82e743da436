package service

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
)

// Step is one planned change against a single product. The first step of a
// plan targets the product the operation was called for; the rest are its
// bundle components and associated products with already scaled quantities.
type Step struct {
	ProductID   string
	Quantity    int
	Attributes  domain.CustomAttributes
	WarehouseID string
	Cascaded    bool
}

// ProductLoader loads a product with its owned rows. It returns a NotFound
// error for unknown ids.
type ProductLoader func(ctx context.Context, productID string) (*domain.Product, error)

type Planner struct {
	parser AttributeParser
}

func NewPlanner(parser AttributeParser) *Planner {
	return &Planner{parser: parser}
}

// Plan expands an operation on root into the list of per-product steps it
// implies. Missing components are skipped. Nothing is mutated.
//
// Cascaded products receive no attributes, so the expansion never goes more
// than one level below root.
func (pl *Planner) Plan(ctx context.Context, root *domain.Product, quantity int, attrs domain.CustomAttributes, warehouseID string, load ProductLoader) ([]Step, error) {
	if root == nil {
		return nil, apperrors.NewInvalidArgumentError("product", "must not be nil")
	}

	var steps []Step
	if err := pl.expand(ctx, root, quantity, attrs, warehouseID, 0, load, &steps); err != nil {
		return nil, err
	}

	return steps, nil
}

func (pl *Planner) expand(ctx context.Context, p *domain.Product, quantity int, attrs domain.CustomAttributes, warehouseID string, depth int, load ProductLoader, steps *[]Step) error {
	if quantity == 0 {
		return nil
	}

	*steps = append(*steps, Step{
		ProductID:   p.ID,
		Quantity:    quantity,
		Attributes:  attrs,
		WarehouseID: warehouseID,
		Cascaded:    depth > 0,
	})

	if _, ok := p.StockPolicy().(domain.ByBundle); ok {
		components := make([]domain.BundleProduct, len(p.BundleProducts))
		copy(components, p.BundleProducts)
		sort.SliceStable(components, func(i, j int) bool { return components[i].DisplayOrder < components[j].DisplayOrder })

		for _, bp := range components {
			component, err := loadOptional(ctx, load, bp.ProductID)
			if err != nil {
				return err
			}
			if component == nil || !component.Journaled() || bp.Quantity == 0 {
				continue
			}
			*steps = append(*steps, Step{
				ProductID:   component.ID,
				Quantity:    quantity * bp.Quantity,
				WarehouseID: warehouseID,
				Cascaded:    true,
			})
		}
	}

	for _, v := range pl.parser.ParseValues(p, attrs) {
		if v.ValueType != domain.AttributeValueAssociatedToProduct {
			continue
		}
		associated, err := loadOptional(ctx, load, v.AssociatedProductID)
		if err != nil {
			return err
		}
		if associated == nil {
			continue
		}
		if err := pl.expand(ctx, associated, quantity*v.Quantity, nil, warehouseID, depth+1, load, steps); err != nil {
			return err
		}
	}

	return nil
}

func loadOptional(ctx context.Context, load ProductLoader, productID string) (*domain.Product, error) {
	if productID == "" {
		return nil, nil
	}
	p, err := load(ctx, productID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, nil
		}
		return nil, fmt.Errorf("loading product %s: %w", productID, err)
	}
	return p, nil
}

// ProductIDs returns the distinct product ids of a plan in ascending order,
// the order in which rows must be locked.
func ProductIDs(steps []Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ProductID
	}
	return SortedIDs(ids)
}

// SortedIDs returns ids sorted ascending without duplicates.
func SortedIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return slices.Compact(out)
}
