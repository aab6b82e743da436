package service

import (
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"

	"stockroom/internal/domain"
	"stockroom/internal/localization"
)

type StockMessageFormatter struct {
	bundle *i18n.Bundle
	parser AttributeParser
}

func NewStockMessageFormatter(bundle *i18n.Bundle, parser AttributeParser) *StockMessageFormatter {
	return &StockMessageFormatter{bundle: bundle, parser: parser}
}

// FormatStockMessage renders the availability line shown next to a product,
// counted with q. It is empty when the product does not display its
// availability or its stock is not tracked.
func (f *StockMessageFormatter) FormatStockMessage(p *domain.Product, q StockQuery, attrs domain.CustomAttributes, lang string) string {
	if p == nil || !p.DisplayStockAvailability {
		return ""
	}

	switch policy := p.StockPolicy().(type) {
	case domain.BySimpleStock:
		available := TotalStockQuantity(p, q)
		if available > 0 {
			return f.inStock(lang, available, p.DisplayStockQuantity)
		}
		if p.BackorderMode == domain.AllowQtyBelowZero {
			return f.localize(lang, localization.MsgBackordering, nil)
		}
		return f.localize(lang, localization.MsgOutOfStock, nil)

	case domain.ByAttributeCombination:
		c := f.parser.FindCombination(p, attrs)
		if c == nil {
			return f.localize(lang, localization.MsgAttributeCombinationNotExist, nil)
		}
		available := CombinationStockQuantity(p, c, q)
		if available > 0 {
			return f.inStock(lang, available, p.DisplayStockQuantity)
		}
		if c.AllowOutOfStockOrders {
			return f.localize(lang, localization.MsgBackordering, nil)
		}
		return f.localize(lang, localization.MsgOutOfStock, nil)

	case domain.ByBundle, domain.Untracked:
		return ""
	default:
		panic(fmt.Sprintf("unhandled stock policy %T", policy))
	}
}

func (f *StockMessageFormatter) inStock(lang string, available int, displayQuantity bool) string {
	if displayQuantity {
		return f.localize(lang, localization.MsgInStockWithQuantity, map[string]interface{}{"Quantity": available})
	}
	return f.localize(lang, localization.MsgInStock, nil)
}

func (f *StockMessageFormatter) localize(lang, id string, data map[string]interface{}) string {
	return localization.Localize(f.bundle, lang, id, data)
}
