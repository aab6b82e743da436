package attribute

import "stockroom/internal/domain"

// Parser resolves a raw attribute selection against a product's attribute
// combinations and attribute values.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// FindCombination returns the combination whose attribute set matches attrs
// exactly, or nil.
func (p *Parser) FindCombination(product *domain.Product, attrs domain.CustomAttributes) *domain.AttributeCombination {
	if product == nil || len(attrs) == 0 {
		return nil
	}

	for i := range product.Combinations {
		if product.Combinations[i].Attributes.Equal(attrs) {
			return &product.Combinations[i]
		}
	}

	return nil
}

// ParseValues decodes the selected attribute values. A selection whose key
// or value is unknown to the product is ignored.
func (p *Parser) ParseValues(product *domain.Product, attrs domain.CustomAttributes) []domain.AttributeValue {
	if product == nil || len(attrs) == 0 {
		return nil
	}

	var values []domain.AttributeValue
	for _, a := range attrs {
		for _, v := range product.AttributeValues {
			if v.AttributeMappingID == a.Key && v.ID == a.Value {
				values = append(values, v)
			}
		}
	}

	return values
}
