// internal/core/domain/validation.go
package domain

import "strings"

// ValidateInsert checks a full payload for a new row of collection c.
func ValidateInsert(c Collection, v Values) error {
	if v.Name == nil || strings.TrimSpace(*v.Name) == "" {
		return MissingField("name")
	}
	if v.Price == nil {
		return MissingField("price")
	}
	return validatePresent(c, v, true)
}

// ValidateUpdate checks only the fields present in a partial payload.
func ValidateUpdate(c Collection, v Values) error {
	if v.Name != nil && strings.TrimSpace(*v.Name) == "" {
		return MissingField("name")
	}
	return validatePresent(c, v, false)
}

// validatePresent checks fields in order: price, quantity, supplier,
// product_id.
func validatePresent(c Collection, v Values, requireSupplier bool) error {
	if v.Price != nil && *v.Price < 0 {
		return InvalidValue("price", "must not be negative")
	}
	if v.Quantity != nil && *v.Quantity < 0 {
		return InvalidValue("quantity", "must not be negative")
	}
	if v.Supplier == nil {
		if requireSupplier {
			return InvalidValue("supplier", "supplier is required")
		}
	} else if !v.Supplier.IsValid() {
		return InvalidValue("supplier", "not a known supplier")
	}
	if v.ProductID != nil {
		if c != CollectionSales {
			return InvalidValue("product_id", "only sales reference a product")
		}
		if *v.ProductID <= 0 {
			return InvalidValue("product_id", "must be positive")
		}
	}
	return nil
}
