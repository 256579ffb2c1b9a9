// internal/core/domain/resource.go
package domain

import (
	"fmt"
	"strings"
)

// Collection names one of the addressable sets of rows.
type Collection string

const (
	CollectionProducts Collection = "products"
	CollectionSales    Collection = "sales"
)

// Operation is a kind of request against a collection.
type Operation string

const (
	OpQuery  Operation = "query"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Supplier is the closed set of vendors a product or sale may reference.
type Supplier string

const (
	SupplierUnknown   Supplier = "unknown"
	SupplierKamuel    Supplier = "kamuel"
	SupplierWalkair   Supplier = "walkair"
	SupplierDepedro   Supplier = "depedro"
	SupplierNike      Supplier = "nike"
	SupplierForex     Supplier = "forex"
	SupplierForsclass Supplier = "forsclass"
)

var suppliers = []Supplier{
	SupplierUnknown,
	SupplierKamuel,
	SupplierWalkair,
	SupplierDepedro,
	SupplierNike,
	SupplierForex,
	SupplierForsclass,
}

// Suppliers returns all known suppliers.
func Suppliers() []Supplier {
	out := make([]Supplier, len(suppliers))
	copy(out, suppliers)
	return out
}

// ParseSupplier resolves a supplier name case-insensitively.
func ParseSupplier(s string) (Supplier, error) {
	candidate := Supplier(strings.ToLower(strings.TrimSpace(s)))
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", InvalidValue("supplier", fmt.Sprintf("unknown supplier %q", s))
}

// IsValid reports whether s is one of the enumerated suppliers.
func (s Supplier) IsValid() bool {
	for _, known := range suppliers {
		if s == known {
			return true
		}
	}
	return false
}

// DisplayName returns the supplier as shown on sheets and labels.
func (s Supplier) DisplayName() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}
