// internal/core/domain/values.go
package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

// Values is a write payload. A nil field is absent and left untouched.
type Values struct {
	Name          *string
	ProductID     *int64
	Price         *int64
	Quantity      *int64
	Supplier      *Supplier
	SupplierPhone *string
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// IsEmpty reports whether no field is present.
func (v Values) IsEmpty() bool {
	return len(v.Columns()) == 0
}

// HasProductRef reports whether the payload names a product by id or name.
func (v Values) HasProductRef() bool {
	return v.ProductID != nil || v.Name != nil
}

// Columns maps present fields to their column names.
func (v Values) Columns() map[string]any {
	cols := make(map[string]any, 6)
	if v.Name != nil {
		cols["name"] = *v.Name
	}
	if v.ProductID != nil {
		cols["product_id"] = *v.ProductID
	}
	if v.Price != nil {
		cols["price"] = *v.Price
	}
	if v.Quantity != nil {
		cols["quantity"] = *v.Quantity
	}
	if v.Supplier != nil {
		cols["supplier"] = string(*v.Supplier)
	}
	if v.SupplierPhone != nil {
		cols["supplier_phone"] = *v.SupplierPhone
	}
	return cols
}

// DecodeValues reads a JSON object into Values. Unknown keys and explicit
// nulls are rejected so a partial update never guesses at intent.
func DecodeValues(data []byte) (Values, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Values{}, InvalidValue("payload", "body must be a JSON object")
	}

	var v Values
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		msg := raw[key]
		if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			if key == "name" || key == "price" {
				return Values{}, MissingField(key)
			}
			return Values{}, InvalidValue(key, "must not be null")
		}

		var err error
		switch key {
		case "name":
			v.Name, err = decodeField[string](key, msg, "must be a string")
		case "product_id":
			v.ProductID, err = decodeField[int64](key, msg, "must be an integer")
		case "price":
			v.Price, err = decodeField[int64](key, msg, "must be an integer")
		case "quantity":
			v.Quantity, err = decodeField[int64](key, msg, "must be an integer")
		case "supplier_phone":
			v.SupplierPhone, err = decodeField[string](key, msg, "must be a string")
		case "supplier":
			var name *string
			name, err = decodeField[string](key, msg, "must be a string")
			if err == nil {
				v.Supplier = Ptr(Supplier(strings.ToLower(strings.TrimSpace(*name))))
			}
		default:
			err = InvalidValue(key, "unknown field")
		}
		if err != nil {
			return Values{}, err
		}
	}

	return v, nil
}

func decodeField[T any](key string, msg json.RawMessage, reason string) (*T, error) {
	var out T
	if err := json.Unmarshal(msg, &out); err != nil {
		return nil, InvalidValue(key, reason)
	}
	return &out, nil
}

// Filter is an equality filter keyed by column name.
type Filter map[string]any

// Sort orders query results by one column.
type Sort struct {
	Field string
	Desc  bool
}

// ParseSort reads "field" or "-field".
func ParseSort(s string) Sort {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return Sort{Field: strings.TrimPrefix(s, "-"), Desc: true}
	}
	return Sort{Field: s}
}
