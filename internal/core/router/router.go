// internal/core/router/router.go
package router

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ammerola/inventory-be/internal/core/domain"
)

type columnKind int

const (
	kindInt columnKind = iota
	kindText
	kindTime
)

type route struct {
	columns map[string]columnKind
}

var routes = map[domain.Collection]route{
	domain.CollectionProducts: {
		columns: map[string]columnKind{
			"id":             kindInt,
			"name":           kindText,
			"price":          kindInt,
			"quantity":       kindInt,
			"supplier":       kindText,
			"supplier_phone": kindText,
			"created_at":     kindTime,
			"updated_at":     kindTime,
		},
	},
	domain.CollectionSales: {
		columns: map[string]columnKind{
			"id":             kindInt,
			"product_id":     kindInt,
			"name":           kindText,
			"price":          kindInt,
			"quantity":       kindInt,
			"supplier":       kindText,
			"supplier_phone": kindText,
			"created_at":     kindTime,
		},
	},
}

// Target is a resolved resource: the collection to touch and the row selector.
type Target struct {
	Collection domain.Collection
	RowID      *int64
	Filter     domain.Filter
}

// IsRow reports whether the target addresses a single row.
func (t Target) IsRow() bool {
	return t.RowID != nil
}

// Resolve maps an operation on a resource path ("sales", "sales/12") to its
// target. A row id replaces any caller filter. Filter values given as
// strings are converted to the column type.
func Resolve(op domain.Operation, path string, filter domain.Filter) (Target, error) {
	collection, rowID, err := parsePath(op, path)
	if err != nil {
		return Target{}, err
	}

	rt := routes[collection]
	target := Target{Collection: collection}

	if rowID != nil {
		if op == domain.OpInsert {
			return Target{}, &domain.ResourceError{Op: op, Path: path, Reason: "insert targets a collection, not a row"}
		}
		target.RowID = rowID
		target.Filter = domain.Filter{"id": *rowID}
		return target, nil
	}

	normalized, err := normalizeFilter(rt, filter)
	if err != nil {
		return Target{}, err
	}
	target.Filter = normalized

	return target, nil
}

// ValidateSort checks that s orders by a column of collection c.
func ValidateSort(c domain.Collection, s domain.Sort) error {
	if s.Field == "" {
		return nil
	}
	rt, ok := routes[c]
	if !ok {
		return &domain.ResourceError{Op: domain.OpQuery, Path: string(c)}
	}
	if _, ok := rt.columns[s.Field]; !ok {
		return domain.InvalidValue("sort", fmt.Sprintf("unknown column %q", s.Field))
	}
	return nil
}

func parsePath(op domain.Operation, path string) (domain.Collection, *int64, error) {
	trimmed := strings.Trim(path, "/")
	name, idPart, hasID := strings.Cut(trimmed, "/")

	collection := domain.Collection(name)
	if _, ok := routes[collection]; !ok {
		return "", nil, &domain.ResourceError{Op: op, Path: path, Reason: "unknown collection"}
	}
	if !hasID {
		return collection, nil, nil
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return "", nil, &domain.ResourceError{Op: op, Path: path, Reason: "row id must be a positive integer"}
	}
	return collection, &id, nil
}

func normalizeFilter(rt route, filter domain.Filter) (domain.Filter, error) {
	out := make(domain.Filter, len(filter))
	for key, value := range filter {
		kind, ok := rt.columns[key]
		if !ok {
			return nil, domain.InvalidValue(key, "not a filterable column")
		}

		s, isString := value.(string)
		if !isString || kind != kindInt {
			out[key] = value
			continue
		}

		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, domain.InvalidValue(key, "must be an integer")
		}
		out[key] = n
	}
	return out, nil
}
