// internal/core/domain/inventory.go
package domain

import "time"

// Entity is a row of either collection.
type Entity interface {
	EntityID() int64
	Collection() Collection
}

// Product is a stock record.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Price         int64     `json:"price"`
	Quantity      int64     `json:"quantity"`
	Supplier      Supplier  `json:"supplier"`
	SupplierPhone string    `json:"supplier_phone"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (p Product) EntityID() int64        { return p.ID }
func (p Product) Collection() Collection { return CollectionProducts }

// Sale is a recorded sale. ProductID is the resolved stock record, if any;
// ProductName is kept for display and for name-based matching.
type Sale struct {
	ID            int64     `json:"id"`
	ProductID     *int64    `json:"product_id,omitempty"`
	ProductName   string    `json:"name"`
	Price         int64     `json:"price"`
	Quantity      int64     `json:"quantity"`
	Supplier      Supplier  `json:"supplier"`
	SupplierPhone string    `json:"supplier_phone"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s Sale) EntityID() int64        { return s.ID }
func (s Sale) Collection() Collection { return CollectionSales }

// NewProduct builds a product from a validated insert payload.
func NewProduct(v Values) Product {
	p := Product{Supplier: SupplierUnknown}
	if v.Name != nil {
		p.Name = *v.Name
	}
	if v.Price != nil {
		p.Price = *v.Price
	}
	if v.Quantity != nil {
		p.Quantity = *v.Quantity
	}
	if v.Supplier != nil {
		p.Supplier = *v.Supplier
	}
	if v.SupplierPhone != nil {
		p.SupplierPhone = *v.SupplierPhone
	}
	return p
}

// NewSale builds a sale from a validated insert payload.
func NewSale(v Values) Sale {
	s := Sale{Supplier: SupplierUnknown, ProductID: v.ProductID}
	if v.Name != nil {
		s.ProductName = *v.Name
	}
	if v.Price != nil {
		s.Price = *v.Price
	}
	if v.Quantity != nil {
		s.Quantity = *v.Quantity
	}
	if v.Supplier != nil {
		s.Supplier = *v.Supplier
	}
	if v.SupplierPhone != nil {
		s.SupplierPhone = *v.SupplierPhone
	}
	return s
}

// Change announces that a collection, and optionally one row, changed.
type Change struct {
	Collection Collection `json:"collection"`
	Op         Operation  `json:"op"`
	ID         *int64     `json:"id,omitempty"`
	At         time.Time  `json:"at"`
}

// NewChange stamps a change with the current time.
func NewChange(c Collection, op Operation, id *int64) Change {
	return Change{Collection: c, Op: op, ID: id, At: time.Now().UTC()}
}
