package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
	"github.com/ammerola/inventory-be/internal/handlers"
	"github.com/ammerola/inventory-be/test/helpers"
	"github.com/ammerola/inventory-be/test/mocks"
)

func newResourceMux(t *testing.T, maxBody int64) (*http.ServeMux, *mocks.MockInventoryService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := mocks.NewMockInventoryService(ctrl)

	mux := http.NewServeMux()
	handlers.NewResourceHandler(service, maxBody, helpers.TestLogger()).Register(mux)
	return mux, service
}

func seqOf(rows ...domain.Entity) iter.Seq2[domain.Entity, error] {
	return func(yield func(domain.Entity, error) bool) {
		for _, row := range rows {
			if !yield(row, nil) {
				return
			}
		}
	}
}

func serve(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestResourceHandler_Query(t *testing.T) {
	mux, service := newResourceMux(t, 0)

	first := helpers.CreateTestProduct()
	second := helpers.CreateTestProduct(func(p *domain.Product) {
		p.ID = 2
		p.Quantity = 10
	})

	service.EXPECT().
		Query(gomock.Any(), "products", ports.QueryOptions{
			Filter: domain.Filter{"name": "FC176"},
			Sort:   domain.Sort{Field: "quantity", Desc: true},
		}).
		Return(seqOf(*first, *second), nil)

	w := serve(mux, http.MethodGet, "/api/v1/products?name=FC176&sort=-quantity", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var rows []domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, int64(445), rows[0].Quantity)
	assert.Equal(t, int64(2), rows[1].ID)
}

func TestResourceHandler_QueryEmptyIsArray(t *testing.T) {
	mux, service := newResourceMux(t, 0)

	service.EXPECT().
		Query(gomock.Any(), "sales/9", gomock.Any()).
		Return(seqOf(), nil)

	w := serve(mux, http.MethodGet, "/api/v1/sales/9", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestResourceHandler_QueryStreamError(t *testing.T) {
	mux, service := newResourceMux(t, 0)

	failing := func(yield func(domain.Entity, error) bool) {
		yield(nil, domain.NewPersistenceError("query products", errors.New("connection reset")))
	}
	service.EXPECT().Query(gomock.Any(), "products", gomock.Any()).Return(failing, nil)

	w := serve(mux, http.MethodGet, "/api/v1/products", "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "Internal Server Error", body.Error)
	assert.Equal(t, "persistence", body.Kind)
}

func TestResourceHandler_Insert(t *testing.T) {
	mux, service := newResourceMux(t, 0)

	service.EXPECT().
		Insert(gomock.Any(), "sales", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, v domain.Values) (int64, error) {
			require.NotNil(t, v.Name)
			require.NotNil(t, v.Quantity)
			require.NotNil(t, v.Supplier)
			assert.Equal(t, "FC176", *v.Name)
			assert.Equal(t, int64(100), *v.Quantity)
			assert.Equal(t, domain.SupplierForex, *v.Supplier)
			assert.Nil(t, v.ProductID)
			return 7, nil
		})

	w := serve(mux, http.MethodPost, "/api/v1/sales",
		`{"name":"FC176","price":1000,"quantity":100,"supplier":"forex"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())
}

func TestResourceHandler_InsertBadBody(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		maxBody    int64
		wantStatus int
		wantKind   string
	}{
		{
			name:       "not_json",
			body:       `name=FC176`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_value",
		},
		{
			name:       "json_array",
			body:       `[1,2]`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_value",
		},
		{
			name:       "null_name",
			body:       `{"name":null,"price":1}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "missing_field",
		},
		{
			name:       "body_too_large",
			body:       `{"name":"` + strings.Repeat("x", 64) + `"}`,
			maxBody:    16,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The service must not be reached.
			mux, _ := newResourceMux(t, tt.maxBody)

			w := serve(mux, http.MethodPost, "/api/v1/products", tt.body)

			require.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantKind, decodeError(t, w).Kind)
		})
	}
}

func TestResourceHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		check      func(*testing.T, handlers.ErrorResponse)
	}{
		{
			name:       "unsupported_resource",
			err:        &domain.ResourceError{Op: domain.OpInsert, Path: "customers"},
			wantStatus: http.StatusNotFound,
			wantKind:   "unsupported_resource",
		},
		{
			name:       "missing_field",
			err:        domain.MissingField("price"),
			wantStatus: http.StatusBadRequest,
			wantKind:   "missing_field",
			check: func(t *testing.T, body handlers.ErrorResponse) {
				assert.Equal(t, "price", body.Field)
			},
		},
		{
			name:       "invalid_value",
			err:        domain.InvalidValue("supplier", "unknown supplier"),
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_value",
			check: func(t *testing.T, body handlers.ErrorResponse) {
				assert.Equal(t, "supplier", body.Field)
			},
		},
		{
			name:       "unmatched_product",
			err:        &domain.UnmatchedProductError{Name: "UNKNOWN176"},
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "unmatched_product",
		},
		{
			name:       "insufficient_stock",
			err:        &domain.InsufficientStockError{ProductID: 1, Name: "FC176", Available: 445, Requested: 500},
			wantStatus: http.StatusConflict,
			wantKind:   "insufficient_stock",
			check: func(t *testing.T, body handlers.ErrorResponse) {
				require.NotNil(t, body.Available)
				require.NotNil(t, body.Requested)
				assert.Equal(t, int64(445), *body.Available)
				assert.Equal(t, int64(500), *body.Requested)
			},
		},
		{
			name:       "persistence_hides_cause",
			err:        domain.NewPersistenceError("insert sale", errors.New("disk full")),
			wantStatus: http.StatusInternalServerError,
			wantKind:   "persistence",
			check: func(t *testing.T, body handlers.ErrorResponse) {
				assert.NotContains(t, body.Error, "disk full")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, service := newResourceMux(t, 0)
			service.EXPECT().Insert(gomock.Any(), "sales", gomock.Any()).Return(int64(0), tt.err)

			w := serve(mux, http.MethodPost, "/api/v1/sales",
				`{"name":"FC176","price":1000,"quantity":500}`)

			require.Equal(t, tt.wantStatus, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.wantKind, body.Kind)
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestResourceHandler_Update(t *testing.T) {
	mux, service := newResourceMux(t, 0)

	service.EXPECT().
		Update(gomock.Any(), "products/1", domain.Values{Quantity: domain.Ptr(int64(5))}, domain.Filter{}).
		Return(int64(1), nil)

	w := serve(mux, http.MethodPut, "/api/v1/products/1", `{"quantity":5}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rows":1}`, w.Body.String())
}

func TestResourceHandler_UpdateWithFilter(t *testing.T) {
	mux, service := newResourceMux(t, 0)

	service.EXPECT().
		Update(gomock.Any(), "products", gomock.Any(), domain.Filter{"supplier": "forex"}).
		Return(int64(3), nil)

	w := serve(mux, http.MethodPut, "/api/v1/products?supplier=forex", `{"price":1200}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rows":3}`, w.Body.String())
}

func TestResourceHandler_Delete(t *testing.T) {
	mux, service := newResourceMux(t, 0)

	service.EXPECT().
		Delete(gomock.Any(), "sales", domain.Filter{"name": "FC176"}).
		Return(int64(2), nil)

	w := serve(mux, http.MethodDelete, "/api/v1/sales?name=FC176", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rows":2}`, w.Body.String())
}
