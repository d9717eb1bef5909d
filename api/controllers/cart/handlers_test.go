package cart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	cartsvc "github.com/angelmondragon/shopcart/internal/cart"
	"github.com/angelmondragon/shopcart/pkg/cartstate"
	pkgerrors "github.com/angelmondragon/shopcart/pkg/errors"
	"github.com/angelmondragon/shopcart/pkg/types"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, err := cartsvc.NewService(cartsvc.NewMemoryRepository())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	r := chi.NewRouter()
	r.Get("/cart", CartFetch(svc, nil))
	r.Delete("/cart", CartClear(svc, nil))
	r.Post("/cart/item", ItemAdd(svc, nil))
	r.Put("/cart/item/{itemId}", ItemUpdate(svc, nil))
	r.Delete("/cart/item/{itemId}", ItemRemove(svc, nil))
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

const addBody = `{"productId":"p","variantId":"v/1","inventoryId":"i","sku":"SKU","name":"Tee","colorName":"Red","size":"M","image":"https://img","price":19.99,"quantity":1,"stock":5}`

func TestCartFetchEmptyReturnsArray(t *testing.T) {
	resp := serve(newTestRouter(t), http.MethodGet, "/cart", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := strings.TrimSpace(resp.Body.String()); got != "[]" {
		t.Fatalf("expected empty array got %s", got)
	}
}

func TestItemLifecycle(t *testing.T) {
	h := newTestRouter(t)

	resp := serve(h, http.MethodPost, "/cart/item", addBody)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var added cartstate.CartLine
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := added.ID()
	if id != "p-v/1-i" {
		t.Fatalf("unexpected id %s", id)
	}

	path := "/cart/item/" + url.PathEscape(id)
	resp = serve(h, http.MethodPut, path, `{"quantity":3}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var updated cartstate.CartLine
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Quantity != 3 {
		t.Fatalf("expected quantity 3 got %d", updated.Quantity)
	}

	resp = serve(h, http.MethodDelete, path, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	resp = serve(h, http.MethodDelete, path, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete got %d", resp.Code)
	}
}

func TestItemIDWithPercentAndSpacesIsNotDecodedTwice(t *testing.T) {
	h := newTestRouter(t)

	body := `{"productId":"sku%41 ","variantId":" v","inventoryId":"i","price":2,"quantity":1}`
	resp := serve(h, http.MethodPost, "/cart/item", body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	id := cartstate.LineID("sku%41 ", " v", "i")
	path := "/cart/item/" + url.PathEscape(id)
	resp = serve(h, http.MethodPut, path, `{"quantity":4}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var updated cartstate.CartLine
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.ID() != id || updated.Quantity != 4 {
		t.Fatalf("unexpected line %+v", updated)
	}

	resp = serve(h, http.MethodDelete, path, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d: %s", resp.Code, resp.Body.String())
	}
	resp = serve(h, http.MethodGet, "/cart", "")
	if got := strings.TrimSpace(resp.Body.String()); got != "[]" {
		t.Fatalf("expected empty cart got %s", got)
	}
}

func TestItemAddRejectsInvalidBody(t *testing.T) {
	h := newTestRouter(t)
	resp := serve(h, http.MethodPost, "/cart/item", `{"productId":"p","quantity":0}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestItemUpdateStockConflict(t *testing.T) {
	h := newTestRouter(t)
	serve(h, http.MethodPost, "/cart/item", addBody)

	resp := serve(h, http.MethodPut, "/cart/item/"+url.PathEscape("p-v/1-i"), `{"quantity":9}`)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Message != "only 5 left in stock" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestCartClear(t *testing.T) {
	h := newTestRouter(t)
	serve(h, http.MethodPost, "/cart/item", addBody)

	if resp := serve(h, http.MethodDelete, "/cart", ""); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if got := strings.TrimSpace(serve(h, http.MethodGet, "/cart", "").Body.String()); got != "[]" {
		t.Fatalf("expected empty cart got %s", got)
	}
}
