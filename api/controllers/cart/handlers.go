package cart

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shopcart/api/responses"
	"github.com/angelmondragon/shopcart/api/validators"
	cartsvc "github.com/angelmondragon/shopcart/internal/cart"
	"github.com/angelmondragon/shopcart/pkg/cartstate"
	pkgerrors "github.com/angelmondragon/shopcart/pkg/errors"
	"github.com/angelmondragon/shopcart/pkg/logger"
)

const maxItemIDLen = 512

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

// CartFetch returns every line in the cart as a JSON array.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		lines, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if lines == nil {
			lines = []cartstate.CartLine{}
		}
		responses.WriteJSON(w, http.StatusOK, lines)
	}
}

// ItemAdd stores a line, merging quantities when the identity already exists.
func ItemAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartstate.CartLine
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.AddItem(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusCreated, line)
	}
}

// ItemUpdate sets the quantity of the line named in the path.
func ItemUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.UpdateQuantity(r.Context(), itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, line)
	}
}

// ItemRemove deletes the line named in the path.
func ItemRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveItem(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// CartClear removes every line.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		if err := svc.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// itemIDParam returns the line id from the path exactly as the client built it. chi
// matches on RawPath when the request has one, leaving the segment escaped; otherwise
// the segment is already decoded and must not be unescaped again. Ids are opaque, so
// surrounding whitespace is kept.
func itemIDParam(r *http.Request) (string, error) {
	itemID := chi.URLParam(r, "itemId")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(itemID)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
		}
		itemID = unescaped
	}
	if itemID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if len(itemID) > maxItemIDLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "item id too long")
	}
	return itemID, nil
}
