package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/hackura/cybershelf/internal/services/auth"
	purchasesvc "github.com/hackura/cybershelf/internal/services/purchases"
	"github.com/hackura/cybershelf/internal/transport/http/dto"
	httperrors "github.com/hackura/cybershelf/internal/transport/http/errors"
)

type LibraryHandler struct {
	purchases *purchasesvc.Service
}

func NewLibraryHandler(purchases *purchasesvc.Service) *LibraryHandler {
	return &LibraryHandler{purchases: purchases}
}

func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.purchases == nil {
		writeInternal(w, "LIBRARY_SERVICE_UNAVAILABLE", "library service is unavailable")
		return
	}

	items, err := h.purchases.Library(r.Context(), identity.BuyerID)
	if err != nil {
		if errors.Is(err, purchasesvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid library request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load library")
		return
	}

	resp := dto.LibraryResponse{Items: make([]dto.LibraryItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.LibraryItemResponse{
			BookID:      item.BookID,
			Title:       item.Title,
			Reference:   item.Reference,
			FinalPrice:  item.FinalPrice.StringFixed(2),
			PurchasedAt: item.PurchasedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, resp)
}
