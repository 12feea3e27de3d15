package rest

import (
	"net/http"

	"github.com/abgdnv/webstore/internal/service"
	"github.com/abgdnv/webstore/internal/store"
	"github.com/abgdnv/webstore/pkg/web"
)

// QueryProducts lists one page of the filtered and sorted catalog.
func (h *Handler) QueryProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	dto, ok := h.parseQuery(w, r)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received product query", "query", dto)

	result, err := h.service.QueryProducts(r.Context(), identityOf(r), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Product query completed", "total", result.TotalElements, "returned", len(result.Content))
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

func (h *Handler) parseQuery(w http.ResponseWriter, r *http.Request) (service.QueryDto, bool) {
	mLogger := h.loggerWithReqID(r)
	q := r.URL.Query()
	dto := service.QueryDto{
		Sort:      q.Get("sort"),
		Direction: q.Get("direction"),
		Search:    q.Get("q"),
	}
	var ok bool
	if dto.Page, ok = web.QueryIntGte(r, w, mLogger, "page", 0, 0); !ok {
		return dto, false
	}
	if dto.Size, ok = web.QueryIntGt(r, w, mLogger, "size", 0, 0); !ok {
		return dto, false
	}
	if dto.CategoryID, ok = web.QueryInt64(r, w, mLogger, "categoryId"); !ok {
		return dto, false
	}
	if dto.Clothing, ok = web.QueryBool(r, w, mLogger, "clothing"); !ok {
		return dto, false
	}
	if dto.MinPrice, ok = web.QueryDecimal(r, w, mLogger, "minPrice"); !ok {
		return dto, false
	}
	if dto.MaxPrice, ok = web.QueryDecimal(r, w, mLogger, "maxPrice"); !ok {
		return dto, false
	}
	favoritesOnly, ok := web.QueryBool(r, w, mLogger, "favoritesOnly")
	if !ok {
		return dto, false
	}
	dto.FavoritesOnly = favoritesOnly != nil && *favoritesOnly
	return dto, true
}

// GetProduct retrieves a product by its ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to retrieve product")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// NextReference suggests the reference of the next product.
func (h *Handler) NextReference(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	ref, err := h.service.NextReference(r.Context())
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to generate reference")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"reference": ref})
}

// CreateProduct handles the creation of a new product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var in store.ProductInput
	if !web.DecodeJSON(w, r, mLogger, &in) {
		return
	}
	created, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var in store.ProductInput
	if !web.DecodeJSON(w, r, mLogger, &in) {
		return
	}
	updated, err := h.service.UpdateProduct(r.Context(), id, in)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to update product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

func (h *Handler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var patch store.ProductPatch
	if !web.DecodeJSON(w, r, mLogger, &patch) {
		return
	}
	updated, err := h.service.PatchProduct(r.Context(), id, patch)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to update product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product patched successfully", "ID", updated.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteProduct deletes a product by its ID.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to delete product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to fetch categories")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var in store.CategoryInput
	if !web.DecodeJSON(w, r, mLogger, &in) {
		return
	}
	created, err := h.service.CreateCategory(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to create category")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var in store.CategoryInput
	if !web.DecodeJSON(w, r, mLogger, &in) {
		return
	}
	updated, err := h.service.UpdateCategory(r.Context(), id, in)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to update category")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
