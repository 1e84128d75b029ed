package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront-browse/internal/catalog"
	"github.com/utafrali/storefront-browse/pkg/httputil"
)

// CategoryHandler serves the navigation category tree.
type CategoryHandler struct {
	tree   catalog.CategoryTreeProvider
	logger *slog.Logger
}

// NewCategoryHandler creates a new category HTTP handler.
func NewCategoryHandler(tree catalog.CategoryTreeProvider, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		tree:   tree,
		logger: logger,
	}
}

// GetTree handles GET /api/v1/browse/categories. The catalog's tree is
// passed through unchanged; when it cannot be fetched an empty tree is
// served instead of an error.
func (h *CategoryHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.tree.CategoryTree(r.Context())
	if err != nil || len(tree) == 0 {
		if err != nil {
			h.logger.WarnContext(r.Context(), "category tree unavailable, serving empty tree",
				slog.String("error", err.Error()),
			)
		}
		w.Header().Set("Cache-Control", "no-store")
		tree = json.RawMessage(`[]`)
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: tree})
}
