package web

import (
	"fmt"
	"net/http"

	"github.com/vbonduro/pantry/internal/domain"
	"github.com/vbonduro/pantry/internal/inventory"
	"github.com/vbonduro/pantry/internal/service"
)

type itemJSON struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Quantity    int    `json:"quantity"`
}

func toItemsJSON(items []domain.Item) []itemJSON {
	out := make([]itemJSON, 0, len(items))
	for _, it := range items {
		out = append(out, itemJSON{
			Name:        it.Name,
			DisplayName: inventory.DisplayName(it.Name),
			Quantity:    it.Quantity,
		})
	}
	return out
}

type inventoryResponse struct {
	Items []itemJSON `json:"items"`
	Dirty bool       `json:"dirty"`
}

func toInventoryResponse(v *service.InventoryView) inventoryResponse {
	return inventoryResponse{Items: toItemsJSON(v.Items), Dirty: v.Dirty}
}

func parseListOptions(r *http.Request) (inventory.ListOptions, error) {
	q := r.URL.Query()
	opts := inventory.ListOptions{Query: q.Get("q"), SortBy: inventory.SortByName}

	switch sortBy := q.Get("sort"); sortBy {
	case "", string(inventory.SortByName):
	case string(inventory.SortByQuantity):
		opts.SortBy = inventory.SortByQuantity
	default:
		return opts, fmt.Errorf("unknown sort field %q", sortBy)
	}

	switch order := q.Get("order"); order {
	case "", "asc":
	case "desc":
		opts.Descending = true
	default:
		return opts, fmt.Errorf("unknown sort order %q", order)
	}
	return opts, nil
}

func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts, err := parseListOptions(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	view, err := s.service.ListItems(token, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(view))
}

type itemRequest struct {
	Name string `json:"name"`
	// Quantity defaults to 1 when omitted.
	Quantity *int `json:"quantity"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	s.handleEdit(w, r, s.service.AddItem)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	s.handleEdit(w, r, s.service.RemoveItem)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, edit func(token, name string, qty int) (*service.InventoryView, error)) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	view, err := edit(token, req.Name, qty)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(view))
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.service.Sync(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"upserts": res.Upserts, "deletes": res.Deletes})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view, err := s.service.Reload(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(view))
}
