// Package api provides HTTP access to the inventory store. It is the only
// presentation surface the core knows about: JSON in, JSON or CSV out, with
// the shared PIN carried per-request in a header.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"labstock/internal/auth"
	"labstock/internal/blob"
	"labstock/internal/export"
	"labstock/internal/metrics"
	"labstock/pkg/domain"
)

// PinHeader carries the PIN candidate for protected operations. Obtaining the
// value from a user is entirely the client's concern.
const PinHeader = "X-Labstock-Pin"

// Handler routes inventory API requests.
type Handler struct {
	Store   domain.PersistentStore
	Gate    *auth.Gate
	Images  blob.Store
	Metrics *metrics.Metrics
}

// NewHandler constructs an inventory HTTP handler.
func NewHandler(store domain.PersistentStore, gate *auth.Gate, images blob.Store, m *metrics.Metrics) *Handler {
	return &Handler{Store: store, Gate: gate, Images: images, Metrics: m}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodGet && path == "/api/v1/inventory/search":
		h.handleSearch(w, r)
	case path == "/api/v1/settings":
		h.handleSettings(w, r)
	case path == "/api/v1/pin":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleChangePin(w, r)
	case strings.HasPrefix(path, "/api/v1/export/"):
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleExport(w, r, strings.TrimPrefix(path, "/api/v1/export/"))
	case strings.HasPrefix(path, "/api/v1/inventory/"):
		h.handleInventory(w, r, strings.TrimPrefix(path, "/api/v1/inventory/"))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request, remainder string) {
	segments := strings.Split(remainder, "/")
	category := domain.Category(segments[0])
	if !category.Valid() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown category %q", segments[0]))
		return
	}
	switch len(segments) {
	case 1:
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r, category)
		case http.MethodPost:
			h.handleCreate(w, r, category)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case 2:
		id := segments[1]
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, category, id)
		case http.MethodPut:
			h.handleUpdate(w, r, category, id)
		case http.MethodDelete:
			h.handleDelete(w, r, category, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case 3:
		h.handleItemAction(w, r, category, segments[1], segments[2])
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleItemAction(w http.ResponseWriter, r *http.Request, c domain.Category, id, action string) {
	switch action {
	case "consume":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleDeplete(w, r, c, id, false)
	case "damage":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleDeplete(w, r, c, id, true)
	case "log":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleLog(w, c, id)
	case "image":
		switch r.Method {
		case http.MethodPost:
			h.handleAttachImage(w, r, c, id)
		case http.MethodGet:
			h.handleFetchImage(w, r, c, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	default:
		http.NotFound(w, r)
	}
}

// requirePin rejects the request when the PIN header does not match. Every
// call stands alone; there is no session and no lockout.
func (h *Handler) requirePin(w http.ResponseWriter, r *http.Request) bool {
	if h.Gate.Authorize(r.Header.Get(PinHeader)) {
		return true
	}
	h.observeRejection("auth")
	writeError(w, http.StatusUnauthorized, "incorrect PIN")
	return false
}

// itemRequest is the create/update payload. Log sequences are never accepted
// from clients; they are owned by consume/damage.
type itemRequest struct {
	Name      string   `json:"name"`
	Quantity  float64  `json:"quantity"`
	Location  string   `json:"location"`
	Purchase  string   `json:"purchase"`
	ImageKey  string   `json:"image_key"`
	State     string   `json:"state"`
	Unit      string   `json:"unit"`
	Expiry    string   `json:"expiry"`
	Threshold *float64 `json:"threshold"`
	Specs     string   `json:"specs"`
	Status    string   `json:"status"`
}

func (req itemRequest) toItem() domain.Item {
	return domain.Item{
		Name:      strings.TrimSpace(req.Name),
		Quantity:  req.Quantity,
		Location:  req.Location,
		Purchase:  strings.TrimSpace(req.Purchase),
		ImageKey:  req.ImageKey,
		State:     domain.ChemicalState(req.State),
		Unit:      domain.Unit(req.Unit),
		Expiry:    strings.TrimSpace(req.Expiry),
		Threshold: req.Threshold,
		Specs:     req.Specs,
		Status:    domain.EquipmentStatus(req.Status),
	}
}

// itemView decorates an item with its derived alert flags for responses.
type itemView struct {
	domain.Item
	Alerts domain.Alerts `json:"alerts"`
}

func (h *Handler) decorate(it domain.Item) itemView {
	return itemView{Item: it, Alerts: domain.ComputeAlerts(it, h.Store.Settings())}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, c domain.Category) {
	items := h.Store.ListItems(c)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		filtered := items[:0]
		for _, hit := range h.Store.Search(q) {
			if hit.Category == c {
				filtered = append(filtered, hit.Item)
			}
		}
		items = filtered
	}
	views := make([]itemView, 0, len(items))
	for _, it := range items {
		views = append(views, h.decorate(it))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": views})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	hits := h.Store.Search(r.URL.Query().Get("q"))
	type hitView struct {
		Category domain.Category `json:"category"`
		Item     itemView        `json:"item"`
	}
	views := make([]hitView, 0, len(hits))
	for _, hit := range hits {
		views = append(views, hitView{Category: hit.Category, Item: h.decorate(hit.Item)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": views})
}

func (h *Handler) handleGet(w http.ResponseWriter, c domain.Category, id string) {
	it, ok := h.Store.GetItem(c, id)
	if !ok {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": h.decorate(it)})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request, c domain.Category) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.observeRejection("validation")
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode item: %v", err))
		return
	}
	var created domain.Item
	err := h.Store.RunInTransaction(r.Context(), func(tx domain.Transaction) error {
		var txErr error
		created, txErr = tx.CreateItem(c, req.toItem())
		return txErr
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.observeMutation(c, "create")
	writeJSON(w, http.StatusCreated, map[string]any{"item": h.decorate(created)})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, c domain.Category, id string) {
	if !h.requirePin(w, r) {
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.observeRejection("validation")
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode item: %v", err))
		return
	}
	var updated domain.Item
	err := h.Store.RunInTransaction(r.Context(), func(tx domain.Transaction) error {
		var txErr error
		updated, txErr = tx.UpdateItem(c, id, func(it *domain.Item) error {
			replacement := req.toItem()
			replacement.ID = it.ID
			*it = replacement
			return nil
		})
		return txErr
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.observeMutation(c, "update")
	writeJSON(w, http.StatusOK, map[string]any{"item": h.decorate(updated)})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, c domain.Category, id string) {
	if !h.requirePin(w, r) {
		return
	}
	imageKey := ""
	if it, ok := h.Store.GetItem(c, id); ok {
		imageKey = it.ImageKey
	}
	err := h.Store.RunInTransaction(r.Context(), func(tx domain.Transaction) error {
		return tx.DeleteItem(c, id)
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if imageKey != "" && h.Images != nil {
		// The image is owned by the item; a failed blob delete only leaks
		// storage, so the mutation result is not rolled back for it.
		_, _ = h.Images.Delete(r.Context(), imageKey)
	}
	h.observeMutation(c, "delete")
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

type depleteRequest struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
}

func (h *Handler) handleDeplete(w http.ResponseWriter, r *http.Request, c domain.Category, id string, damage bool) {
	if !h.requirePin(w, r) {
		return
	}
	var req depleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.observeRejection("validation")
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	action := "consume"
	var updated domain.Item
	err := h.Store.RunInTransaction(r.Context(), func(tx domain.Transaction) error {
		var txErr error
		if damage {
			action = "damage"
			whole := int(req.Amount)
			if req.Amount != float64(whole) {
				return domain.ValidationError{Field: "amount", Reason: "must be a whole number"}
			}
			updated, txErr = tx.RecordDamage(c, id, whole, req.Date)
		} else {
			updated, txErr = tx.Consume(c, id, req.Amount, req.Date)
		}
		return txErr
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.observeMutation(c, action)
	writeJSON(w, http.StatusOK, map[string]any{"item": h.decorate(updated)})
}

func (h *Handler) handleLog(w http.ResponseWriter, c domain.Category, id string) {
	it, ok := h.Store.GetItem(c, id)
	if !ok {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"consumption_log": it.ConsumptionLog,
		"damage_log":      it.DamageLog,
	})
}

func (h *Handler) handleAttachImage(w http.ResponseWriter, r *http.Request, c domain.Category, id string) {
	if !h.requirePin(w, r) {
		return
	}
	if h.Images == nil {
		writeError(w, http.StatusNotImplemented, "image storage not configured")
		return
	}
	current, ok := h.Store.GetItem(c, id)
	if !ok {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	contentType := r.Header.Get("Content-Type")
	if err := blob.ValidateContentType(contentType); err != nil {
		h.observeRejection("validation")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := blob.KeyFor(id, contentType)
	info, err := h.Images.Put(r.Context(), key, r.Body, contentType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("store image: %v", err))
		return
	}
	err = h.Store.RunInTransaction(r.Context(), func(tx domain.Transaction) error {
		_, txErr := tx.UpdateItem(c, id, func(it *domain.Item) error {
			it.ImageKey = key
			return nil
		})
		return txErr
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	// A content-type change moves the key extension; drop the superseded blob
	// so re-attachment does not orphan the old one.
	if current.ImageKey != "" && current.ImageKey != key {
		_, _ = h.Images.Delete(r.Context(), current.ImageKey)
	}
	h.observeMutation(c, "attach_image")
	writeJSON(w, http.StatusOK, map[string]any{"image": info})
}

func (h *Handler) handleFetchImage(w http.ResponseWriter, r *http.Request, c domain.Category, id string) {
	if h.Images == nil {
		writeError(w, http.StatusNotImplemented, "image storage not configured")
		return
	}
	it, ok := h.Store.GetItem(c, id)
	if !ok || it.ImageKey == "" {
		writeError(w, http.StatusNotFound, "no image for item")
		return
	}
	// Backends that can mint direct URLs (S3) serve the bytes themselves.
	if url, err := h.Images.Presign(r.Context(), it.ImageKey, 15*time.Minute); err == nil && url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	} else if err != nil && !errors.Is(err, blob.ErrUnsupported) {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("presign image: %v", err))
		return
	}
	info, body, err := h.Images.Get(r.Context(), it.ImageKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no image for item")
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("fetch image: %v", err))
		return
	}
	defer func() { _ = body.Close() }()
	w.Header().Set("Content-Type", info.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

type settingsRequest struct {
	LowThreshold   *float64 `json:"low_threshold"`
	NearExpiryDays *int     `json:"near_expiry_days"`
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s := h.Store.Settings()
		// The PIN never leaves the process.
		writeJSON(w, http.StatusOK, map[string]any{
			"low_threshold":    s.LowThreshold,
			"near_expiry_days": s.NearExpiryDays,
		})
	case http.MethodPut:
		if !h.requirePin(w, r) {
			return
		}
		var req settingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.observeRejection("validation")
			writeError(w, http.StatusBadRequest, fmt.Sprintf("decode settings: %v", err))
			return
		}
		var updated domain.Settings
		err := h.Store.RunInTransaction(r.Context(), func(tx domain.Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateSettings(func(s *domain.Settings) error {
				if req.LowThreshold != nil {
					s.LowThreshold = *req.LowThreshold
				}
				if req.NearExpiryDays != nil {
					s.NearExpiryDays = *req.NearExpiryDays
				}
				return nil
			})
			return txErr
		})
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"low_threshold":    updated.LowThreshold,
			"near_expiry_days": updated.NearExpiryDays,
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type changePinRequest struct {
	Current      string `json:"current"`
	Proposed     string `json:"proposed"`
	Confirmation string `json:"confirmation"`
}

func (h *Handler) handleChangePin(w http.ResponseWriter, r *http.Request) {
	var req changePinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.observeRejection("validation")
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	if err := h.Gate.ChangePin(r.Context(), req.Current, req.Proposed, req.Confirmation); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": true})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, scope string) {
	category := domain.Category(scope)
	if scope != export.ScopeAll && !category.Valid() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown export scope %q", scope))
		return
	}
	filename := fmt.Sprintf("%s-%s.csv", scope, time.Now().UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if scope == export.ScopeAll {
		_ = export.WriteAll(w, h.Store.ExportState())
		return
	}
	_ = export.WriteCategory(w, category, h.Store.ListItems(category))
}

// writeStoreError maps the domain error taxonomy onto HTTP statuses.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	var validation domain.ValidationError
	var notFound domain.NotFoundError
	var authErr domain.AuthError
	switch {
	case errors.As(err, &validation):
		h.observeRejection("validation")
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &notFound):
		h.observeRejection("not_found")
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &authErr):
		h.observeRejection("auth")
		writeError(w, http.StatusUnauthorized, authErr.Error())
	default:
		h.observeRejection("internal")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) observeMutation(c domain.Category, action string) {
	if h.Metrics != nil {
		h.Metrics.ObserveMutation(c, action)
	}
}

func (h *Handler) observeRejection(kind string) {
	if h.Metrics != nil {
		h.Metrics.ObserveRejection(kind)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
