package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"georegistry/internal/auth"
	"georegistry/internal/domain"
	"georegistry/internal/repository"
	"georegistry/internal/versioning"
)

// Handlers exposes the versioning engine over JSON HTTP.
type Handlers struct {
	controller *versioning.Controller
	snapshots  *versioning.Snapshots
	diffs      *versioning.DiffEngine
	flags      *versioning.FlagRegistry
	resolver   *versioning.Resolver
	records    repository.RecordRepository
}

// NewHandlers bundles the service layer for the router.
func NewHandlers(
	controller *versioning.Controller,
	snapshots *versioning.Snapshots,
	diffs *versioning.DiffEngine,
	flags *versioning.FlagRegistry,
	resolver *versioning.Resolver,
	records repository.RecordRepository,
) *Handlers {
	return &Handlers{
		controller: controller,
		snapshots:  snapshots,
		diffs:      diffs,
		flags:      flags,
		resolver:   resolver,
		records:    records,
	}
}

// versionResource is the wire shape of one historical version.
type versionResource struct {
	Sequential int64          `json:"version"`
	SnapshotID uuid.UUID      `json:"snapshot_id"`
	RecordedAt time.Time      `json:"recorded_at"`
	Data       map[string]any `json:"data"`
	Flags      []flagResource `json:"flags"`
}

type flagResource struct {
	ID        uuid.UUID `json:"id"`
	ClientID  uuid.UUID `json:"client_id"`
	CreatedAt time.Time `json:"created_at"`
}

func requestKind(r *http.Request) (domain.Kind, error) {
	kind := domain.Kind(chi.URLParam(r, "kind"))
	if !domain.KnownKind(kind) {
		return "", fmt.Errorf("unknown record kind %q", kind)
	}
	return kind, nil
}

func (h *Handlers) listRecords(w http.ResponseWriter, r *http.Request) {
	kind, err := requestKind(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	records, err := h.records.ListByKind(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}

	payload := make([]map[string]any, len(records))
	for i, record := range records {
		payload[i] = record.Fields()
	}
	writeJSON(w, http.StatusOK, payload)
}

// getRecord resolves either a plain record id or an "identifier:value"
// reference, following redirects for the latter.
func (h *Handlers) getRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := requestKind(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	record, err := h.resolver.Resolve(r.Context(), kind, chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record.Fields())
}

func (h *Handlers) createRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := requestKind(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	fields, err := decodeBody(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	record, err := domain.Decode(kind, fields)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	meta := record.RecordMeta()
	meta.Lock(0)
	if meta.Version == 0 {
		meta.Version = 1
	}

	if err := h.controller.Save(r.Context(), record, sessionFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record.Fields())
}

// updateRecord applies the submitted fields on top of the stored record and
// saves the result as the next version. A "version" field in the body names
// the base version the client edited; omitting it means "whatever is current",
// which forfeits conflict detection against concurrent editors.
func (h *Handlers) updateRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := requestKind(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "ref"))
	if err != nil {
		writeBadRequest(w, fmt.Errorf("invalid record id: %w", err))
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	current, err := h.records.GetByID(r.Context(), kind, id)
	if err != nil {
		writeError(w, err)
		return
	}

	base := current.RecordMeta().Version
	if raw, ok := body["version"]; ok {
		parsed, ok := raw.(float64)
		if !ok {
			writeBadRequest(w, fmt.Errorf("version must be a number"))
			return
		}
		base = int64(parsed)
	}

	fields := current.Fields()
	for key, value := range body {
		if isMetaField(key) {
			continue
		}
		fields[key] = value
	}

	record, err := domain.Decode(kind, fields)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	meta := record.RecordMeta()
	meta.Lock(base)
	meta.Version = base + 1

	if err := h.controller.Save(r.Context(), record, sessionFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record.Fields())
}

func (h *Handlers) deleteRecord(w http.ResponseWriter, r *http.Request) {
	kind, err := requestKind(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "ref"))
	if err != nil {
		writeBadRequest(w, fmt.Errorf("invalid record id: %w", err))
		return
	}

	record, err := h.records.GetByID(r.Context(), kind, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.controller.Delete(r.Context(), record); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listVersions returns the full history, or with ?at=<RFC3339> the single
// version effective at that instant.
func (h *Handlers) listVersions(w http.ResponseWriter, r *http.Request) {
	kind, err := requestKind(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "ref"))
	if err != nil {
		writeBadRequest(w, fmt.Errorf("invalid record id: %w", err))
		return
	}

	if raw := r.URL.Query().Get("at"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeBadRequest(w, fmt.Errorf("invalid timestamp %q: %w", raw, err))
			return
		}
		snapshot, err := h.snapshots.GetAsOf(r.Context(), kind, id, at)
		if err != nil {
			writeError(w, err)
			return
		}
		resource, err := h.versionResource(r, snapshot)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resource)
		return
	}

	snapshots, err := h.snapshots.List(r.Context(), kind, id)
	if err != nil {
		writeError(w, err)
		return
	}
	resources := make([]versionResource, len(snapshots))
	for i, snapshot := range snapshots {
		if resources[i], err = h.versionResource(r, snapshot); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resources)
}

func (h *Handlers) getVersion(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.requestSnapshot(r)
	if err != nil {
		writeSnapshotError(w, err)
		return
	}
	resource, err := h.versionResource(r, *snapshot)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

func (h *Handlers) flagVersion(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.requestSnapshot(r)
	if err != nil {
		writeSnapshotError(w, err)
		return
	}

	session, _ := auth.SessionFromContext(r.Context())
	flag, err := h.flags.Flag(r.Context(), *snapshot, session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, flagResource{
		ID:        flag.ID,
		ClientID:  flag.ClientID,
		CreatedAt: flag.CreatedAt,
	})
}

func (h *Handlers) listDiffs(w http.ResponseWriter, r *http.Request) {
	cursor := int64(0)
	if raw := r.URL.Query().Get("increment"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			writeBadRequest(w, fmt.Errorf("increment must be a non-negative integer"))
			return
		}
		cursor = parsed
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	diffs, err := h.diffs.ListSince(r.Context(), cursor, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diffs)
}

func (h *Handlers) getDiff(w http.ResponseWriter, r *http.Request) {
	increment, err := strconv.ParseInt(chi.URLParam(r, "increment"), 10, 64)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("invalid increment: %w", err))
		return
	}
	diff, err := h.diffs.Get(r.Context(), increment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

// writeSnapshotError distinguishes a malformed version reference from a
// version that simply does not exist.
func writeSnapshotError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, err)
		return
	}
	writeBadRequest(w, err)
}

func (h *Handlers) requestSnapshot(r *http.Request) (*domain.Snapshot, error) {
	kind, err := requestKind(r)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(chi.URLParam(r, "ref"))
	if err != nil {
		return nil, fmt.Errorf("invalid record id: %w", err)
	}
	sequential, err := strconv.ParseInt(chi.URLParam(r, "sequential"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid version number: %w", err)
	}
	snapshot, err := h.snapshots.Get(r.Context(), kind, id, sequential)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (h *Handlers) versionResource(r *http.Request, snapshot domain.Snapshot) (versionResource, error) {
	data, err := snapshot.Data()
	if err != nil {
		return versionResource{}, err
	}
	flags, err := h.flags.FlagsFor(r.Context(), snapshot)
	if err != nil {
		return versionResource{}, err
	}
	resources := make([]flagResource, len(flags))
	for i, flag := range flags {
		resources[i] = flagResource{ID: flag.ID, ClientID: flag.ClientID, CreatedAt: flag.CreatedAt}
	}
	return versionResource{
		Sequential: snapshot.Sequential,
		SnapshotID: snapshot.ID,
		RecordedAt: snapshot.CreatedAt,
		Data:       data,
		Flags:      resources,
	}, nil
}

func decodeBody(r *http.Request) (map[string]any, error) {
	defer r.Body.Close()
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return fields, nil
}

func sessionFrom(r *http.Request) *auth.Session {
	session, _ := auth.SessionFromContext(r.Context())
	return session
}

func isMetaField(key string) bool {
	for _, name := range domain.MetaFieldNames {
		if key == name {
			return true
		}
	}
	return false
}
