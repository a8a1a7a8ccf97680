package rest

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/collection"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
)

const (
	multipartMemory = 32 << 20
	maxRequestBody  = 256 << 20

	fieldListingType = "listing_type"
	fieldRemoveURLs  = "remove_urls"
	fieldImages      = "images"
	fieldVideos      = "videos"
	filterPrefix     = "f."
)

// Handler serves the listing HTTP API.
type Handler struct {
	listings  *usecase.ListingUsecase
	forms     *usecase.FormFactory
	favorites *usecase.FavoriteUsecase
	logger    *logger.Logger
}

func NewHandler(listings *usecase.ListingUsecase, forms *usecase.FormFactory, favorites *usecase.FavoriteUsecase, log *logger.Logger) *Handler {
	return &Handler{
		listings:  listings,
		forms:     forms,
		favorites: favorites,
		logger:    log.Named("HTTPHandler"),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	listingType := domain.ListingType(chi.URLParam(r, "type"))
	if !listingType.IsValid() {
		writeError(w, fmt.Errorf("%w: unknown listing type %q", domain.ErrValidation, listingType))
		return
	}
	writeJSON(w, http.StatusOK, domain.SchemaFor(listingType))
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListByOwner(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": listings, "total": len(listings)})
}

func parsePrice(r *http.Request, param string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(param))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative number", domain.ErrValidation, param)
	}
	return &v, nil
}

func parseInt(r *http.Request, param string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(param))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, param)
	}
	return v, nil
}

// parseBrowseQuery reads ?q=&min_price=&max_price=&page=&page_size= and
// facet filters given as f.<key>=<value>.
func parseBrowseQuery(r *http.Request) (collection.Query, error) {
	q := collection.Query{
		Search:  r.URL.Query().Get("q"),
		Filters: map[string]string{},
	}
	var err error
	if q.MinPrice, err = parsePrice(r, "min_price"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = parsePrice(r, "max_price"); err != nil {
		return q, err
	}
	if q.Page, err = parseInt(r, "page", 0); err != nil {
		return q, err
	}
	if q.PageSize, err = parseInt(r, "page_size", collection.DefaultPageSize); err != nil {
		return q, err
	}
	for key, values := range r.URL.Query() {
		if strings.HasPrefix(key, filterPrefix) && len(values) > 0 {
			q.Filters[strings.TrimPrefix(key, filterPrefix)] = values[0]
		}
	}
	return q, nil
}

func (h *Handler) BrowseListings(w http.ResponseWriter, r *http.Request) {
	listingType := domain.ListingType(r.URL.Query().Get("type"))
	q, err := parseBrowseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	declared := r.URL.Query().Get("facets") != "derived"
	page, err := h.listings.BrowseByType(r.Context(), listingType, q, declared)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
	}
	return p, ok
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return fmt.Errorf("%w: invalid multipart form: %v", domain.ErrValidation, err)
	}
	return nil
}

// readFile loads an uploaded part, reading at most one byte past the largest
// allowed size so oversized files still fail validation.
func readFile(fh *multipart.FileHeader, kind domain.MediaKind) (usecase.MediaFile, error) {
	f, err := fh.Open()
	if err != nil {
		return usecase.MediaFile{}, err
	}
	defer f.Close()

	limit := int64(usecase.MaxImageSize)
	if kind == domain.MediaVideo {
		limit = usecase.MaxVideoSize
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return usecase.MediaFile{}, err
	}
	return usecase.MediaFile{
		Name:        fh.Filename,
		Kind:        kind,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// fillSession copies submitted form values and files into the session.
// Only keys the session's schema knows are read.
func fillSession(s *usecase.FormSession, form *multipart.Form) error {
	for _, key := range s.Schema().FormKeys() {
		values, ok := form.Value[key]
		if !ok || len(values) == 0 {
			continue
		}
		if err := s.Set(key, values[0]); err != nil {
			return err
		}
	}
	for _, url := range form.Value[fieldRemoveURLs] {
		if err := s.RemoveMediaURL(url); err != nil {
			return err
		}
	}
	for field, kind := range map[string]domain.MediaKind{fieldImages: domain.MediaImage, fieldVideos: domain.MediaVideo} {
		for _, fh := range form.File[field] {
			file, err := readFile(fh, kind)
			if err != nil {
				return fmt.Errorf("%w: read %s: %v", domain.ErrValidation, fh.Filename, err)
			}
			if _, err := s.StageMedia(file); err != nil {
				return err
			}
		}
	}
	return nil
}

// submit commits the session detached from the request context, so a
// client disconnect cannot abort the commit half way.
func (h *Handler) submit(r *http.Request, s *usecase.FormSession) (*domain.Listing, error) {
	if err := s.Submit(context.WithoutCancel(r.Context())); err != nil {
		return nil, err
	}
	return h.listings.GetListing(r.Context(), s.ListingID())
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.parseMultipart(w, r); err != nil {
		writeError(w, err)
		return
	}
	listingType := domain.ListingType(r.FormValue(fieldListingType))
	if !listingType.IsValid() {
		writeError(w, fmt.Errorf("%w: unknown listing type %q", domain.ErrValidation, listingType))
		return
	}

	session := h.forms.NewCreateSession(principal, listingType)
	if err := fillSession(session, r.MultipartForm); err != nil {
		writeError(w, err)
		return
	}
	listing, err := h.submit(r, session)
	if err != nil {
		h.logger.Warn("CreateListing: submit failed", "user_id", principal.UserID, "listing_type", string(listingType), "error", err.Error())
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.parseMultipart(w, r); err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")

	session, err := h.forms.OpenEditSession(r.Context(), principal, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := fillSession(session, r.MultipartForm); err != nil {
		writeError(w, err)
		return
	}
	listing, err := h.submit(r, session)
	if err != nil {
		h.logger.Warn("UpdateListing: submit failed", "user_id", principal.UserID, "listing_id", id, "error", err.Error())
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.listings.DeleteListing(r.Context(), chi.URLParam(r, "id"), principal); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.favorites.AddFavorite(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.favorites.RemoveFavorite(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	listings, err := h.favorites.ListFavorites(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": listings, "total": len(listings)})
}
