package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("marketplace-service/usecase")

type FormState string

const (
	FormIdle       FormState = "idle"
	FormSubmitting FormState = "submitting"
	FormSucceeded  FormState = "succeeded"
	FormFailed     FormState = "failed"
)

type FormMode string

const (
	ModeCreate FormMode = "create"
	ModeEdit   FormMode = "edit"
)

// MediaItem is one entry of a form's media list: either a persisted URL or
// a staged file with a local preview URL.
type MediaItem struct {
	Kind       domain.MediaKind `json:"kind"`
	URL        string           `json:"url,omitempty"`
	PreviewURL string           `json:"previewUrl,omitempty"`
	File       *MediaFile       `json:"-"`
}

func (m MediaItem) IsStaged() bool { return m.File != nil }

// FormFactory opens form sessions bound to one set of backends.
type FormFactory struct {
	repo     domain.ListingRepository
	media    *MediaStore
	events   EventPublisher
	observer CommitObserver
	logger   *logger.Logger
}

func NewFormFactory(repo domain.ListingRepository, media *MediaStore, events EventPublisher, observer CommitObserver, log *logger.Logger) *FormFactory {
	if events == nil {
		events = nopPublisher{}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &FormFactory{repo: repo, media: media, events: events, observer: observer, logger: log}
}

// NewCreateSession starts an empty form for a new listing owned by principal.
func (f *FormFactory) NewCreateSession(principal domain.Principal, listingType domain.ListingType) *FormSession {
	schema := domain.SchemaFor(listingType)
	s := f.newSession(principal.UserID, schema, ModeCreate)
	for _, key := range schema.FormKeys() {
		s.values[key] = ""
	}
	return s
}

// NewEditSession loads an existing listing into a form. Only the owner may
// edit a listing.
func (f *FormFactory) NewEditSession(principal domain.Principal, listing *domain.Listing) (*FormSession, error) {
	if listing.UserID != principal.UserID {
		f.logger.Warn("FormFactory.NewEditSession: forbidden to edit listing",
			"listing_id", listing.ID, "listing_owner_id", listing.UserID, "user_id_performing_action", principal.UserID)
		return nil, domain.ErrForbidden
	}

	s := f.newSession(listing.UserID, domain.SchemaFor(listing.ListingType), ModeEdit)
	s.listingID = listing.ID
	for _, key := range s.schema.FormKeys() {
		v, _ := listing.Attribute(key)
		s.values[key] = v
	}
	for _, url := range listing.ImageURLs {
		s.media[domain.MediaImage] = append(s.media[domain.MediaImage], MediaItem{Kind: domain.MediaImage, URL: url})
	}
	for _, url := range listing.VideoURLs {
		s.media[domain.MediaVideo] = append(s.media[domain.MediaVideo], MediaItem{Kind: domain.MediaVideo, URL: url})
	}
	return s, nil
}

// OpenEditSession fetches the listing by id and opens an edit session on it.
func (f *FormFactory) OpenEditSession(ctx context.Context, principal domain.Principal, id string) (*FormSession, error) {
	listing, err := f.repo.GetByID(ctx, id)
	if err != nil {
		f.logger.Warn("FormFactory.OpenEditSession: failed to load listing", "listing_id", id, "error", err.Error())
		return nil, err
	}
	return f.NewEditSession(principal, listing)
}

func (f *FormFactory) newSession(ownerID string, schema domain.Schema, mode FormMode) *FormSession {
	return &FormSession{
		deps:    f,
		ownerID: ownerID,
		schema:  schema,
		mode:    mode,
		state:   FormIdle,
		values:  map[string]string{},
		media:   map[domain.MediaKind][]MediaItem{},
	}
}

// FormSession is one listing form, in create or edit mode. Media removals
// are only recorded until Submit runs, so an abandoned session changes
// nothing. Methods are safe for concurrent use; edits are refused while a
// submit is running and after it has succeeded.
type FormSession struct {
	deps *FormFactory

	mu        sync.Mutex
	ownerID   string
	schema    domain.Schema
	mode      FormMode
	state     FormState
	err       error
	listingID string
	values    map[string]string
	media     map[domain.MediaKind][]MediaItem
	removed   []string

	// unannounced is set while a listing created by this session has not
	// had a successful commit yet.
	unannounced bool
}

func (s *FormSession) ListingType() domain.ListingType { return s.schema.ListingType }

func (s *FormSession) Schema() domain.Schema { return s.schema }

func (s *FormSession) State() FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *FormSession) Mode() FormMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Err is the error of the last failed submit or validation.
func (s *FormSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ListingID is empty until the listing document exists.
func (s *FormSession) ListingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listingID
}

// checkEditable must be called with mu held.
func (s *FormSession) checkEditable() error {
	switch s.state {
	case FormSubmitting:
		return domain.ErrSubmitInProgress
	case FormSucceeded:
		return domain.ErrSessionClosed
	}
	return nil
}

func (s *FormSession) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkEditable(); err != nil {
		return err
	}
	if _, ok := s.values[key]; !ok {
		return fmt.Errorf("%w: unknown field %q for %s listings", domain.ErrValidation, key, s.schema.ListingType)
	}
	s.values[key] = strings.TrimSpace(value)
	return nil
}

func (s *FormSession) Value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *FormSession) Values() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// StageMedia appends a file to the media list of its kind. It is uploaded
// on the next Submit.
func (s *FormSession) StageMedia(file MediaFile) (MediaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkEditable(); err != nil {
		return MediaItem{}, err
	}
	if file.Kind == "" {
		file.Kind = KindOf(file.DetectedType())
	}
	item := MediaItem{Kind: file.Kind, PreviewURL: "blob:" + uuid.NewString(), File: &file}
	s.media[file.Kind] = append(s.media[file.Kind], item)
	return item, nil
}

// RemoveMedia drops the item at position from the kind's list. A persisted
// URL is remembered for deletion on commit.
func (s *FormSession) RemoveMedia(kind domain.MediaKind, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkEditable(); err != nil {
		return err
	}
	if position < 0 || position >= len(s.media[kind]) {
		return fmt.Errorf("%w: no %s at position %d", domain.ErrValidation, kind, position)
	}
	s.removeAt(kind, position)
	return nil
}

// RemoveMediaURL removes the persisted item with url.
func (s *FormSession) RemoveMediaURL(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkEditable(); err != nil {
		return err
	}
	for _, kind := range []domain.MediaKind{domain.MediaImage, domain.MediaVideo} {
		for i, item := range s.media[kind] {
			if !item.IsStaged() && item.URL == url {
				s.removeAt(kind, i)
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s is not a media url of this listing", domain.ErrValidation, url)
}

func (s *FormSession) removeAt(kind domain.MediaKind, position int) {
	items := s.media[kind]
	item := items[position]
	if !item.IsStaged() && !containsString(s.removed, item.URL) {
		s.removed = append(s.removed, item.URL)
	}
	s.media[kind] = append(items[:position:position], items[position+1:]...)
}

func (s *FormSession) Media(kind domain.MediaKind) []MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MediaItem(nil), s.media[kind]...)
}

func (s *FormSession) RemovedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.removed...)
}

func (s *FormSession) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validate()
}

func (s *FormSession) validate() error {
	verr := &domain.ValidationError{}

	if s.values[domain.KeyName] == "" {
		verr.Add(domain.KeyName, "is required")
	}

	for _, f := range s.schema.Fields {
		v := s.values[f.Key]
		empty := v == "" || (f.Input == domain.InputSelect && domain.IsUnselected(v))
		switch {
		case empty && f.Required:
			verr.Add(f.Key, "is required")
		case empty:
		case f.Input == domain.InputSelect && !containsString(f.Options, v):
			verr.Add(f.Key, fmt.Sprintf("must be one of %s", strings.Join(f.Options, ", ")))
		case f.Input == domain.InputNumber:
			if _, err := parseNonNegative(v); err != nil {
				verr.Add(f.Key, "must be a non-negative number")
			}
		}
	}

	price := s.values[domain.KeyPrice]
	if price == "" && s.schema.PriceRequired {
		verr.Add(domain.KeyPrice, "is required")
	} else if price != "" {
		if _, err := parseNonNegative(price); err != nil {
			verr.Add(domain.KeyPrice, "must be a non-negative number")
		}
	}

	category := s.values[domain.KeyCategory]
	if domain.IsUnselected(category) {
		verr.Add(domain.KeyCategory, "must be selected")
	} else if !s.schema.AllowsCategory(category) {
		verr.Add(domain.KeyCategory, fmt.Sprintf("must be one of %s", strings.Join(s.schema.Categories, ", ")))
	}

	currency := s.values[domain.KeyCurrency]
	needsCurrency := s.schema.CurrencyRequired || price != ""
	if domain.IsUnselected(currency) {
		if needsCurrency {
			verr.Add(domain.KeyCurrency, "must be selected")
		}
	} else if !s.schema.AllowsCurrency(currency) {
		verr.Add(domain.KeyCurrency, fmt.Sprintf("must be one of %s", strings.Join(s.schema.Currencies, ", ")))
	}

	for _, kind := range []domain.MediaKind{domain.MediaImage, domain.MediaVideo} {
		for _, item := range s.media[kind] {
			if !item.IsStaged() {
				continue
			}
			var fileErr *domain.ValidationError
			if err := validateMedia(*item.File); errors.As(err, &fileErr) {
				verr.Violations = append(verr.Violations, fileErr.Violations...)
			}
		}
	}

	return verr.OrNil()
}

func parseNonNegative(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a non-negative number", v)
	}
	return f, nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func selection(v string) string {
	if domain.IsUnselected(v) {
		return ""
	}
	return v
}

// fields maps form state onto persisted attributes by schema key. Cleared
// category attributes are nil so the repository removes them.
func (s *FormSession) fields() domain.Fields {
	fields := domain.Fields{
		domain.KeyName:        s.values[domain.KeyName],
		domain.KeyDescription: s.values[domain.KeyDescription],
		domain.KeyLocation:    s.values[domain.KeyLocation],
		domain.KeyCategory:    selection(s.values[domain.KeyCategory]),
		domain.KeyCurrency:    selection(s.values[domain.KeyCurrency]),
		domain.KeyPrice:       nil,
	}
	if p, err := parseNonNegative(s.values[domain.KeyPrice]); err == nil {
		fields[domain.KeyPrice] = p
	}
	for _, f := range s.schema.Fields {
		if v := selection(s.values[f.Key]); v != "" {
			fields[f.Key] = v
		} else {
			fields[f.Key] = nil
		}
	}
	return fields
}

func (s *FormSession) draft() *domain.Listing {
	l := &domain.Listing{
		UserID:      s.ownerID,
		ListingType: s.schema.ListingType,
		Name:        s.values[domain.KeyName],
		Description: s.values[domain.KeyDescription],
		Location:    s.values[domain.KeyLocation],
		Category:    selection(s.values[domain.KeyCategory]),
		Currency:    selection(s.values[domain.KeyCurrency]),
		Attributes:  map[string]string{},
		ImageURLs:   []string{},
		VideoURLs:   []string{},
	}
	if p, err := parseNonNegative(s.values[domain.KeyPrice]); err == nil {
		l.Price = &p
	}
	for _, f := range s.schema.Fields {
		if v := selection(s.values[f.Key]); v != "" {
			l.Attributes[f.Key] = v
		}
	}
	return l
}

type commitPlan struct {
	listingID string
	draft     *domain.Listing
	fields    domain.Fields
	surviving map[domain.MediaKind][]string
	staged    map[domain.MediaKind][]MediaItem
	removed   []string
}

type commitResult struct {
	listingID string
	created   bool
	final     map[domain.MediaKind][]string
}

func (s *FormSession) plan() commitPlan {
	p := commitPlan{
		listingID: s.listingID,
		fields:    s.fields(),
		surviving: map[domain.MediaKind][]string{},
		staged:    map[domain.MediaKind][]MediaItem{},
		removed:   append([]string(nil), s.removed...),
	}
	if p.listingID == "" {
		p.draft = s.draft()
	}
	for kind, items := range s.media {
		for _, item := range items {
			if item.IsStaged() {
				p.staged[kind] = append(p.staged[kind], item)
			} else {
				p.surviving[kind] = append(p.surviving[kind], item.URL)
			}
		}
	}
	return p
}

// assignIndices picks a storage index for every staged upload. Each starts
// at its position in the final combined media array and moves forward past
// indices still held by persisted objects of the listing.
func assignIndices(positions []int, occupied map[int]bool) []int {
	out := make([]int, len(positions))
	next := 0
	for i, pos := range positions {
		idx := pos
		if idx < next {
			idx = next
		}
		for occupied[idx] {
			idx++
		}
		out[i] = idx
		next = idx + 1
	}
	return out
}

// Submit validates the form and commits it: field write, uploads of staged
// media, deletion of removed media, then the media list write. Validation
// failures never reach the backends. Any later failure leaves the session
// in FormFailed with a *domain.CommitError; once the listing exists, a new
// Submit continues as an update of it. A succeeded session is closed: later
// edits and submits return domain.ErrSessionClosed.
func (s *FormSession) Submit(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkEditable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.validate(); err != nil {
		s.err = err
		s.mu.Unlock()
		return err
	}
	p := s.plan()
	s.state = FormSubmitting
	s.err = nil
	s.mu.Unlock()

	res, err := s.commit(ctx, p)

	s.mu.Lock()
	if res.listingID != "" {
		s.listingID = res.listingID
		s.mode = ModeEdit
	}
	if res.created {
		s.unannounced = true
	}
	if err != nil {
		s.state = FormFailed
		s.err = err
		s.mu.Unlock()
		return err
	}
	for _, kind := range []domain.MediaKind{domain.MediaImage, domain.MediaVideo} {
		items := make([]MediaItem, 0, len(res.final[kind]))
		for _, url := range res.final[kind] {
			items = append(items, MediaItem{Kind: kind, URL: url})
		}
		s.media[kind] = items
	}
	s.removed = nil
	s.state = FormSucceeded
	subject := domain.SubjectListingUpdated
	if s.unannounced {
		subject = domain.SubjectListingCreated
		s.unannounced = false
	}
	event := domain.ListingEvent{
		EventID:     uuid.NewString(),
		ListingID:   res.listingID,
		UserID:      s.ownerID,
		ListingType: s.schema.ListingType,
		Name:        s.values[domain.KeyName],
		ImageCount:  len(res.final[domain.MediaImage]),
		VideoCount:  len(res.final[domain.MediaVideo]),
		OccurredAt:  time.Now().UTC(),
	}
	s.mu.Unlock()

	if err := s.deps.events.Publish(ctx, subject, event); err != nil {
		s.deps.logger.Error("FormSession.Submit: failed to publish event", "subject", subject, "listing_id", res.listingID, "error", err.Error())
	}
	return nil
}

func (s *FormSession) commit(ctx context.Context, p commitPlan) (commitResult, error) {
	operation := "update"
	if p.listingID == "" {
		operation = "create"
	}
	listingType := s.schema.ListingType
	log := s.deps.logger

	ctx, span := tracer.Start(ctx, "FormSession.Submit", oteltrace.WithAttributes(
		attribute.String("listing_type", string(listingType)),
		attribute.String("operation", operation),
		attribute.String("listing_id", p.listingID),
	))
	defer span.End()

	res := commitResult{listingID: p.listingID}
	fail := func(step domain.CommitStep, err error) error {
		cerr := &domain.CommitError{Step: step, Operation: operation, ListingType: listingType, ListingID: res.listingID, Err: err}
		span.RecordError(cerr)
		span.SetStatus(codes.Error, string(step))
		s.deps.observer.CommitFinished(string(listingType), string(step), cerr)
		log.Error("FormSession.Submit: commit failed",
			"step", string(step), "operation", operation, "listing_type", string(listingType),
			"listing_id", res.listingID, "error", err.Error())
		return cerr
	}

	log.Info("FormSession.Submit: committing listing",
		"operation", operation, "listing_type", string(listingType), "listing_id", p.listingID, "user_id", s.ownerID)

	stepCtx, stepSpan := tracer.Start(ctx, "FormSession.writeFields")
	if p.listingID == "" {
		id, err := s.deps.repo.Create(stepCtx, p.draft)
		if err != nil {
			stepSpan.End()
			return res, fail(domain.StepFieldWrite, err)
		}
		res.listingID = id
		res.created = true
		span.SetAttributes(attribute.String("listing_id", id))
	} else if err := s.deps.repo.Update(stepCtx, p.listingID, p.fields); err != nil {
		stepSpan.End()
		return res, fail(domain.StepFieldWrite, err)
	}
	stepSpan.End()

	occupied := map[int]bool{}
	for _, url := range append(append(append([]string(nil), p.surviving[domain.MediaImage]...), p.surviving[domain.MediaVideo]...), p.removed...) {
		if idx, ok := s.deps.media.IndexOf(url, s.ownerID, res.listingID); ok {
			occupied[idx] = true
		}
	}

	images, videos := p.staged[domain.MediaImage], p.staged[domain.MediaVideo]
	finalImageCount := len(p.surviving[domain.MediaImage]) + len(images)
	positions := make([]int, 0, len(images)+len(videos))
	for i := range images {
		positions = append(positions, len(p.surviving[domain.MediaImage])+i)
	}
	for i := range videos {
		positions = append(positions, finalImageCount+len(p.surviving[domain.MediaVideo])+i)
	}
	indices := assignIndices(positions, occupied)

	stepCtx, stepSpan = tracer.Start(ctx, "FormSession.uploadMedia", oteltrace.WithAttributes(attribute.Int("count", len(positions))))
	uploaded := map[domain.MediaKind][]string{}
	for i, item := range append(append([]MediaItem(nil), images...), videos...) {
		url, err := s.deps.media.Upload(stepCtx, *item.File, s.ownerID, res.listingID, indices[i])
		if err != nil {
			stepSpan.End()
			return res, fail(domain.StepUpload, err)
		}
		uploaded[item.Kind] = append(uploaded[item.Kind], url)
	}
	stepSpan.End()

	res.final = map[domain.MediaKind][]string{
		domain.MediaImage: append(append([]string{}, p.surviving[domain.MediaImage]...), uploaded[domain.MediaImage]...),
		domain.MediaVideo: append(append([]string{}, p.surviving[domain.MediaVideo]...), uploaded[domain.MediaVideo]...),
	}

	stepCtx, stepSpan = tracer.Start(ctx, "FormSession.deleteRemovedMedia", oteltrace.WithAttributes(attribute.Int("count", len(p.removed))))
	for _, url := range p.removed {
		if err := s.deps.media.Delete(stepCtx, url); err != nil {
			log.Warn("FormSession.Submit: failed to delete removed media", "listing_id", res.listingID, "url", url, "error", err.Error())
		}
	}
	stepSpan.End()

	stepCtx, stepSpan = tracer.Start(ctx, "FormSession.writeMedia")
	err := s.deps.repo.Update(stepCtx, res.listingID, domain.Fields{
		domain.KeyImageURLs: res.final[domain.MediaImage],
		domain.KeyVideoURLs: res.final[domain.MediaVideo],
	})
	stepSpan.End()
	if err != nil {
		return res, fail(domain.StepMediaWrite, err)
	}

	s.deps.observer.CommitFinished(string(listingType), "", nil)
	log.Info("FormSession.Submit: listing committed",
		"operation", operation, "listing_id", res.listingID,
		"images", len(res.final[domain.MediaImage]), "videos", len(res.final[domain.MediaVideo]),
		"removed", len(p.removed))
	return res, nil
}
