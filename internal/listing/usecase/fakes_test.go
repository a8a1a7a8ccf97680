package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/stretchr/testify/mock"
)

// memRepo is an in-memory domain.ListingRepository.
type memRepo struct {
	mu     sync.Mutex
	docs   map[string]*domain.Listing
	nextID int

	createCalls int
	updates     []domain.Fields

	failCreate      error
	failFieldUpdate error
	failMediaUpdate error
	createStarted   chan struct{}
	createGate      chan struct{}
}

func newMemRepo() *memRepo {
	return &memRepo{docs: map[string]*domain.Listing{}}
}

func cloneListing(l *domain.Listing) *domain.Listing {
	out := *l
	out.Attributes = map[string]string{}
	for k, v := range l.Attributes {
		out.Attributes[k] = v
	}
	out.ImageURLs = append([]string{}, l.ImageURLs...)
	out.VideoURLs = append([]string{}, l.VideoURLs...)
	if l.Price != nil {
		p := *l.Price
		out.Price = &p
	}
	return &out
}

func (r *memRepo) seed(l *domain.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[l.ID] = cloneListing(l)
}

func (r *memRepo) get(id string) *domain.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.docs[id]; ok {
		return cloneListing(l)
	}
	return nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

func (r *memRepo) Create(ctx context.Context, listing *domain.Listing) (string, error) {
	if r.createStarted != nil {
		r.createStarted <- struct{}{}
	}
	if r.createGate != nil {
		<-r.createGate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.failCreate != nil {
		return "", fmt.Errorf("%w: insert listing: %v", domain.ErrPersistence, r.failCreate)
	}
	r.nextID++
	l := cloneListing(listing)
	l.ID = fmt.Sprintf("l%d", r.nextID)
	l.CreatedAt = time.Now().Add(time.Duration(r.nextID) * time.Second)
	l.UpdatedAt = l.CreatedAt
	r.docs[l.ID] = l
	return l.ID, nil
}

func (r *memRepo) Update(ctx context.Context, id string, fields domain.Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, mediaWrite := fields[domain.KeyImageURLs]
	if mediaWrite && r.failMediaUpdate != nil {
		return fmt.Errorf("%w: update media: %v", domain.ErrPersistence, r.failMediaUpdate)
	}
	if !mediaWrite && r.failFieldUpdate != nil {
		return fmt.Errorf("%w: update fields: %v", domain.ErrPersistence, r.failFieldUpdate)
	}
	l, ok := r.docs[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	r.updates = append(r.updates, fields)
	for k, v := range fields {
		switch k {
		case domain.KeyName:
			l.Name = v.(string)
		case domain.KeyDescription:
			l.Description = v.(string)
		case domain.KeyLocation:
			l.Location = v.(string)
		case domain.KeyCategory:
			l.Category = v.(string)
		case domain.KeyCurrency:
			l.Currency = v.(string)
		case domain.KeyPrice:
			if p, ok := v.(float64); ok {
				l.Price = &p
			} else {
				l.Price = nil
			}
		case domain.KeyImageURLs:
			l.ImageURLs = append([]string{}, v.([]string)...)
		case domain.KeyVideoURLs:
			l.VideoURLs = append([]string{}, v.([]string)...)
		default:
			if v == nil {
				delete(l.Attributes, k)
			} else {
				l.Attributes[k] = fmt.Sprint(v)
			}
		}
	}
	l.UpdatedAt = time.Now()
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return domain.ErrListingNotFound
	}
	delete(r.docs, id)
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	if l := r.get(id); l != nil {
		return l, nil
	}
	return nil, domain.ErrListingNotFound
}

func (r *memRepo) query(match func(*domain.Listing) bool, limit int, newestFirst bool) []*domain.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Listing
	for _, l := range r.docs {
		if match(l) {
			out = append(out, cloneListing(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *memRepo) QueryByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	return r.query(func(l *domain.Listing) bool { return l.UserID == ownerID }, 0, true), nil
}

func (r *memRepo) QueryByType(ctx context.Context, t domain.ListingType, limit int, newestFirst bool) ([]*domain.Listing, error) {
	return r.query(func(l *domain.Listing) bool { return l.ListingType == t }, limit, newestFirst), nil
}

const blobBase = "http://minio.test/listings-media/"

// memBlobs is an in-memory BlobStore.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []string
	deletes []string

	failPut    func(key string) error
	failDelete error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}}
}

func (b *memBlobs) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failPut != nil {
		if err := b.failPut(key); err != nil {
			return "", err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.objects[key] = data
	b.puts = append(b.puts, key)
	return blobBase + key, nil
}

func (b *memBlobs) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, key)
	if b.failDelete != nil {
		return b.failDelete
	}
	if _, ok := b.objects[key]; !ok {
		return fmt.Errorf("%w: object %s", domain.ErrNotFound, key)
	}
	delete(b.objects, key)
	return nil
}

func (b *memBlobs) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, blobBase)
	return key, ok && key != ""
}

func (b *memBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

func (b *memBlobs) putKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.puts...)
}

func (b *memBlobs) deleteKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deletes...)
}

// countingObserver records media and commit outcomes.
type countingObserver struct {
	mu             sync.Mutex
	uploads        map[string]int
	deleteFailures int
	commits        []string
}

func newCountingObserver() *countingObserver {
	return &countingObserver{uploads: map[string]int{}}
}

func (o *countingObserver) MediaUploaded(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.uploads[kind]++
}

func (o *countingObserver) MediaDeleteFailed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deleteFailures++
}

func (o *countingObserver) CommitFinished(listingType, step string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	outcome := "succeeded"
	if err != nil {
		outcome = "failed:" + step
	}
	o.commits = append(o.commits, listingType+"/"+outcome)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, event domain.ListingEvent) error {
	args := m.Called(ctx, subject, event)
	return args.Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendEmail(to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) GetEmailByID(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// memFavorites is an in-memory domain.FavoriteRepository.
type memFavorites struct {
	mu   sync.Mutex
	favs []*domain.Favorite
}

func (f *memFavorites) Add(ctx context.Context, favorite *domain.Favorite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.favs {
		if existing.UserID == favorite.UserID && existing.ListingID == favorite.ListingID {
			return domain.ErrAlreadyExists
		}
	}
	favorite.ID = fmt.Sprintf("f%d", len(f.favs)+1)
	favorite.CreatedAt = time.Now().Add(time.Duration(len(f.favs)) * time.Second)
	f.favs = append(f.favs, favorite)
	return nil
}

func (f *memFavorites) Remove(ctx context.Context, userID, listingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.favs {
		if existing.UserID == userID && existing.ListingID == listingID {
			f.favs = append(f.favs[:i], f.favs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("favorite %w", domain.ErrNotFound)
}

func (f *memFavorites) RemoveByListing(ctx context.Context, listingID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.favs[:0]
	var removed int64
	for _, existing := range f.favs {
		if existing.ListingID == listingID {
			removed++
			continue
		}
		kept = append(kept, existing)
	}
	f.favs = kept
	return removed, nil
}

func (f *memFavorites) FindByUserID(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Favorite
	for i := len(f.favs) - 1; i >= 0; i-- {
		if f.favs[i].UserID == userID {
			out = append(out, f.favs[i])
		}
	}
	return out, nil
}

var (
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 64)...)
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
)

func jpegFile(name string) MediaFile {
	data := append([]byte(nil), jpegBytes...)
	data = append(data, []byte(name)...)
	return MediaFile{Name: name, Kind: domain.MediaImage, ContentType: "image/jpeg", Data: data}
}

func mp4File(name string) MediaFile {
	return MediaFile{Name: name, Kind: domain.MediaVideo, ContentType: "video/mp4", Data: []byte("....ftypisom" + name)}
}
