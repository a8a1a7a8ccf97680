package rest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
)

type memRepo struct {
	mu     sync.Mutex
	docs   map[string]*domain.Listing
	nextID int
}

func newMemRepo() *memRepo {
	return &memRepo{docs: map[string]*domain.Listing{}}
}

func clone(l *domain.Listing) *domain.Listing {
	out := *l
	out.Attributes = map[string]string{}
	for k, v := range l.Attributes {
		out.Attributes[k] = v
	}
	out.ImageURLs = append([]string{}, l.ImageURLs...)
	out.VideoURLs = append([]string{}, l.VideoURLs...)
	return &out
}

func (r *memRepo) Create(_ context.Context, listing *domain.Listing) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	l := clone(listing)
	l.ID = fmt.Sprintf("l%d", r.nextID)
	l.CreatedAt = time.Now().Add(time.Duration(r.nextID) * time.Second)
	r.docs[l.ID] = l
	return l.ID, nil
}

func (r *memRepo) Update(_ context.Context, id string, fields domain.Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.docs[id]
	if !ok {
		return domain.ErrListingNotFound
	}
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
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return domain.ErrListingNotFound
	}
	delete(r.docs, id)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return clone(l), nil
}

func (r *memRepo) query(match func(*domain.Listing) bool) []*domain.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Listing
	for _, l := range r.docs {
		if match(l) {
			out = append(out, clone(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memRepo) QueryByOwner(_ context.Context, ownerID string) ([]*domain.Listing, error) {
	return r.query(func(l *domain.Listing) bool { return l.UserID == ownerID }), nil
}

func (r *memRepo) QueryByType(_ context.Context, t domain.ListingType, limit int, _ bool) ([]*domain.Listing, error) {
	out := r.query(func(l *domain.Listing) bool { return l.ListingType == t })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

const blobBase = "http://minio.test/listings-media/"

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}}
}

func (b *memBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failPut != nil {
		return "", b.failPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.objects[key] = data
	return blobBase + key, nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[key]; !ok {
		return domain.ErrNotFound
	}
	delete(b.objects, key)
	return nil
}

func (b *memBlobs) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, blobBase) {
		return "", false
	}
	return strings.TrimPrefix(url, blobBase), true
}

func (b *memBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

type memFavorites struct {
	mu   sync.Mutex
	favs []*domain.Favorite
}

func (f *memFavorites) Add(_ context.Context, fav *domain.Favorite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.favs {
		if existing.UserID == fav.UserID && existing.ListingID == fav.ListingID {
			return domain.ErrAlreadyExists
		}
	}
	fav.CreatedAt = time.Now()
	f.favs = append([]*domain.Favorite{fav}, f.favs...)
	return nil
}

func (f *memFavorites) Remove(_ context.Context, userID, listingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, fav := range f.favs {
		if fav.UserID == userID && fav.ListingID == listingID {
			f.favs = append(f.favs[:i], f.favs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("favorite %w", domain.ErrNotFound)
}

func (f *memFavorites) RemoveByListing(_ context.Context, listingID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*domain.Favorite
	var n int64
	for _, fav := range f.favs {
		if fav.ListingID == listingID {
			n++
			continue
		}
		kept = append(kept, fav)
	}
	f.favs = kept
	return n, nil
}

func (f *memFavorites) FindByUserID(_ context.Context, userID string) ([]*domain.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Favorite
	for _, fav := range f.favs {
		if fav.UserID == userID {
			out = append(out, fav)
		}
	}
	return out, nil
}
