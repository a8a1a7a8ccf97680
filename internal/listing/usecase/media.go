package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
)

const (
	MaxImageSize = 10 << 20
	MaxVideoSize = 50 << 20
)

var allowedTypes = map[domain.MediaKind]map[string]bool{
	domain.MediaImage: {"image/jpeg": true, "image/jpg": true, "image/png": true},
	domain.MediaVideo: {"video/mp4": true, "video/x-msvideo": true, "video/avi": true, "video/msvideo": true},
}

// MediaFile is a file selected for upload. Data is kept in memory so a
// failed commit can upload it again.
type MediaFile struct {
	Name        string
	Kind        domain.MediaKind
	ContentType string
	Data        []byte
}

func (f MediaFile) Size() int64 { return int64(len(f.Data)) }

// DetectedType returns the declared content type without parameters, or the
// type sniffed from the data when none was declared.
func (f MediaFile) DetectedType() string {
	ct := f.ContentType
	if ct != "" {
		if parsed, _, err := mime.ParseMediaType(ct); err == nil {
			ct = parsed
		}
	}
	if ct == "" || ct == "application/octet-stream" {
		ct, _, _ = strings.Cut(http.DetectContentType(f.Data), ";")
	}
	return strings.ToLower(ct)
}

// KindOf guesses the media kind of a content type.
func KindOf(contentType string) domain.MediaKind {
	if strings.HasPrefix(contentType, "video/") {
		return domain.MediaVideo
	}
	return domain.MediaImage
}

func validateMedia(f MediaFile) error {
	verr := &domain.ValidationError{}
	limit := int64(MaxImageSize)
	if f.Kind == domain.MediaVideo {
		limit = MaxVideoSize
	}
	if f.Size() == 0 {
		verr.Add(f.Name, "file is empty")
	}
	if f.Size() > limit {
		verr.Add(f.Name, fmt.Sprintf("file exceeds %dMB", limit>>20))
	}
	allowed, ok := allowedTypes[f.Kind]
	if !ok {
		verr.Add(f.Name, fmt.Sprintf("unknown media kind %q", f.Kind))
	} else if ct := f.DetectedType(); !allowed[ct] {
		verr.Add(f.Name, fmt.Sprintf("unsupported %s type %q", f.Kind, ct))
	}
	return verr.OrNil()
}

// MediaKey is the storage key of the media object at index of a listing.
func MediaKey(ownerID, listingID string, index int) string {
	return fmt.Sprintf("%s/listings/%s/%d", ownerID, listingID, index)
}

// MediaStore uploads and deletes listing media on a BlobStore.
type MediaStore struct {
	blobs    BlobStore
	observer MediaObserver
	logger   *logger.Logger
}

func NewMediaStore(blobs BlobStore, observer MediaObserver, log *logger.Logger) *MediaStore {
	if observer == nil {
		observer = nopObserver{}
	}
	return &MediaStore{blobs: blobs, observer: observer, logger: log}
}

// Upload validates file and stores it under the listing's key for index.
// An existing object at that key is overwritten.
func (s *MediaStore) Upload(ctx context.Context, file MediaFile, ownerID, listingID string, index int) (string, error) {
	if err := validateMedia(file); err != nil {
		s.logger.Warn("MediaStore.Upload: rejected file", "file_name", file.Name, "kind", string(file.Kind), "error", err.Error())
		return "", &domain.UploadError{Kind: file.Kind, FileName: file.Name, Index: index, Err: err}
	}

	key := MediaKey(ownerID, listingID, index)
	url, err := s.blobs.Put(ctx, key, bytes.NewReader(file.Data), file.Size(), file.DetectedType())
	if err != nil {
		s.logger.Error("MediaStore.Upload: failed to store object", "key", key, "error", err.Error())
		return "", &domain.UploadError{Kind: file.Kind, FileName: file.Name, Index: index, Err: err}
	}
	s.observer.MediaUploaded(string(file.Kind))
	s.logger.Debug("MediaStore.Upload: stored object", "key", key, "size", file.Size())
	return url, nil
}

// Delete removes the object behind url. Objects that are already gone and
// URLs this store did not produce are not errors.
func (s *MediaStore) Delete(ctx context.Context, url string) error {
	key, ok := s.blobs.KeyFromURL(url)
	if !ok {
		s.logger.Warn("MediaStore.Delete: url does not belong to the media store, skipping", "url", url)
		return nil
	}
	err := s.blobs.Delete(ctx, key)
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	s.observer.MediaDeleteFailed()
	return fmt.Errorf("%w: %s: %v", domain.ErrMediaDelete, url, err)
}

// IndexOf returns the index url was stored under, when url is one of this
// listing's media objects.
func (s *MediaStore) IndexOf(url, ownerID, listingID string) (int, bool) {
	key, ok := s.blobs.KeyFromURL(url)
	if !ok {
		return 0, false
	}
	rest, found := strings.CutPrefix(key, fmt.Sprintf("%s/listings/%s/", ownerID, listingID))
	if !found {
		return 0, false
	}
	index, err := strconv.Atoi(rest)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}
