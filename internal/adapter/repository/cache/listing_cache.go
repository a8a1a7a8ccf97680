package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "listing:"

// fillScript stores a loaded listing only when its generation is still the
// one read before loading. Every invalidation bumps the generation, so a
// load that raced an update is dropped instead of cached.
var fillScript = redis.NewScript(`
if (redis.call("GET", KEYS[2]) or "") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// NewRedisClient connects to Redis and checks the connection with PING.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr, // e.g., "localhost:6379"
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// CachedListingRepository is a read-through cache for single listings in
// front of another repository. Redis failures are logged and the call falls
// through to the wrapped repository. Writes go to the wrapped repository
// first and then invalidate.
type CachedListingRepository struct {
	next   domain.ListingRepository
	client redis.Cmdable
	ttl    time.Duration
	logger *logger.Logger
}

func NewCachedListingRepository(next domain.ListingRepository, client redis.Cmdable, ttl time.Duration, log *logger.Logger) *CachedListingRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedListingRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: log.Named("ListingCache"),
	}
}

func cacheKey(id string) string {
	return keyPrefix + id
}

func generationKey(id string) string {
	return keyPrefix + id + ":gen"
}

func (c *CachedListingRepository) get(ctx context.Context, id string) (*domain.Listing, bool) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Cache read failed", "listing_id", id, "error", err)
		return nil, false
	}
	var listing domain.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		c.logger.Warn("Cached listing is corrupt, dropping it", "listing_id", id, "error", err)
		c.invalidate(ctx, id)
		return nil, false
	}
	return &listing, true
}

// generation reads the invalidation counter of id. A missing counter is "".
func (c *CachedListingRepository) generation(ctx context.Context, id string) (string, bool) {
	gen, err := c.client.Get(ctx, generationKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", true
	}
	if err != nil {
		c.logger.Warn("Cache generation read failed", "listing_id", id, "error", err)
		return "", false
	}
	return gen, true
}

func (c *CachedListingRepository) set(ctx context.Context, listing *domain.Listing, gen string) {
	data, err := json.Marshal(listing)
	if err != nil {
		c.logger.Warn("Failed to encode listing for cache", "listing_id", listing.ID, "error", err)
		return
	}
	keys := []string{cacheKey(listing.ID), generationKey(listing.ID)}
	stored, err := fillScript.Run(ctx, c.client, keys, gen, data, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warn("Cache write failed", "listing_id", listing.ID, "error", err)
		return
	}
	if stored == 0 {
		c.logger.Debug("Listing changed while loading, not caching it", "listing_id", listing.ID)
	}
}

func (c *CachedListingRepository) invalidate(ctx context.Context, id string) {
	genKey := generationKey(id)
	if err := c.client.Incr(ctx, genKey).Err(); err != nil {
		c.logger.Warn("Cache generation bump failed", "listing_id", id, "error", err)
	} else if err := c.client.Expire(ctx, genKey, 2*c.ttl).Err(); err != nil {
		c.logger.Warn("Cache generation expiry failed", "listing_id", id, "error", err)
	}
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.logger.Warn("Cache invalidation failed", "listing_id", id, "error", err)
	}
}

func (c *CachedListingRepository) Create(ctx context.Context, listing *domain.Listing) (string, error) {
	return c.next.Create(ctx, listing)
}

func (c *CachedListingRepository) Update(ctx context.Context, id string, fields domain.Fields) error {
	err := c.next.Update(ctx, id, fields)
	c.invalidate(ctx, id)
	return err
}

func (c *CachedListingRepository) Delete(ctx context.Context, id string) error {
	err := c.next.Delete(ctx, id)
	c.invalidate(ctx, id)
	return err
}

func (c *CachedListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	if listing, ok := c.get(ctx, id); ok {
		c.logger.Debug("Cache hit", "listing_id", id)
		return listing, nil
	}
	gen, fillable := c.generation(ctx, id)
	listing, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fillable {
		c.set(ctx, listing, gen)
	}
	return listing, nil
}

func (c *CachedListingRepository) QueryByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	return c.next.QueryByOwner(ctx, ownerID)
}

func (c *CachedListingRepository) QueryByType(ctx context.Context, listingType domain.ListingType, limit int, newestFirst bool) ([]*domain.Listing, error) {
	return c.next.QueryByType(ctx, listingType, limit, newestFirst)
}
