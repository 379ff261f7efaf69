package texture

import (
	"context"
	"image"

	lru "github.com/hashicorp/golang-lru"
	"github.com/tuziel/panorama/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of decoded images a Cache keeps.
const DefaultCacheSize = 16

// Cache keeps recently loaded images keyed by source and merges concurrent
// loads of the same source into one. Cached images are shared between
// callers and must not be modified.
type Cache struct {
	images *lru.Cache // src -> *image.NRGBA
	group  singleflight.Group
	load   func(ctx context.Context, src string) (*image.NRGBA, error)
}

// NewCache returns a cache holding up to size images; size <= 0 uses
// DefaultCacheSize.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	images, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{images: images, load: Load}, nil
}

// Load returns the image for src, loading it on a miss. A nil Cache loads
// directly.
func (c *Cache) Load(ctx context.Context, src string) (*image.NRGBA, error) {
	if c == nil {
		return Load(ctx, src)
	}
	if img, ok := c.images.Get(src); ok {
		return img.(*image.NRGBA), nil
	}

	v, err, shared := c.group.Do(src, func() (interface{}, error) {
		// Another caller may have filled the entry while we waited.
		if img, ok := c.images.Get(src); ok {
			return img, nil
		}
		img, err := c.load(ctx, src)
		if err != nil {
			return nil, err
		}
		c.images.Add(src, img)
		logger.Debug("image cached",
			zap.String("src", src),
			zap.Int("width", img.Rect.Dx()),
			zap.Int("height", img.Rect.Dy()))
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("image load shared", zap.String("src", src))
	}
	return v.(*image.NRGBA), nil
}

// Contains reports whether src is cached, without touching its recency.
func (c *Cache) Contains(src string) bool {
	return c.images.Contains(src)
}

func (c *Cache) Len() int { return c.images.Len() }

// Purge drops every cached image.
func (c *Cache) Purge() {
	c.images.Purge()
}
