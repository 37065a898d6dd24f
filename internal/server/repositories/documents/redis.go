package documents

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/server/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var redisDocPrefix string = "doc/"
var redisTitlePrefix string = "title/"

const (
	fieldTable   = "table"
	fieldTitle   = "title"
	fieldViews   = "views"
	fieldCreated = "created_at"
)

// RedisRepository stores each document as a hash under "doc/<id>" and keeps
// a sorted set per (table, title) scored by creation time for title lookups.
// Views are written with HSET, never HINCRBY, to keep the same
// read-then-write contract as the other stores.
type RedisRepository struct {
	Client *redis.Client
}

func NewRedisRepository(redisURL string) (*RedisRepository, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, err
	}
	return &RedisRepository{Client: rdb}, nil
}

func (r *RedisRepository) Close() error {
	return r.Client.Close()
}

func docKey(id string) string {
	return redisDocPrefix + id
}

func titleKey(table, title string) string {
	return fmt.Sprintf("%s%s/%s", redisTitlePrefix, table, title)
}

func docFromHash(id string, h map[string]string) (*models.Document, error) {
	if len(h) == 0 {
		return nil, common.ErrorNotFound
	}
	doc := &models.Document{ID: id, Table: h[fieldTable], Title: h[fieldTitle]}
	if v, ok := h[fieldViews]; ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt views for %s: %w", id, err)
		}
		doc.Views = &n
	}
	if c, ok := h[fieldCreated]; ok {
		if micros, err := strconv.ParseInt(c, 10, 64); err == nil {
			doc.CreatedAt = time.UnixMicro(micros).UTC()
		}
	}
	return doc, nil
}

func (r *RedisRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	h, err := r.Client.HGetAll(ctx, docKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return docFromHash(id, h)
}

func (r *RedisRepository) FindByTitle(ctx context.Context, table, title string) (*models.Document, error) {
	// equal scores are ordered by member, i.e. by id
	ids, err := r.Client.ZRange(ctx, titleKey(table, title), 0, 0).Result()
	if errors.Is(err, redis.Nil) || (err == nil && len(ids) == 0) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return r.GetByID(ctx, ids[0])
}

func (r *RedisRepository) SetViews(ctx context.Context, id string, views int64) error {
	n, err := r.Client.Exists(ctx, docKey(id)).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	if err := r.Client.HSet(ctx, docKey(id), fieldViews, views).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	existing, err := r.GetByID(ctx, doc.ID)
	switch {
	case err == nil:
		doc.CreatedAt = existing.CreatedAt
	case errors.Is(err, common.ErrorNotFound):
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = time.Now().UTC()
		}
	default:
		return err
	}

	// add the hash fields and the title index in a single round-trip
	multi := r.Client.TxPipeline()
	if existing != nil && (existing.Table != doc.Table || existing.Title != doc.Title) {
		multi.ZRem(ctx, titleKey(existing.Table, existing.Title), doc.ID)
	}
	fields := []any{fieldTable, doc.Table, fieldTitle, doc.Title, fieldCreated, doc.CreatedAt.UnixMicro()}
	if existing == nil && doc.Views != nil {
		fields = append(fields, fieldViews, *doc.Views)
	}
	multi.HSet(ctx, docKey(doc.ID), fields...)
	multi.ZAdd(ctx, titleKey(doc.Table, doc.Title), redis.Z{Score: float64(doc.CreatedAt.UnixMicro()), Member: doc.ID})

	if _, err := multi.Exec(ctx); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}
