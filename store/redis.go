package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/newsrec/core"
)

// Redis key 布局：
//   newsrec:interactions          zset，score 为交互时间戳，member 为交互 JSON
//   newsrec:article:{id}          文章 JSON
//   newsrec:articles:recent       zset，score 为发布时间戳
//   newsrec:articles:recent:{cat} 按类别的发布时间 zset
//   newsrec:articles:views        zset，score 为浏览量
//   newsrec:embedding:{id}        向量 JSON

const (
	keyInteractions   = "newsrec:interactions"
	keyArticlePrefix  = "newsrec:article:"
	keyArticlesRecent = "newsrec:articles:recent"
	keyArticlesViews  = "newsrec:articles:views"
	keyEmbedPrefix    = "newsrec:embedding:"
)

// RedisStore 是 Redis 实现的数据源，实现 core.InteractionSource、
// core.ArticleSource、core.EmbeddingProvider（只读部分）。
// 生产环境常用，支持持久化、集群、哨兵等。
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient 复用外部已配置好的 client（集群/哨兵场景）。
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Name() string { return "redis" }

// AddInteraction 追加一条交互记录。
func (r *RedisStore) AddInteraction(ctx context.Context, it core.Interaction) error {
	data, err := json.Marshal(it)
	if err != nil {
		return err
	}
	return r.client.ZAdd(ctx, keyInteractions, redis.Z{
		Score:  float64(it.Timestamp.Unix()),
		Member: data,
	}).Err()
}

// AddArticle 写入文章元数据并更新各索引 zset。
func (r *RedisStore) AddArticle(ctx context.Context, a *core.Article) error {
	if a == nil {
		return nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, keyArticlePrefix+a.ID, data, 0)
	pipe.ZAdd(ctx, keyArticlesRecent, redis.Z{
		Score:  float64(a.PublishedAt.Unix()),
		Member: a.ID,
	})
	for _, cat := range a.Categories {
		pipe.ZAdd(ctx, keyArticlesRecent+":"+cat, redis.Z{
			Score:  float64(a.PublishedAt.Unix()),
			Member: a.ID,
		})
	}
	pipe.ZAdd(ctx, keyArticlesViews, redis.Z{
		Score:  float64(a.ViewCount),
		Member: a.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// PutEmbedding 写入文章的预计算向量。
func (r *RedisStore) PutEmbedding(ctx context.Context, itemID string, vec []float64) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyEmbedPrefix+itemID, data, 0).Err()
}

// Query 实现 core.InteractionSource。
func (r *RedisStore) Query(ctx context.Context, since time.Time) ([]core.Interaction, error) {
	members, err := r.client.ZRangeByScore(ctx, keyInteractions, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	out := make([]core.Interaction, 0, len(members))
	for _, m := range members {
		var it core.Interaction
		if err := json.Unmarshal([]byte(m), &it); err != nil {
			// 脏数据跳过，不中断整个窗口的读取
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// Get 实现 core.ArticleSource。
func (r *RedisStore) Get(ctx context.Context, itemID string) (*core.Article, error) {
	data, err := r.client.Get(ctx, keyArticlePrefix+itemID).Bytes()
	if err == redis.Nil {
		return nil, core.ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}

	var a core.Article
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListRecent 实现 core.ArticleSource，按发布时间降序返回。
func (r *RedisStore) ListRecent(ctx context.Context, limit int, category string) ([]*core.Article, error) {
	key := keyArticlesRecent
	if category != "" {
		key = keyArticlesRecent + ":" + category
	}

	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := r.client.ZRevRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	return r.fetchArticles(ctx, ids)
}

// ListPopular 实现 core.ArticleSource，按浏览量降序返回 since 之后发布的文章。
func (r *RedisStore) ListPopular(ctx context.Context, since time.Time, limit int) ([]*core.Article, error) {
	// 浏览量 zset 不携带发布时间，先多取一些再按时间过滤
	fetch := int64(-1)
	if limit > 0 {
		fetch = int64(limit)*5 - 1
	}
	ids, err := r.client.ZRevRange(ctx, keyArticlesViews, 0, fetch).Result()
	if err != nil {
		return nil, err
	}

	articles, err := r.fetchArticles(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Article, 0, len(articles))
	for _, a := range articles {
		if a.PublishedAt.Before(since) {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Embed 实现 core.EmbeddingProvider。
// Redis 只保存预计算向量，不具备模型推理能力，在线生成请接入独立的向量服务。
func (r *RedisStore) Embed(context.Context, string) ([]float64, error) {
	return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeNotSupported, "redis store cannot embed text")
}

// GetStored 实现 core.EmbeddingProvider。
func (r *RedisStore) GetStored(ctx context.Context, itemID string) ([]float64, error) {
	data, err := r.client.Get(ctx, keyEmbedPrefix+itemID).Bytes()
	if err == redis.Nil {
		return nil, core.ErrEmbeddingNotFound
	}
	if err != nil {
		return nil, err
	}

	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (r *RedisStore) fetchArticles(ctx context.Context, ids []string) ([]*core.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyArticlePrefix + id
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*core.Article, 0, len(ids))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var a core.Article
		if err := json.Unmarshal([]byte(s), &a); err != nil {
			continue
		}
		out = append(out, &a)
	}
	return out, nil
}
