package engine

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/filter"
	"github.com/rushteam/newsrec/pipeline"
	"github.com/rushteam/newsrec/recall"
	"github.com/rushteam/newsrec/rerank"
)

// Options 是引擎的行为参数，全部有可用的默认值。
type Options struct {
	// WindowDays 交互矩阵的时间窗口（天），默认 90。
	WindowDays int

	// MinUserInteractions 进入矩阵的最少交互条数，默认 3。
	MinUserInteractions int

	// MaxFactors SVD 隐因子数量上限，默认 20。
	MaxFactors int

	// CollaborativeRatio / ContentRatio 温启动混合配比，默认 0.5 / 0.3，
	// 剩余席位归冷启动池。
	CollaborativeRatio float64
	ContentRatio       float64

	// PriorityCategories 冷启动的优先类别顺序。
	PriorityCategories []string

	// PerCategoryQuota 冷启动每个类别的最新文章配额，默认 3。
	PerCategoryQuota int

	// PopularWindowDays 冷启动热门池的时间窗口（天），默认 3。
	PopularWindowDays int

	// SourceTimeout 单个召回源的超时时间，默认 800ms。
	SourceTimeout time.Duration

	// RefreshInterval 快照后台刷新周期，默认 30 分钟。
	RefreshInterval time.Duration

	// FilterRules 是 CEL 过滤规则表达式列表（可选）。
	FilterRules []string

	// CandidateLimit 内容召回扫描的候选池大小，默认 200。
	CandidateLimit int
}

func (o *Options) withDefaults() Options {
	opts := Options{}
	if o != nil {
		opts = *o
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 90
	}
	if opts.MinUserInteractions <= 0 {
		opts.MinUserInteractions = 3
	}
	if opts.MaxFactors <= 0 {
		opts.MaxFactors = 20
	}
	if opts.CollaborativeRatio <= 0 {
		opts.CollaborativeRatio = 0.5
	}
	if opts.ContentRatio <= 0 {
		opts.ContentRatio = 0.3
	}
	if opts.PerCategoryQuota <= 0 {
		opts.PerCategoryQuota = 3
	}
	if opts.PopularWindowDays <= 0 {
		opts.PopularWindowDays = 3
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = 800 * time.Millisecond
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 30 * time.Minute
	}
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = 200
	}
	return opts
}

// Request 是一次推荐请求。
type Request struct {
	UserID string

	// Limit 返回条数，<= 0 时取 10。
	Limit int

	// DiversityLevel 多样性水平 (0.0 ~ 1.0)，0 关闭多样性重排。
	DiversityLevel float64

	// Scene 请求场景，默认 "feed"。
	Scene string
}

// Engine 是推荐引擎门面：持有全部协作方，对外只暴露少量入口。
//
// 并发模型：
//   - 快照经 atomic.Pointer 原地切换，推荐路径无锁
//   - 后台刷新独占写入，新快照构建完成前旧快照持续服务
//   - 召回源经 Fanout 并发执行，单源超时/失败按空候选池降级
type Engine struct {
	interactions core.InteractionSource
	articles     core.ArticleSource
	embeddings   core.EmbeddingProvider
	profiles     core.ProfileLoader

	opts Options
	log  zerolog.Logger

	snap    atomic.Pointer[Snapshot]
	builder *snapshotBuilder

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New 创建推荐引擎。interactions 与 articles 必填；
// embeddings 为 nil 时内容召回通路不可用，profiles 为 nil 时按无画像路径工作。
func New(
	interactions core.InteractionSource,
	articles core.ArticleSource,
	embeddings core.EmbeddingProvider,
	profiles core.ProfileLoader,
	opts *Options,
	log zerolog.Logger,
) *Engine {
	o := opts.withDefaults()
	return &Engine{
		interactions: interactions,
		articles:     articles,
		embeddings:   embeddings,
		profiles:     profiles,
		opts:         o,
		log:          log.With().Str("component", "engine").Logger(),
		builder: &snapshotBuilder{
			interactions:        interactions,
			articles:            articles,
			windowDays:          o.WindowDays,
			minUserInteractions: o.MinUserInteractions,
			maxFactors:          o.MaxFactors,
		},
		stop: make(chan struct{}),
	}
}

// Refresh 同步执行一次快照构建并原子切换。
// 构建失败时保留旧快照继续服务。
func (e *Engine) Refresh(ctx context.Context) error {
	started := time.Now()
	snap, err := e.builder.build(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("snapshot refresh failed, keeping previous snapshot")
		return err
	}
	e.snap.Store(snap)
	e.log.Info().
		Int("users", snap.Matrix.Rows()).
		Int("items", snap.Matrix.Cols()).
		Bool("model_ready", snap.Factors != nil).
		Dur("elapsed", time.Since(started)).
		Msg("snapshot refreshed")
	return nil
}

// Start 启动后台刷新循环。首次刷新同步执行，保证返回后引擎可服务；
// 首次刷新失败不阻止启动（引擎以冷启动路径服务，等待下轮刷新）。
func (e *Engine) Start(ctx context.Context) {
	_ = e.Refresh(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.opts.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = e.Refresh(context.Background())
			case <-e.stop:
				return
			}
		}
	}()
}

// Close 停止后台刷新。
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.stop)
	})
	e.wg.Wait()
}

// Snapshot 返回当前快照，可能为 nil（尚未刷新成功）。
func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}

// Recommend 为用户产出一批推荐。
//
// 路径选择：
//   - 用户在当前矩阵中：协同过滤 + 内容 + 冷启动混合；模型不可用时
//     协同过滤池为空，配额滚动给内容相似
//   - 未知用户 / 矩阵缺失：冷启动选择 + 热度召回，按画像兴趣加权
//
// 任何召回源失败都按空候选池降级，方法本身只在输入无效时返回错误。
func (e *Engine) Recommend(ctx context.Context, req *Request) (*core.RecommendationResult, error) {
	if req == nil || req.UserID == "" {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: user id is required")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	scene := req.Scene
	if scene == "" {
		scene = "feed"
	}

	started := time.Now()
	snap := e.snap.Load()

	var profile *core.UserProfile
	if e.profiles != nil {
		p, err := e.profiles.Load(ctx, req.UserID)
		if err != nil {
			if !core.IsNotFound(err) {
				e.log.Debug().Err(err).Str("user_id", req.UserID).Msg("profile load failed")
			}
		} else {
			profile = p
		}
	}
	// 没有外部画像时，用快照里的窗口内阅读记录充当内容召回的种子
	if profile == nil && snap != nil {
		if reads := snap.RecentReads(req.UserID); len(reads) > 0 {
			p := core.NewUserProfile(req.UserID)
			p.RecentReads = reads
			profile = p
		}
	}

	// 冷启动只看用户是否在矩阵中；模型拟合失败不改变路径，
	// 协同过滤池按空处理，内容召回照常工作
	cold := snap == nil || !snap.HasUser(req.UserID)

	rctx := &core.RecommendContext{
		UserID: req.UserID,
		Scene:  scene,
		User:   profile,
	}

	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			e.recallNode(snap, cold, limit),
			e.filterNode(snap),
			&rerank.Blend{
				Limit:              limit,
				CollaborativeRatio: e.opts.CollaborativeRatio,
				ContentRatio:       e.opts.ContentRatio,
				Cold:               cold,
			},
			&rerank.Diversity{
				Limit: limit,
				Level: req.DiversityLevel,
			},
			&rerank.TopN{N: limit},
		},
	}

	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		e.log.Error().Err(err).Str("user_id", req.UserID).Msg("pipeline failed")
		return nil, err
	}

	result := &core.RecommendationResult{
		UserID:      req.UserID,
		Items:       make([]core.Recommendation, 0, len(items)),
		ColdStart:   cold,
		GeneratedAt: time.Now(),
	}
	for _, item := range items {
		result.Items = append(result.Items, core.Recommendation{
			ItemID: item.ID,
			Score:  item.Score,
			Source: item.Source,
			Reason: recommendReason(item),
		})
	}

	e.log.Info().
		Str("user_id", req.UserID).
		Bool("cold_start", cold).
		Int("count", len(result.Items)).
		Dur("elapsed", time.Since(started)).
		Msg("recommend served")
	return result, nil
}

// Similar 返回与指定文章最相似的文章（相似文章场景）。
func (e *Engine) Similar(ctx context.Context, itemID string, limit int) ([]core.Recommendation, error) {
	if itemID == "" {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: item id is required")
	}
	if limit <= 0 {
		limit = 10
	}

	content := &recall.Content{
		Articles:       e.articles,
		Embeddings:     e.embeddings,
		CandidateLimit: e.opts.CandidateLimit,
	}
	items, err := content.SimilarToArticle(ctx, itemID, nil, limit)
	if err != nil {
		return nil, err
	}

	out := make([]core.Recommendation, 0, len(items))
	for _, item := range items {
		out = append(out, core.Recommendation{
			ItemID: item.ID,
			Score:  item.Score,
			Source: item.Source,
		})
	}
	return out, nil
}

// recallNode 按路径组装召回源。Sources 顺序即去重优先级。
func (e *Engine) recallNode(snap *Snapshot, cold bool, limit int) pipeline.Node {
	coldStart := &recall.ColdStart{
		Articles:           e.articles,
		PriorityCategories: e.opts.PriorityCategories,
		PerCategoryQuota:   e.opts.PerCategoryQuota,
		PopularWindowDays:  e.opts.PopularWindowDays,
		Limit:              limit * 2,
	}
	trending := &recall.Trending{
		Articles:     e.articles,
		Interactions: e.interactions,
		TopK:         limit,
	}

	sources := make([]recall.Source, 0, 4)
	if !cold && snap != nil {
		if snap.Factors != nil {
			sources = append(sources, &recall.Collaborative{
				Matrix:  snap.Matrix,
				Factors: snap.Factors,
				Recency: snap.Recency,
				TopK:    limit * 5,
			})
		}
		if e.embeddings != nil {
			sources = append(sources, &recall.Content{
				Articles:       e.articles,
				Embeddings:     e.embeddings,
				TopK:           limit * 2,
				CandidateLimit: e.opts.CandidateLimit,
			})
		}
	}
	sources = append(sources, coldStart, trending)

	return &recall.Fanout{
		Sources:       sources,
		Timeout:       e.opts.SourceTimeout,
		MergeStrategy: "union",
	}
}

// filterNode 组装过滤链：窗口内已读 + 配置的规则过滤。
func (e *Engine) filterNode(snap *Snapshot) pipeline.Node {
	filters := make([]filter.Filter, 0, 1+len(e.opts.FilterRules))
	if snap != nil {
		filters = append(filters, filter.NewSeenFilter(snap))
	}
	for _, rule := range e.opts.FilterRules {
		filters = append(filters, filter.NewRuleFilter(rule))
	}
	return &filter.FilterNode{Filters: filters}
}

// recommendReason 从候选标签推导展示原因。
// recall_source 的值在去重合并后可能是 '|' 累积的多来源串。
func recommendReason(item *core.Item) string {
	lbl, hasSource := item.GetLabel("recall_source")
	if hasSource && strings.Contains(lbl.Value, "trending") {
		return "trending"
	}
	if _, ok := item.GetLabel("interest_boost"); ok {
		return "interest_match"
	}
	if hasSource {
		return lbl.Value
	}
	return string(item.Source)
}
