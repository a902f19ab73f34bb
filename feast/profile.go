package feast

import (
	"context"
	"strings"
	"time"

	"github.com/rushteam/newsrec/core"
)

// 画像特征命名约定（Feature View 默认为 user_profile）：
//   {view}:interest_{category}  float，类别兴趣权重
//   {view}:recent_reads         string，近期阅读文章 ID，'|' 分隔

const (
	defaultFeatureView = "user_profile"
	defaultEntityKey   = "user_id"

	interestPrefix    = "interest_"
	recentReadsSuffix = "recent_reads"
)

// ProfileLoader 从 Feast 在线特征中还原用户画像，实现 core.ProfileLoader。
//
// 使用场景：
//   - 推荐请求路径上按用户 ID 读取兴趣权重，驱动冷启动类别优先级
//     与内容召回的种子文本
type ProfileLoader struct {
	// Client 是在线特征客户端
	Client Client

	// FeatureView 是画像特征视图名称，默认 "user_profile"
	FeatureView string

	// EntityKey 是实体键名称，默认 "user_id"
	EntityKey string

	// Categories 是需要读取兴趣权重的类别集合
	Categories []string
}

// NewProfileLoader 创建一个画像加载器。
func NewProfileLoader(client Client, categories []string) *ProfileLoader {
	return &ProfileLoader{
		Client:     client,
		Categories: categories,
	}
}

// Load 实现 core.ProfileLoader。
// 特征服务不可达或用户没有任何画像特征时返回 ErrUserNotFound，
// 引擎会按无画像路径继续。
func (l *ProfileLoader) Load(ctx context.Context, userID string) (*core.UserProfile, error) {
	if l.Client == nil || userID == "" {
		return nil, core.ErrUserNotFound
	}

	view := l.FeatureView
	if view == "" {
		view = defaultFeatureView
	}
	entityKey := l.EntityKey
	if entityKey == "" {
		entityKey = defaultEntityKey
	}

	features := make([]string, 0, len(l.Categories)+1)
	for _, cat := range l.Categories {
		features = append(features, view+":"+interestPrefix+cat)
	}
	features = append(features, view+":"+recentReadsSuffix)

	resp, err := l.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   features,
		EntityRows: []map[string]interface{}{{entityKey: userID}},
	})
	if err != nil {
		return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodeDependencyTimeout, err.Error())
	}
	if len(resp.FeatureVectors) == 0 {
		return nil, core.ErrUserNotFound
	}

	values := resp.FeatureVectors[0].Values
	profile := core.NewUserProfile(userID)
	profile.UpdateTime = time.Now()

	for _, cat := range l.Categories {
		raw, ok := values[view+":"+interestPrefix+cat]
		if !ok {
			continue
		}
		if weight, ok := raw.(float64); ok && weight > 0 {
			profile.UpdateInterest(cat, weight)
		}
	}

	if raw, ok := values[view+":"+recentReadsSuffix]; ok {
		if joined, ok := raw.(string); ok && joined != "" {
			for _, id := range strings.Split(joined, "|") {
				if id != "" {
					profile.RecentReads = append(profile.RecentReads, id)
				}
			}
		}
	}

	if len(profile.Interests) == 0 && len(profile.RecentReads) == 0 {
		return nil, core.ErrUserNotFound
	}
	return profile, nil
}

// 确保 ProfileLoader 实现了 core.ProfileLoader 接口
var _ core.ProfileLoader = (*ProfileLoader)(nil)
