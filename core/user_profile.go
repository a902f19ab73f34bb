package core

import "time"

// UserProfile 是用户画像的核心抽象。
//
// 它不是某一个 Node，而是：
//   - 被所有召回源共享
//   - 驱动冷启动重排与内容召回的种子构建
//   - 可以被 Label 打标、回写、持续演进
//
// 设计要点：
//
//	维度          作用
//	声明兴趣      冷启动重排 / 内容召回种子
//	近期阅读      内容召回种子文本
//	实验桶        策略切换
type UserProfile struct {
	UserID string

	// Interests 是声明的兴趣类别，key: category，value: weight (0-1)。
	// 来源可以是注册时的偏好选择，也可以是特征平台的长期画像。
	Interests map[string]float64

	// RecentReads 最近阅读的文章 ID，时间降序。
	RecentReads []string

	// Buckets AB / 实验桶，例如 {"diversity": "strong"}
	Buckets map[string]string

	UpdateTime time.Time
}

// NewUserProfile 创建一个新的用户画像。
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:      userID,
		Interests:   make(map[string]float64),
		RecentReads: make([]string, 0),
		Buckets:     make(map[string]string),
		UpdateTime:  time.Now(),
	}
}

// UpdateInterest 更新兴趣权重。
func (p *UserProfile) UpdateInterest(category string, weight float64) {
	if p.Interests == nil {
		p.Interests = make(map[string]float64)
	}
	p.Interests[category] = weight
	p.UpdateTime = time.Now()
}

// InterestWeight 获取兴趣权重，未声明的类别为 0。
func (p *UserProfile) InterestWeight(category string) float64 {
	if p == nil || p.Interests == nil {
		return 0
	}
	return p.Interests[category]
}

// AddRecentRead 添加最近阅读记录，去重并限制长度。
func (p *UserProfile) AddRecentRead(itemID string, maxSize int) {
	for _, id := range p.RecentReads {
		if id == itemID {
			return
		}
	}
	p.RecentReads = append(p.RecentReads, itemID)
	if maxSize > 0 && len(p.RecentReads) > maxSize {
		p.RecentReads = p.RecentReads[len(p.RecentReads)-maxSize:]
	}
	p.UpdateTime = time.Now()
}

// SetBucket 设置实验桶。
func (p *UserProfile) SetBucket(key, value string) {
	if p.Buckets == nil {
		p.Buckets = make(map[string]string)
	}
	p.Buckets[key] = value
}

// GetBucket 获取实验桶值。
func (p *UserProfile) GetBucket(key string) string {
	if p.Buckets == nil {
		return ""
	}
	return p.Buckets[key]
}
