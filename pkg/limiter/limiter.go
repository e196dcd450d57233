// Package limiter 提供基于令牌桶的接口限流实现
package limiter

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face 限流器接口
type Face interface {
	// Key 从请求上下文中提取限流 key
	Key(c *gin.Context) string
	// GetBucket 获取 key 对应的令牌桶
	GetBucket(key string) (*ratelimit.Bucket, bool)
	// AddBuckets 注册限流规则
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule 令牌桶规则
type BucketRule struct {
	// Key 自定义键值对应的规则
	Key string
	// FillInterval 放令牌的间隔
	FillInterval time.Duration
	// Capacity 令牌桶容量
	Capacity int64
	// Quantum 每次放的令牌数量
	Quantum int64
}

// Limiter 限流器基础结构
type Limiter struct {
	limiterBuckets map[string]*ratelimit.Bucket
}
