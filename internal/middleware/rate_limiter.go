package middleware

import (
	"sync"
	"time"
)

// ==================== CooldownLimiter 冷却限流器 ====================

// CooldownLimiter 按 key 做固定冷却窗口的限流
// 用来压住同一用户对开单接口的连点，防止在渠道侧刷出一堆空挂意向
type CooldownLimiter struct {
	locks sync.Map // key -> *lockEntry
}

type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局限流器实例
var globalLimiter = &CooldownLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *CooldownLimiter {
	return globalLimiter
}

// ==================== 限流检查 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行
// key: 限流键，如 "purchase_intent:42"
// interval: 冷却间隔
func (r *CooldownLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 清掉某个 key 的冷却（测试用）
func (r *CooldownLimiter) Reset(key string) {
	r.locks.Delete(key)
}
