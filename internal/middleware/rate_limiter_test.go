package middleware

import (
	"sync"
	"testing"
	"time"
)

func TestCooldownLimiter_Basic(t *testing.T) {
	limiter := &CooldownLimiter{}

	// 首次放行
	result := limiter.Check("user:1", 100*time.Millisecond)
	if !result.Allowed {
		t.Fatal("首次请求应放行")
	}

	// 冷却期内拦截
	result = limiter.Check("user:1", 100*time.Millisecond)
	if result.Allowed {
		t.Fatal("冷却期内应拦截")
	}
	if result.RetryAfter <= 0 || result.RetryAfter > 100*time.Millisecond {
		t.Errorf("剩余冷却时间不合理: %v", result.RetryAfter)
	}

	// 不同 key 互不影响
	if result := limiter.Check("user:2", 100*time.Millisecond); !result.Allowed {
		t.Error("不同 key 不应互相影响")
	}

	// 冷却结束后放行
	time.Sleep(120 * time.Millisecond)
	if result := limiter.Check("user:1", 100*time.Millisecond); !result.Allowed {
		t.Error("冷却结束后应放行")
	}
}

func TestCooldownLimiter_Reset(t *testing.T) {
	limiter := &CooldownLimiter{}

	limiter.Check("user:1", time.Hour)
	limiter.Reset("user:1")

	if result := limiter.Check("user:1", time.Hour); !result.Allowed {
		t.Error("Reset 后应放行")
	}
}

func TestCooldownLimiter_Concurrent(t *testing.T) {
	limiter := &CooldownLimiter{}

	const workers = 16
	var wg sync.WaitGroup
	allowed := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- limiter.Check("same-key", time.Second).Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	var count int
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != 1 {
		t.Errorf("并发抢同一个 key 应只放行 1 个, 实际 %d", count)
	}
}
