package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"recipe-scraper/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// LimitStore 限流計數儲存
type LimitStore interface {
	// Allow 記錄一次請求，超過上限時回傳 false 與建議的重試等待時間
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// MemoryStore 以程序內滑動視窗記錄每個金鑰的請求時間
type MemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time

	// lastSweep 上次清除閒置金鑰的時間
	lastSweep time.Time
}

// NewMemoryStore 創建記憶體限流儲存
func NewMemoryStore(limit int, window time.Duration) *MemoryStore {
	return &MemoryStore{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow 檢查是否允許請求
func (s *MemoryStore) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.window {
		s.sweep(now)
	}

	// 丟棄視窗外的紀錄
	kept := s.requests[key][:0]
	for _, t := range s.requests[key] {
		if now.Sub(t) < s.window {
			kept = append(kept, t)
		}
	}

	if len(kept) >= s.limit {
		s.requests[key] = kept
		return false, s.window - now.Sub(kept[0]), nil
	}

	s.requests[key] = append(kept, now)
	return true, 0, nil
}

// sweep 移除整個視窗內都沒有請求的金鑰
func (s *MemoryStore) sweep(now time.Time) {
	for key, times := range s.requests {
		if len(times) == 0 || now.Sub(times[len(times)-1]) >= s.window {
			delete(s.requests, key)
		}
	}
	s.lastSweep = now
}

// Len 目前追蹤中的金鑰數
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// RedisStore 以 redis 固定視窗計數，多個實例共享同一份額度
type RedisStore struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisStore 連線 redis 並確認可用
func NewRedisStore(ctx context.Context, addr string, limit int, window time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return newRedisStore(client, limit, window), nil
}

func newRedisStore(client *redis.Client, limit int, window time.Duration) *RedisStore {
	return &RedisStore{client: client, limit: limit, window: window, prefix: "ratelimit:"}
}

// Allow INCR 計數，首次請求設定過期時間
func (s *RedisStore) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := s.prefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, s.window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis expire: %w", err)
		}
	}

	if count <= int64(s.limit) {
		return true, 0, nil
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		ttl = s.window
	}
	return false, ttl, nil
}

// Close 關閉 redis 連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// RateLimit 以 API Key 為單位的限流中間件，未驗證的請求以 IP 計算
func RateLimit(store LimitStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if apiKey := c.GetString(apiKeyContextKey); apiKey != "" {
			key = hashKey(apiKey)
		}

		allowed, retryAfter, err := store.Allow(c.Request.Context(), key)
		if err != nil {
			// 計數儲存故障時放行
			common.LogError("Rate limit store failed", zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
				zap.Duration("retry_after", retryAfter),
			)

			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       common.ErrTooManyRequests.Message,
				"code":        common.ErrTooManyRequests.Code,
				"retry_after": seconds,
			})
			return
		}

		c.Next()
	}
}

// hashKey 計數鍵使用金鑰雜湊
func hashKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:8])
}
