package services

import (
	"context"
	"sync"
	"time"

	"safc/internal/logger"
)

// QuotaService 按客户端 IP 统计每日写请求次数
type QuotaService struct {
	limit     int
	resetHour int
	counts    map[string]int
	mu        sync.Mutex
	now       func() time.Time
	log       *logger.Logger
}

func NewQuotaService(limit, resetHour int, log *logger.Logger) *QuotaService {
	return &QuotaService{
		limit:     limit,
		resetHour: resetHour,
		counts:    make(map[string]int),
		now:       time.Now,
		log:       log,
	}
}

// Allow 计入一次请求；已达上限时返回 false 且不再计数
func (s *QuotaService) Allow(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts[ip] >= s.limit {
		return false
	}
	s.counts[ip]++
	return true
}

// Remaining 本周期内剩余次数
func (s *QuotaService) Remaining(ip string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.limit - s.counts[ip]; n > 0 {
		return n
	}
	return 0
}

func (s *QuotaService) Limit() int {
	return s.limit
}

// Reset 清空所有计数
func (s *QuotaService) Reset() {
	s.mu.Lock()
	n := len(s.counts)
	s.counts = make(map[string]int)
	s.mu.Unlock()
	s.log.Info("post quota reset", "clients", n)
}

// StartDailyReset 每天 resetHour 点清空计数，直到 ctx 取消
func (s *QuotaService) StartDailyReset(ctx context.Context) {
	go func() {
		for {
			timer := time.NewTimer(time.Until(nextReset(s.now(), s.resetHour)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.Reset()
			}
		}
	}()
}

// nextReset 下一个 hour 整点（严格晚于 now）
func nextReset(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
