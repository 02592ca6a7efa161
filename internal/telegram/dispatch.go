package telegram

import (
	"context"
	"errors"
	"sync"

	"safc/internal/apperr"
	"safc/internal/conversation"
	"safc/internal/logger"
)

// dispatcher 按会话排队：每个活跃会话一个 worker 依序消费，
// 最多 workers 个会话同时处理。只允许单个 goroutine 调用 dispatch。
type dispatcher struct {
	h   Handler
	log *logger.Logger
	sem chan struct{}
	wg  sync.WaitGroup

	mu     sync.Mutex
	queues map[string][]conversation.Event // key 存在即该会话有 worker 在跑
}

func newDispatcher(h Handler, workers int, log *logger.Logger) *dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &dispatcher{
		h:      h,
		log:    log,
		sem:    make(chan struct{}, workers),
		queues: make(map[string][]conversation.Event),
	}
}

// dispatch 将事件交给会话的 worker；会话空闲时等待空位再启动 worker。
// ctx 取消时返回 false，事件未被接收。
func (d *dispatcher) dispatch(ctx context.Context, sessionID string, ev conversation.Event) bool {
	d.mu.Lock()
	if q, ok := d.queues[sessionID]; ok {
		d.queues[sessionID] = append(q, ev)
		d.mu.Unlock()
		return true
	}
	d.mu.Unlock()

	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return false
	}

	// 只有 dispatch 会新建 key，等待空位期间该会话不会被别人启动
	d.mu.Lock()
	d.queues[sessionID] = nil
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run(ctx, sessionID, ev)
	return true
}

func (d *dispatcher) run(ctx context.Context, sessionID string, ev conversation.Event) {
	defer d.wg.Done()
	defer func() { <-d.sem }()

	for {
		d.handle(ctx, sessionID, ev)

		d.mu.Lock()
		q := d.queues[sessionID]
		if len(q) == 0 {
			delete(d.queues, sessionID)
			d.mu.Unlock()
			return
		}
		ev = q[0]
		d.queues[sessionID] = q[1:]
		d.mu.Unlock()
	}
}

func (d *dispatcher) handle(ctx context.Context, sessionID string, ev conversation.Event) {
	err := d.h.Handle(ctx, sessionID, ev)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrSessionExpired):
		d.log.Debug("session expired", "chat_id", ev.Address.ChatID)
	default:
		d.log.Warn("handle update failed", "chat_id", ev.Address.ChatID, "error", err)
	}
}

// wait 等待所有已接收事件处理完毕
func (d *dispatcher) wait() {
	d.wg.Wait()
}
