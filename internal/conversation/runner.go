package conversation

import (
	"context"
	"errors"
	"sync"

	"safc/internal/apperr"
	"safc/internal/logger"
)

// Transport delivers effects to the end user.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string, kb Keyboard, replyTo int) error
	Edit(ctx context.Context, chatID int64, messageID int, text string, kb Keyboard) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Runner serializes events per session: load, step, persist, then apply.
type Runner struct {
	machine   *Machine
	sessions  SessionStore
	transport Transport
	log       *logger.Logger
	locks     *keyedMutex
}

func NewRunner(m *Machine, sessions SessionStore, t Transport, log *logger.Logger) *Runner {
	return &Runner{
		machine:   m,
		sessions:  sessions,
		transport: t,
		log:       log,
		locks:     newKeyedMutex(),
	}
}

// Handle processes one inbound event; concurrent calls for the same
// session run one at a time, different sessions never wait on each other.
// A callback against a missing or stale session is answered, the session
// is dropped, and apperr.ErrSessionExpired is returned.
func (r *Runner) Handle(ctx context.Context, sessionID string, ev Event) error {
	unlock := r.locks.Lock(sessionID)
	defer unlock()

	st, ok, err := r.sessions.Load(ctx, sessionID)
	if err != nil {
		r.log.Error("load session failed", "session_id", sessionID, "error", err)
		r.fail(ctx, ev)
		return err
	}
	if !ok {
		st = State{}
	}

	res, err := r.machine.Step(ctx, st, ev)
	if err != nil {
		if errors.Is(err, apperr.ErrInvariant) {
			r.log.Error("invariant violated, aborting session", "session_id", sessionID, "state", st.Kind, "error", err)
			if derr := r.sessions.Delete(ctx, sessionID); derr != nil {
				r.log.Error("delete session failed", "session_id", sessionID, "error", derr)
			}
		} else {
			r.log.Error("step failed", "session_id", sessionID, "state", st.Kind, "error", err)
		}
		r.fail(ctx, ev)
		return err
	}
	if res.Expired {
		r.log.Info("session expired", "session_id", sessionID, "data", ev.Data)
	}

	if res.State.Kind == KindIdle {
		err = r.sessions.Delete(ctx, sessionID)
	} else {
		err = r.sessions.Save(ctx, sessionID, res.State)
	}
	if err != nil {
		r.log.Error("persist session failed", "session_id", sessionID, "error", err)
		r.fail(ctx, ev)
		return err
	}

	if st.Kind != res.State.Kind {
		r.log.Debug("transition", "session_id", sessionID, "from", st.Kind, "to", res.State.Kind)
	}
	err = r.apply(ctx, ev, res.Effects)
	if res.Expired {
		// 用户已收到过期提示，调用方据此区分正常过期与失败
		return errors.Join(err, apperr.ErrSessionExpired)
	}
	return err
}

func (r *Runner) apply(ctx context.Context, ev Event, effects []Effect) error {
	addr := ev.Address
	var errs []error
	for _, e := range effects {
		var err error
		switch e.Kind {
		case EffectAnswer:
			if addr.CallbackID != "" {
				err = r.transport.AnswerCallback(ctx, addr.CallbackID, e.Text)
			}
		case EffectEdit:
			if addr.MessageID != 0 {
				err = r.transport.Edit(ctx, addr.ChatID, addr.MessageID, e.Text, e.Keyboard)
			} else {
				err = r.transport.Send(ctx, addr.ChatID, e.Text, e.Keyboard, 0)
			}
		case EffectSend:
			replyTo := 0
			if e.Reply && ev.Kind != EventCallback {
				replyTo = addr.MessageID
			}
			err = r.transport.Send(ctx, addr.ChatID, e.Text, e.Keyboard, replyTo)
		}
		if err != nil {
			r.log.Warn("apply effect failed", "chat_id", addr.ChatID, "effect", e.Kind, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fail 向用户报告通用错误，会话状态保持不变
func (r *Runner) fail(ctx context.Context, ev Event) {
	effects := []Effect{send(msgFailure, Keyboard{})}
	if ev.Kind == EventCallback {
		effects = append([]Effect{answer("")}, effects...)
	}
	_ = r.apply(ctx, ev, effects)
}

// keyedMutex 每个 key 一把锁，无人持有时回收
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refLock)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
