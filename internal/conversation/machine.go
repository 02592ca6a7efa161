package conversation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"safc/internal/apperr"
	"safc/internal/identity"
	"safc/internal/models"
	"safc/internal/query"
	"safc/internal/store"
)

// Store is the part of the review store the machine reads and writes.
type Store interface {
	ListCategories(ctx context.Context) ([]string, error)
	ListUniversities(ctx context.Context, cate string) ([]string, error)
	ListDepartments(ctx context.Context, cate, university string) ([]string, error)
	ListSupervisors(ctx context.Context, cate, university, department string) ([]string, error)
	FindObject(ctx context.Context, university, department, supervisor string) (*models.ReviewedObject, error)
	FindObjectByID(ctx context.Context, id string) (*models.ReviewedObject, error)
	ObjectOrCommentKind(ctx context.Context, id string) (store.Kind, error)
	AddObject(ctx context.Context, obj models.ReviewedObject) (bool, error)
	AddComment(ctx context.Context, c models.Comment) (bool, error)
	AggregateStatus(ctx context.Context, now time.Time) (store.Status, error)
}

// Finder resolves comment trees and truncated searches.
type Finder interface {
	CommentTree(ctx context.Context, targetID string) ([]*query.Thread, error)
	SearchSupervisors(ctx context.Context, pattern string) (store.SearchResult[models.ObjectMatch], error)
	SearchComments(ctx context.Context, pattern string) (store.SearchResult[models.Comment], error)
}

type Machine struct {
	store     Store
	finder    Finder
	halfWidth int
	now       func() time.Time
	newEpoch  func() uint32
}

type Option func(*Machine)

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithEpochSource sets the generator for new session epochs.
func WithEpochSource(f func() uint32) Option {
	return func(m *Machine) { m.newEpoch = f }
}

func WithHalfWidth(w int) Option {
	return func(m *Machine) {
		if w > 0 {
			m.halfWidth = w
		}
	}
}

func NewMachine(s Store, f Finder, opts ...Option) *Machine {
	m := &Machine{
		store:     s,
		finder:    f,
		halfWidth: DefaultHalfWidth,
		now:       time.Now,
		newEpoch:  rand.Uint32,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Step computes the next state and effects for one event. A returned error
// means the step was abandoned and the caller must keep the previous state.
func (m *Machine) Step(ctx context.Context, s State, ev Event) (Result, error) {
	switch ev.Kind {
	case EventCommand:
		return m.onCommand(ctx, s, ev)
	case EventCallback:
		return m.onCallback(ctx, s, ev)
	default:
		return m.onText(ctx, s, ev.Text)
	}
}

func stay(s State, effects ...Effect) (Result, error) {
	return Result{State: s, Effects: effects}, nil
}

func move(s State, effects ...Effect) (Result, error) {
	return Result{State: s, Effects: effects}, nil
}

func expired() (Result, error) {
	return Result{
		State:   State{},
		Expired: true,
		Effects: []Effect{answer(msgExpiredAnswer), send(msgExpired, Keyboard{Kind: KeyboardRemove})},
	}, nil
}

func (m *Machine) today() string {
	return m.now().Format(store.DateLayout)
}

// ---- 命令 ----

func (m *Machine) onCommand(ctx context.Context, s State, ev Event) (Result, error) {
	switch strings.ToLower(ev.Command) {
	case "start":
		cats, err := m.store.ListCategories(ctx)
		if err != nil {
			return Result{}, err
		}
		return move(State{Kind: KindStart, Epoch: m.newEpoch()}, send(msgHello, replyKeyboard(cats, colsCategory)))
	case "cancel":
		return move(State{}, send(msgCancelled, Keyboard{Kind: KeyboardRemove}))
	case "info":
		return stay(s, send(msgInfo, Keyboard{}))
	case "status":
		st, err := m.store.AggregateStatus(ctx, m.now())
		if err != nil {
			return Result{}, err
		}
		return stay(s, send(textStatus(st), Keyboard{}))
	case "search":
		return m.searchSupervisors(ctx, s, ev.Text)
	case "find":
		return m.searchComments(ctx, s, ev.Text)
	case "id":
		return m.openID(ctx, s, ev.Text)
	default:
		return stay(s, send(msgHelp, Keyboard{}))
	}
}

func (m *Machine) searchSupervisors(ctx context.Context, s State, pattern string) (Result, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return stay(s, send(msgSearchUsage, Keyboard{}))
	}
	res, err := m.finder.SearchSupervisors(ctx, pattern)
	if err != nil {
		if apperr.IsValidation(err) {
			return stay(s, send(msgSearchUsage, Keyboard{}))
		}
		return Result{}, err
	}
	if len(res.Items) == 0 {
		return stay(s, send(msgNoMatches, Keyboard{}))
	}

	title := fmt.Sprintf("🔍 导师搜索「%s」", pattern) + truncationNote(len(res.Items), res.Total)
	targets := make([]string, len(res.Items))
	for i, it := range res.Items {
		targets[i] = it.ObjectID
	}
	action := &PageAction{Kind: ActionOpenObject, Label: "👉 打开", Targets: targets}
	return m.openPaging(ctx, s, objectPages(title, res.Items), action)
}

func (m *Machine) searchComments(ctx context.Context, s State, pattern string) (Result, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return stay(s, send(msgSearchUsage, Keyboard{}))
	}
	res, err := m.finder.SearchComments(ctx, pattern)
	if err != nil {
		if apperr.IsValidation(err) {
			return stay(s, send(msgSearchUsage, Keyboard{}))
		}
		return Result{}, err
	}
	if len(res.Items) == 0 {
		return stay(s, send(msgNoMatches, Keyboard{}))
	}

	title := fmt.Sprintf("🔍 评价搜索「%s」", pattern) + truncationNote(len(res.Items), res.Total)
	entries := make([]query.Entry, len(res.Items))
	targets := make([]string, len(res.Items))
	for i, c := range res.Items {
		entries[i] = query.Entry{Comment: c}
		targets[i] = c.ID
	}
	action := &PageAction{Kind: ActionReply, Label: "↩ 回复", Targets: targets}
	return m.openPaging(ctx, s, commentPages(title, entries), action)
}

// openPaging 由命令打开的分页层开启新的会话纪元。
// 返回点为当前会话（改用新纪元）；没有会话时返回即结束。
func (m *Machine) openPaging(ctx context.Context, s State, pages []string, action *PageAction) (Result, error) {
	epoch := m.newEpoch()
	prev := Snapshot{Text: msgSearchClosed}
	if s.Kind != KindIdle {
		prev.State = restamp(s, epoch)
		text, kb, err := m.resume(ctx, prev.State)
		if err != nil {
			return Result{}, err
		}
		prev.Text, prev.Keyboard = text, kb
	}
	p := newPaging(pages, action, prev)
	return move(State{Kind: KindPaging, Epoch: epoch, Paging: p}, send(p.pageText(), p.keyboard(epoch, m.halfWidth)))
}

// resume 重新渲染 s 的提示文本与键盘
func (m *Machine) resume(ctx context.Context, s State) (string, Keyboard, error) {
	var (
		items []string
		err   error
	)
	switch s.Kind {
	case KindStart:
		items, err = m.store.ListCategories(ctx)
		return msgHello, replyKeyboard(items, colsCategory), err
	case KindCategorySelected:
		items, err = m.store.ListUniversities(ctx, s.SchoolCate)
		return promptUniversity(s), replyKeyboard(items, colsUniversity), err
	case KindUniversitySelected:
		items, err = m.store.ListDepartments(ctx, s.SchoolCate, s.University)
		return promptDepartment(s), replyKeyboard(items, colsDepartment), err
	case KindDepartmentSelected:
		items, err = m.store.ListSupervisors(ctx, s.SchoolCate, s.University, s.Department)
		return promptSupervisor(s), replyKeyboard(items, colsSupervisor), err
	case KindSupervisorSelected:
		return textNotFound(s), addKeyboard(s.Epoch), nil
	case KindRead:
		return textMenu(s), opKeyboard(s.Epoch), nil
	case KindComment:
		if s.CommentType == models.TypeNest {
			return promptReply(s.TargetID), Keyboard{}, nil
		}
		return promptComment(s), Keyboard{}, nil
	case KindPublish:
		return textConfirm(s), Keyboard{}, nil
	case KindPaging:
		return s.Paging.pageText(), s.Paging.keyboard(s.Epoch, m.halfWidth), nil
	}
	return msgSearchClosed, Keyboard{}, nil
}

func (m *Machine) openID(ctx context.Context, s State, raw string) (Result, error) {
	id := strings.ToLower(strings.TrimSpace(raw))
	if !identity.IsID(id) {
		return stay(s, send(msgIDUsage, Keyboard{}))
	}
	kind, err := m.store.ObjectOrCommentKind(ctx, id)
	if err != nil {
		return Result{}, err
	}
	switch kind {
	case store.KindObject:
		obj, err := m.store.FindObjectByID(ctx, id)
		if err != nil {
			return Result{}, err
		}
		if obj == nil {
			return stay(s, send(msgIDUnknown, Keyboard{}))
		}
		read := stateForObject(KindRead, m.newEpoch(), obj)
		return move(read, send(textMenu(read), opKeyboard(read.Epoch)))
	case store.KindComment:
		next := State{Kind: KindComment, Epoch: m.newEpoch(), TargetID: id, CommentType: models.TypeNest}
		return move(next, send(promptReply(id), Keyboard{Kind: KeyboardRemove}))
	default:
		return stay(s, send(msgIDUnknown, Keyboard{}))
	}
}

// ---- 文本 ----

func (m *Machine) onText(ctx context.Context, s State, raw string) (Result, error) {
	if s.Kind == KindIdle {
		return stay(s, send(msgNoSession, Keyboard{}))
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return stay(s, reply(msgRetryEmpty, Keyboard{}))
	}

	switch s.Kind {
	case KindStart:
		next := State{Kind: KindCategorySelected, Epoch: s.Epoch, SchoolCate: text}
		items, err := m.store.ListUniversities(ctx, next.SchoolCate)
		if err != nil {
			return Result{}, err
		}
		return move(next, send(promptUniversity(next), replyKeyboard(items, colsUniversity)))

	case KindCategorySelected:
		next := s.withPath(KindUniversitySelected)
		next.University = text
		items, err := m.store.ListDepartments(ctx, next.SchoolCate, next.University)
		if err != nil {
			return Result{}, err
		}
		return move(next, send(promptDepartment(next), replyKeyboard(items, colsDepartment)))

	case KindUniversitySelected:
		next := s.withPath(KindDepartmentSelected)
		next.Department = text
		items, err := m.store.ListSupervisors(ctx, next.SchoolCate, next.University, next.Department)
		if err != nil {
			return Result{}, err
		}
		return move(next, send(promptSupervisor(next), replyKeyboard(items, colsSupervisor)))

	case KindDepartmentSelected:
		next := s.withPath(KindSupervisorSelected)
		next.Supervisor = text
		return m.resolveObject(ctx, next)

	case KindComment:
		next := s
		next.Kind = KindPublish
		next.Content = text
		next.Date = m.today()
		next.CommentID = identity.CommentID(next.TargetID, next.Content, next.Date)
		return move(next, reply(textConfirm(next), Keyboard{}))

	case KindPublish:
		c := models.NewComment(s.TargetID, s.Content, s.Date, models.SourceTelegram, s.CommentType, text)
		inserted, err := m.store.AddComment(ctx, c)
		if err != nil {
			return Result{}, err
		}
		if !inserted {
			return move(State{}, reply(textDuplicate(c.ID), Keyboard{}))
		}
		return move(State{}, reply(textPublished(c.ID), Keyboard{}))

	default:
		return stay(s, send(msgUseButtons, Keyboard{}))
	}
}

// resolveObject 按路径查找客体：不存在时提供增加，存在时进入操作菜单
func (m *Machine) resolveObject(ctx context.Context, next State) (Result, error) {
	obj, err := m.store.FindObject(ctx, next.University, next.Department, next.Supervisor)
	if err != nil {
		return Result{}, err
	}
	if obj == nil {
		next.ObjectID = ""
		return move(next, send(textNotFound(next), addKeyboard(next.Epoch)))
	}
	read := stateForObject(KindRead, next.Epoch, obj)
	return move(read, send(textMenu(read), opKeyboard(read.Epoch)))
}

// ---- 回调 ----

func (m *Machine) onCallback(ctx context.Context, s State, ev Event) (Result, error) {
	if s.Kind == KindIdle {
		return expired()
	}
	t, err := DecodeTag(ev.Data)
	if err != nil {
		// 无法解析的按钮数据不影响当前会话
		return stay(s, answer(msgBadButton))
	}
	if t.Epoch != s.Epoch {
		return expired()
	}

	res, err := m.dispatch(ctx, s, t)
	if err != nil || res.Expired {
		return res, err
	}
	res.Effects = append([]Effect{answer("")}, res.Effects...)
	return res, nil
}

func (m *Machine) dispatch(ctx context.Context, s State, t Tag) (Result, error) {
	switch s.Kind {
	case KindPaging:
		return m.onPaging(ctx, s, t)

	case KindSupervisorSelected:
		switch t.Op {
		case OpAdd:
			return m.addObject(ctx, s)
		case OpEnd:
			return move(State{}, edit(msgEnded, Keyboard{}))
		case OpUpUniversity, OpUpDepartment, OpUpSupervisor:
			return m.up(ctx, s, t.Op)
		}

	case KindRead:
		switch t.Op {
		case OpRead:
			return m.viewComments(ctx, s)
		case OpComment:
			next := s.withPath(KindComment)
			next.TargetID = s.ObjectID
			next.CommentType = models.TypeTeacher
			return move(next, edit(promptComment(next), Keyboard{}))
		case OpInfo:
			return m.details(ctx, s)
		case OpEnd:
			return move(State{}, edit(msgEnded, Keyboard{}))
		case OpUpUniversity, OpUpDepartment, OpUpSupervisor:
			return m.up(ctx, s, t.Op)
		}
	}
	return expired()
}

func (m *Machine) addObject(ctx context.Context, s State) (Result, error) {
	obj := models.NewObject(s.SchoolCate, s.University, s.Department, s.Supervisor, m.today())
	if _, err := m.store.AddObject(ctx, obj); err != nil {
		return Result{}, err
	}
	read := s.withPath(KindRead)
	read.ObjectID = obj.ObjectID
	return move(read, edit(textAdded(read), opKeyboard(read.Epoch)))
}

// up 回到上一层级重新选择
func (m *Machine) up(ctx context.Context, s State, op Op) (Result, error) {
	next := State{Epoch: s.Epoch, SchoolCate: s.SchoolCate}
	switch op {
	case OpUpUniversity:
		next.Kind = KindCategorySelected
	case OpUpDepartment:
		next.Kind = KindUniversitySelected
		next.University = s.University
	default:
		next.Kind = KindDepartmentSelected
		next.University = s.University
		next.Department = s.Department
	}
	text, kb, err := m.resume(ctx, next)
	if err != nil {
		return Result{}, err
	}
	return move(next, send(text, kb))
}

func (m *Machine) viewComments(ctx context.Context, s State) (Result, error) {
	tree, err := m.finder.CommentTree(ctx, s.ObjectID)
	if err != nil {
		return Result{}, err
	}
	entries := query.Flatten(tree)
	if len(entries) == 0 {
		return stay(s, edit(textEmptyTree(s), opKeyboard(s.Epoch)))
	}

	title := fmt.Sprintf("👔 %s 的评价（共 %d 条）", s.Supervisor, len(entries))
	targets := make([]string, len(entries))
	for i, e := range entries {
		targets[i] = e.Comment.ID
	}
	p := newPaging(
		commentPages(title, entries),
		&PageAction{Kind: ActionReply, Label: "↩ 回复", Targets: targets},
		Snapshot{State: s, Text: textMenu(s), Keyboard: opKeyboard(s.Epoch)},
	)
	next := State{Kind: KindPaging, Epoch: s.Epoch, Paging: p}
	return move(next, edit(p.pageText(), p.keyboard(s.Epoch, m.halfWidth)))
}

func (m *Machine) details(ctx context.Context, s State) (Result, error) {
	obj, err := m.store.FindObjectByID(ctx, s.ObjectID)
	if err != nil {
		return Result{}, err
	}
	if obj == nil {
		return move(State{}, edit(msgObjectGone, Keyboard{}))
	}
	tree, err := m.finder.CommentTree(ctx, s.ObjectID)
	if err != nil {
		return Result{}, err
	}
	return stay(s, edit(textDetails(obj, query.Count(tree)), opKeyboard(s.Epoch)))
}

// ---- 分页 ----

func (m *Machine) onPaging(ctx context.Context, s State, t Tag) (Result, error) {
	p := s.Paging
	if p == nil || len(p.Pages) == 0 {
		return expired()
	}
	switch t.Op {
	case OpNoop:
		return stay(s)

	case OpPage:
		if !p.inRange(t.Index) {
			return expired()
		}
		next := s
		next.Paging = p.at(t.Index)
		return move(next, edit(next.Paging.pageText(), next.Paging.keyboard(s.Epoch, m.halfWidth)))

	case OpBack:
		if p.Prev == nil {
			return move(State{}, edit(msgSearchClosed, Keyboard{}))
		}
		prev := *p.Prev
		if prev.Keyboard.Kind == KeyboardReply || prev.Keyboard.Kind == KeyboardRemove {
			return move(prev.State, send(prev.Text, prev.Keyboard))
		}
		return move(prev.State, edit(prev.Text, prev.Keyboard))

	case OpAction:
		if p.Action == nil || !p.inRange(t.Index) || t.Index >= len(p.Action.Targets) {
			return expired()
		}
		return m.invoke(ctx, s, *p.Action, p.Action.Targets[t.Index])
	}
	return expired()
}

func (m *Machine) invoke(ctx context.Context, s State, a PageAction, target string) (Result, error) {
	switch a.Kind {
	case ActionOpenObject:
		obj, err := m.store.FindObjectByID(ctx, target)
		if err != nil {
			return Result{}, err
		}
		if obj == nil {
			return stay(s, send(msgObjectGone, Keyboard{}))
		}
		read := stateForObject(KindRead, s.Epoch, obj)
		return move(read, edit(textMenu(read), opKeyboard(read.Epoch)))

	case ActionReply:
		base := State{}
		if s.Paging.Prev != nil {
			base = s.Paging.Prev.State
		}
		next := base.withPath(KindComment)
		next.Epoch = s.Epoch
		next.TargetID = target
		next.CommentType = models.TypeNest
		return move(next, edit(promptReply(target), Keyboard{}))
	}
	return expired()
}
