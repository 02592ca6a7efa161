// Package conversation implements the per-session navigation state machine.
//
// A Machine is pure with respect to session state: it takes the current
// State and an inbound Event and returns the next State plus the Effects
// the transport should perform. Sessions are persisted by a SessionStore
// and serialized per session by a Runner.
package conversation

import "safc/internal/models"

// Kind 会话状态标签
type Kind string

const (
	KindIdle               Kind = ""           // 无会话，仅接受命令
	KindStart              Kind = "start"      // 等待学校类别
	KindCategorySelected   Kind = "category"   // 等待学校
	KindUniversitySelected Kind = "university" // 等待学院
	KindDepartmentSelected Kind = "department" // 等待导师
	KindSupervisorSelected Kind = "supervisor" // 客体不存在，等待确认增加
	KindRead               Kind = "read"       // 客体存在，等待操作
	KindComment            Kind = "comment"    // 等待评价内容
	KindPublish            Kind = "publish"    // 等待 OTP 确认发布
	KindPaging             Kind = "paging"     // 分页浏览
)

// State is a tagged union: Kind selects which fields are meaningful.
// It is JSON-serializable so any keyed store can hold it.
type State struct {
	Kind  Kind   `json:"kind"`
	Epoch uint32 `json:"epoch,omitempty"`

	SchoolCate string `json:"school_cate,omitempty"`
	University string `json:"university,omitempty"`
	Department string `json:"department,omitempty"`
	Supervisor string `json:"supervisor,omitempty"`
	ObjectID   string `json:"object_id,omitempty"`

	// Comment / Publish
	TargetID    string             `json:"target_id,omitempty"`
	CommentType models.CommentType `json:"comment_type,omitempty"`
	Content     string             `json:"content,omitempty"`
	CommentID   string             `json:"comment_id,omitempty"`
	Date        string             `json:"date,omitempty"`

	Paging *Paging `json:"paging,omitempty"`
}

// Paging 分页浏览层：预渲染的页面、可选的逐页动作以及返回点
type Paging struct {
	Pages  []string    `json:"pages"`
	Index  int         `json:"index"`
	Action *PageAction `json:"action,omitempty"`
	Prev   *Snapshot   `json:"prev"`
}

// ActionKind 分页动作
type ActionKind string

const (
	ActionOpenObject ActionKind = "open"  // 打开该页对应的客体
	ActionReply      ActionKind = "reply" // 回复该页对应的评价
)

// PageAction applies uniformly to whichever page is shown; Targets[i] is
// the id page i refers to.
type PageAction struct {
	Kind    ActionKind `json:"kind"`
	Label   string     `json:"label"`
	Targets []string   `json:"targets"`
}

// Snapshot 进入分页前的状态、消息文本与键盘，用于“返回”
type Snapshot struct {
	State    State    `json:"state"`
	Text     string   `json:"text"`
	Keyboard Keyboard `json:"keyboard"`
}

// withPath 复制层级字段
func (s State) withPath(kind Kind) State {
	return State{
		Kind:       kind,
		Epoch:      s.Epoch,
		SchoolCate: s.SchoolCate,
		University: s.University,
		Department: s.Department,
		Supervisor: s.Supervisor,
		ObjectID:   s.ObjectID,
	}
}

func stateForObject(kind Kind, epoch uint32, o *models.ReviewedObject) State {
	return State{
		Kind:       kind,
		Epoch:      epoch,
		SchoolCate: o.SchoolCate,
		University: o.University,
		Department: o.Department,
		Supervisor: o.Supervisor,
		ObjectID:   o.ObjectID,
	}
}
