package conversation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxTagLen 回调数据的字节上限
const MaxTagLen = 64

// Op is the closed set of button operations.
type Op byte

const (
	OpRead         Op = 'r' // 查看评价
	OpAdd          Op = 'a' // 增加客体
	OpComment      Op = 'c' // 增加评价
	OpInfo         Op = 'i' // 详细信息
	OpEnd          Op = 'e' // 结束
	OpUpUniversity Op = 'u' // 重新选择学校
	OpUpDepartment Op = 'd' // 重新选择学院
	OpUpSupervisor Op = 's' // 重新选择导师
	OpPage         Op = 'p' // 翻到第 i 页
	OpBack         Op = 'b' // 返回
	OpAction       Op = 'x' // 对第 i 页执行动作
	OpNoop         Op = 'n' // 当前页占位
)

var ErrBadTag = errors.New("malformed callback tag")

func (o Op) indexed() bool {
	return o == OpPage || o == OpAction
}

func (o Op) valid() bool {
	switch o {
	case OpRead, OpAdd, OpComment, OpInfo, OpEnd,
		OpUpUniversity, OpUpDepartment, OpUpSupervisor,
		OpPage, OpBack, OpAction, OpNoop:
		return true
	}
	return false
}

// Tag 回调标签：操作、可选页码以及会话纪元
type Tag struct {
	Op    Op
	Index int
	Epoch uint32
}

// Encode 编码为 "<op>[index].<epoch base36>"
func (t Tag) Encode() string {
	var b strings.Builder
	b.WriteByte(byte(t.Op))
	if t.Op.indexed() {
		b.WriteString(strconv.Itoa(t.Index))
	}
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(uint64(t.Epoch), 36))
	return b.String()
}

// DecodeTag parses a callback payload produced by Encode.
func DecodeTag(s string) (Tag, error) {
	if len(s) < 3 || len(s) > MaxTagLen {
		return Tag{}, ErrBadTag
	}
	dot := strings.LastIndexByte(s, '.')
	if dot < 1 || dot == len(s)-1 {
		return Tag{}, ErrBadTag
	}
	epoch, err := strconv.ParseUint(s[dot+1:], 36, 32)
	if err != nil {
		return Tag{}, fmt.Errorf("%w: epoch", ErrBadTag)
	}
	t := Tag{Op: Op(s[0]), Epoch: uint32(epoch)}
	if !t.Op.valid() {
		return Tag{}, fmt.Errorf("%w: op %q", ErrBadTag, s[0])
	}
	arg := s[1:dot]
	if t.Op.indexed() {
		if arg == "" || len(arg) > 6 {
			return Tag{}, fmt.Errorf("%w: index", ErrBadTag)
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return Tag{}, fmt.Errorf("%w: index", ErrBadTag)
		}
		t.Index = n
	} else if arg != "" {
		return Tag{}, fmt.Errorf("%w: unexpected argument", ErrBadTag)
	}
	return t, nil
}

func tag(op Op, epoch uint32) string {
	return Tag{Op: op, Epoch: epoch}.Encode()
}

func indexTag(op Op, i int, epoch uint32) string {
	return Tag{Op: op, Index: i, Epoch: epoch}.Encode()
}
