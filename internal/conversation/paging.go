package conversation

import (
	"fmt"
	"strconv"
)

// DefaultHalfWidth 页码窗口半宽
const DefaultHalfWidth = 2

// Window returns the [start, end) range of page buttons shown around idx.
// The window keeps width 2w+1 where total allows and stays inside [0, total).
func Window(total, idx, w int) (start, end int) {
	if total <= 0 {
		return 0, 0
	}
	width := 2*w + 1
	start = idx - w
	if start > total-width {
		start = total - width
	}
	if start < 0 {
		start = 0
	}
	end = start + width
	if end > total {
		end = total
	}
	return start, end
}

// newPaging 打开分页层；调用方保证 pages 非空
func newPaging(pages []string, action *PageAction, prev Snapshot) *Paging {
	return &Paging{Pages: pages, Action: action, Prev: &prev}
}

// pageText 当前页文本加页脚
func (p *Paging) pageText() string {
	return fmt.Sprintf("%s\n\n—— 第 %d/%d 页 ——", p.Pages[p.Index], p.Index+1, len(p.Pages))
}

// keyboard 页码窗口；当前页的位置在有动作时换成动作按钮
func (p *Paging) keyboard(epoch uint32, halfWidth int) Keyboard {
	start, end := Window(len(p.Pages), p.Index, halfWidth)
	row := make([]Button, 0, end-start)
	for i := start; i < end; i++ {
		switch {
		case i != p.Index:
			row = append(row, Button{Text: strconv.Itoa(i + 1), Data: indexTag(OpPage, i, epoch)})
		case p.Action != nil:
			row = append(row, Button{Text: p.Action.Label, Data: indexTag(OpAction, i, epoch)})
		default:
			row = append(row, Button{Text: "· " + strconv.Itoa(i+1) + " ·", Data: tag(OpNoop, epoch)})
		}
	}
	return inline(row, []Button{{Text: "⬅ 返回", Data: tag(OpBack, epoch)}})
}

// at 翻页后的新分页层，不修改原值
func (p *Paging) at(i int) *Paging {
	next := *p
	next.Index = i
	return &next
}

func (p *Paging) inRange(i int) bool {
	return i >= 0 && i < len(p.Pages)
}

// restamp 把状态换到新纪元；嵌套分页的返回点及其按钮一并更新
func restamp(s State, epoch uint32) State {
	if s.Kind == KindIdle {
		return s
	}
	s.Epoch = epoch
	if s.Paging != nil {
		p := *s.Paging
		if p.Prev != nil {
			prev := *p.Prev
			prev.State = restamp(prev.State, epoch)
			prev.Keyboard = retag(prev.Keyboard, epoch)
			p.Prev = &prev
		}
		s.Paging = &p
	}
	return s
}

// retag 改写内联按钮回调标签中的纪元
func retag(kb Keyboard, epoch uint32) Keyboard {
	if kb.Kind != KeyboardInline {
		return kb
	}
	rows := make([][]Button, len(kb.Inline))
	for i, row := range kb.Inline {
		rows[i] = make([]Button, len(row))
		for j, b := range row {
			if t, err := DecodeTag(b.Data); err == nil {
				t.Epoch = epoch
				b.Data = t.Encode()
			}
			rows[i][j] = b
		}
	}
	kb.Inline = rows
	return kb
}
