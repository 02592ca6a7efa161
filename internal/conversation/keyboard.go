package conversation

// KeyboardKind 键盘类别
type KeyboardKind string

const (
	KeyboardNone   KeyboardKind = ""
	KeyboardReply  KeyboardKind = "reply"
	KeyboardInline KeyboardKind = "inline"
	KeyboardRemove KeyboardKind = "remove"
)

type Button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// Keyboard is rendered by the transport; Reply and Inline are N×M grids.
type Keyboard struct {
	Kind   KeyboardKind `json:"kind,omitempty"`
	Reply  [][]string   `json:"reply,omitempty"`
	Inline [][]Button   `json:"inline,omitempty"`
}

// 回复键盘列数
const (
	colsCategory   = 3
	colsUniversity = 1
	colsDepartment = 1
	colsSupervisor = 3
)

// replyKeyboard 按 cols 列排布；没有选项时移除键盘
func replyKeyboard(items []string, cols int) Keyboard {
	if len(items) == 0 {
		return Keyboard{Kind: KeyboardRemove}
	}
	return Keyboard{Kind: KeyboardReply, Reply: chunk(items, cols)}
}

func chunk[T any](items []T, cols int) [][]T {
	if cols < 1 {
		cols = 1
	}
	rows := make([][]T, 0, (len(items)+cols-1)/cols)
	for i := 0; i < len(items); i += cols {
		end := i + cols
		if end > len(items) {
			end = len(items)
		}
		rows = append(rows, items[i:end])
	}
	return rows
}

func inline(rows ...[]Button) Keyboard {
	return Keyboard{Kind: KeyboardInline, Inline: rows}
}

func upRow(epoch uint32) []Button {
	return []Button{
		{Text: "⬆ 学校", Data: tag(OpUpUniversity, epoch)},
		{Text: "⬆ 学院", Data: tag(OpUpDepartment, epoch)},
		{Text: "⬆ 导师", Data: tag(OpUpSupervisor, epoch)},
	}
}

// opKeyboard 客体存在时的操作键盘
func opKeyboard(epoch uint32) Keyboard {
	return inline(
		[]Button{
			{Text: "👀 查看评价", Data: tag(OpRead, epoch)},
			{Text: "💬 增加评价", Data: tag(OpComment, epoch)},
		},
		[]Button{
			{Text: "🤗 详细信息", Data: tag(OpInfo, epoch)},
			{Text: "🏁 结束", Data: tag(OpEnd, epoch)},
		},
		upRow(epoch),
	)
}

// addKeyboard 客体不存在时的键盘
func addKeyboard(epoch uint32) Keyboard {
	return inline(
		[]Button{
			{Text: "➕ 增加", Data: tag(OpAdd, epoch)},
			{Text: "🏁 结束", Data: tag(OpEnd, epoch)},
		},
		upRow(epoch),
	)
}
