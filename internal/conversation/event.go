package conversation

// EventKind 输入事件类别
type EventKind int

const (
	EventText EventKind = iota + 1
	EventCommand
	EventCallback
)

// Address locates the inbound message on the transport side.
type Address struct {
	ChatID     int64
	MessageID  int
	CallbackID string
}

// Event 一次用户输入
type Event struct {
	Kind    EventKind
	Command string // 不含斜杠
	Text    string // 文本或命令参数
	Data    string // 回调标签
	Address Address
}

func TextEvent(text string) Event {
	return Event{Kind: EventText, Text: text}
}

func CommandEvent(command, args string) Event {
	return Event{Kind: EventCommand, Command: command, Text: args}
}

func CallbackEvent(data string) Event {
	return Event{Kind: EventCallback, Data: data}
}

// EffectKind 输出动作类别
type EffectKind int

const (
	EffectSend   EffectKind = iota + 1 // 发送新消息
	EffectEdit                         // 编辑触发回调的消息
	EffectAnswer                       // 应答回调
)

type Effect struct {
	Kind     EffectKind
	Text     string
	Keyboard Keyboard
	Reply    bool // 作为对触发消息的回复发送
}

func send(text string, kb Keyboard) Effect {
	return Effect{Kind: EffectSend, Text: text, Keyboard: kb}
}

func reply(text string, kb Keyboard) Effect {
	return Effect{Kind: EffectSend, Text: text, Keyboard: kb, Reply: true}
}

func edit(text string, kb Keyboard) Effect {
	return Effect{Kind: EffectEdit, Text: text, Keyboard: kb}
}

func answer(text string) Effect {
	return Effect{Kind: EffectAnswer, Text: text}
}

// Result 一次状态转移的结果
type Result struct {
	State   State
	Effects []Effect
	Expired bool
}
