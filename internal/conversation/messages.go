package conversation

import (
	"fmt"
	"strings"

	"safc/internal/models"
	"safc/internal/query"
	"safc/internal/store"
	"safc/internal/utils"
)

// 单页文本上限（字符），低于传输层的消息长度限制
const maxPageRunes = 3500

const (
	msgHello = "嗨！我是大学生反诈中心的客服机器人 👋\n" +
		"您可以发送 /cancel 来停止此次对话\n\n" +
		"您可以先查询客体，然后查看或发起对客体的评价。\n\n" +
		"您想查询或评价的「学校类别」是？您可以直接输入或者在下面的键盘选择框中选择\n\n" +
		"键盘选择框中没有的也可以直接输入来新建，下同"
	msgHelp = "这是大学生反诈中心（SAFC）的机器人\n支持以下命令：\n" +
		"/start — 开始\n" +
		"/cancel — 终止对话\n" +
		"/help — 显示帮助信息\n" +
		"/info — 信息\n" +
		"/status — 统计与状态\n" +
		"/search <导师> — 模糊搜索导师（% 任意多个字符，_ 单个字符）\n" +
		"/find <关键词> — 模糊搜索评价\n" +
		"/id <id> — 按 id 打开客体或回复评价"
	msgInfo = "大学生反诈中心（SAFC）\n\n" +
		"社群，保护，开放\n\n" +
		"学校、专业、学院、课程、导师的交叉评价与查询。\n\n" +
		"隐私：\n" +
		"- 除会话状态外不会记录任何个人信息，会话最多保留 1 日。\n" +
		"- 「发布人 OTP」可以让您日后证明评价由您发布，仅储存其加盐哈希。\n" +
		"- 代码与数据开源。"
	msgRetryEmpty    = "空消息错误。对不起，请重试"
	msgNoSession     = "当前没有进行中的会话。发送 /start 开始"
	msgUseButtons    = "❎ 请使用上方按钮操作，或发送 /cancel 结束本次会话"
	msgCancelled     = "您终止了本次会话\n再见！本次对话结束。我们期待您的使用反馈"
	msgExpired       = "⌛ 会话已过期，请发送 /start 重新开始"
	msgExpiredAnswer = "会话已过期"
	msgBadButton     = "无法识别的按钮"
	msgEnded         = "🏁 本次对话结束。我们期待您的使用反馈"
	msgNoComments    = "🈳 此客体暂无评价！"
	msgObjectGone    = "😢 客体不存在"
	msgSearchClosed  = "🔍 已关闭搜索结果。发送 /start 开始新的查询"
	msgSearchUsage   = "用法：/search <导师> 或 /find <关键词>"
	msgIDUsage       = "用法：/id <客体或评价 id>"
	msgIDUnknown     = "😢 没有找到这个 id 对应的客体或评价"
	msgNoMatches     = "🈳 没有匹配的结果"
	msgFailure       = "😢 服务暂时不可用，请稍后重试"
	msgChoose        = "请选择操作："
)

func breadcrumb(s State) string {
	parts := make([]string, 0, 4)
	if s.SchoolCate != "" {
		parts = append(parts, "🧭 "+s.SchoolCate)
	}
	if s.University != "" {
		parts = append(parts, "🏫 "+s.University)
	}
	if s.Department != "" {
		parts = append(parts, "🏢 "+s.Department)
	}
	if s.Supervisor != "" {
		parts = append(parts, "👔 "+s.Supervisor)
	}
	return strings.Join(parts, " ")
}

func promptUniversity(s State) string {
	return breadcrumb(s) + "\n您想查询的「学校」是："
}

func promptDepartment(s State) string {
	return breadcrumb(s) + "\n您想查询的「学院」是："
}

func promptSupervisor(s State) string {
	return breadcrumb(s) + "\n您想查询的「导师等客体」是："
}

func textNotFound(s State) string {
	return breadcrumb(s) + "\n🤗 目前还没有这个对象的信息，是否增加此对象？"
}

func textMenu(s State) string {
	return breadcrumb(s) + "\n" + msgChoose
}

func textAdded(s State) string {
	return breadcrumb(s) + "\n评价客体已增加！感谢您的贡献 🌷\n" + msgChoose
}

func textEmptyTree(s State) string {
	return breadcrumb(s) + "\n" + msgNoComments + "\n" + msgChoose
}

func textDetails(o *models.ReviewedObject, comments int) string {
	info := "（无）"
	if o.Info != nil && *o.Info != "" {
		info = *o.Info
	}
	return fmt.Sprintf("%s\n🆔 %s\n📅 %s\n📝 %s\n💬 共 %d 条评价\n%s",
		breadcrumb(stateForObject(KindRead, 0, o)), o.ObjectID, o.Date, info, comments, msgChoose)
}

func promptComment(s State) string {
	return breadcrumb(s) + "\n\n请写下您对此客体的评价："
}

func promptReply(targetID string) string {
	return fmt.Sprintf("↩ 回复评价「%s」\n\n请写下您的回复：", targetID)
}

func textConfirm(s State) string {
	head := breadcrumb(s)
	if s.CommentType == models.TypeNest {
		head = "↩ 回复评价「" + s.TargetID + "」"
	}
	return fmt.Sprintf("%s\n您的评价是：\n%s\n\nid: %s | date: %s\n"+
		"确认发布？如确认请输入「发布人 OTP」，之后将发布评价；取消请 /cancel\n"+
		"Ps.「发布人 OTP」是可以让您日后证明本评价由您发布的凭证，如不需要，输入随机值即可",
		head, s.Content, s.CommentID, s.Date)
}

func textPublished(commentID string) string {
	return fmt.Sprintf("您的 OTP 已销毁\n评价「%s」已发布！感谢您的贡献 🌷", commentID)
}

func textDuplicate(commentID string) string {
	return fmt.Sprintf("评价「%s」已存在，无需重复发布", commentID)
}

func textStatus(st store.Status) string {
	return fmt.Sprintf("📊 统计与状态\n评价客体：%d（近一年新增 %d）\n评价：%d（近一年新增 %d）",
		st.Objects, st.NewObjects, st.Comments, st.NewComments)
}

func truncationNote(shown int, total int64) string {
	if int64(shown) >= total {
		return ""
	}
	return fmt.Sprintf("\n（仅显示前 %d 条，共 %d 条匹配）", shown, total)
}

// commentPages 每条评价一页，回复按深度缩进标记
func commentPages(title string, entries []query.Entry) []string {
	pages := make([]string, len(entries))
	for i, e := range entries {
		pages[i] = title + "\n\n" + renderComment(e.Comment, e.Depth)
	}
	return pages
}

func renderComment(c models.Comment, depth int) string {
	marker := ""
	if depth > 0 {
		marker = strings.Repeat("↳", depth) + " "
	}
	body := utils.Truncate(utils.PlainText(c.Description), maxPageRunes)
	return fmt.Sprintf("%s💬 %s | %s | %s\n%s", marker, c.ID, c.Date, c.SourceCate, body)
}

func objectPages(title string, matches []models.ObjectMatch) []string {
	pages := make([]string, len(matches))
	for i, m := range matches {
		pages[i] = fmt.Sprintf("%s\n\n👔 %s\n🧭 %s 🏫 %s 🏢 %s\n🆔 %s",
			title, m.Supervisor, m.SchoolCate, m.University, m.Department, m.ObjectID)
	}
	return pages
}
