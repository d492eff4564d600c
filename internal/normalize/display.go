// display.go — 把规范化消息映射为单行展示文本。
package normalize

import (
	"fmt"

	"github.com/session-view/go-session-view/pkg/util"
)

const (
	maxCommandDisplay = 50
	maxResultDisplay  = 100
)

// DisplayText 为一条规范化消息生成简短标签。穷举匹配,带默认分支,
// 对任何输入都不会 panic;nil(拒绝)映射为固定的失败标签。
func DisplayText(msg Message) string {
	switch m := msg.(type) {
	case *PlainText:
		return m.Text
	case *ToolInvocation:
		return toolDisplayText(m)
	case *ToolResult:
		if m.IsError != nil && *m.IsError {
			return "[Tool execution failed]"
		}
		return fmt.Sprintf("[Tool result: %s]", util.Truncate(m.Content, maxResultDisplay))
	case *SystemNotice:
		return "[System message]"
	case *ResultNotice:
		return "[Result message]"
	case nil:
		return "[Failed to extract content]"
	default:
		return "[Unknown message type]"
	}
}

func toolDisplayText(inv *ToolInvocation) string {
	switch p := inv.Payload.(type) {
	case *BashPayload:
		if p.Description != nil && *p.Description != "" {
			return fmt.Sprintf("[Running: %s]", *p.Description)
		}
		return fmt.Sprintf("[Running command: %s]", util.Truncate(p.Command, maxCommandDisplay))
	case *ReadPayload:
		return fmt.Sprintf("[Reading file: %s]", p.FilePath)
	case *EditPayload:
		return fmt.Sprintf("[Editing file: %s]", p.FilePath)
	case *MultiEditPayload:
		return fmt.Sprintf("[Multi-editing file: %s (%d edits)]", p.FilePath, len(p.Edits))
	case *TaskPayload:
		return fmt.Sprintf("[Launching %s agent: %s]", p.SubagentType, p.Description)
	case *GrepPayload:
		// 模式原样嵌入, 不做 Go 转义 (正则里的 \ 和 " 必须原样展示)
		return fmt.Sprintf("[Searching for \"%s\" in %s]", p.Pattern, p.Path)
	case *GenericPayload:
		if p.ToolName == "TodoWrite" {
			return "[Todo list updated]"
		}
		return "[Tool used]"
	default:
		return "[Tool used]"
	}
}
