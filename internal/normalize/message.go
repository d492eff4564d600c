// message.go — 消息规范化:将原始 JSON 信封转换为封闭的类型化消息联合。
package normalize

import (
	"encoding/json"
)

// ========================================
// 规范化消息联合
// ========================================

// Message 规范化后的消息。封闭联合:PlainText、ToolInvocation、
// ToolResult、SystemNotice、ResultNotice。nil 表示拒绝(无法规范化)。
type Message interface {
	message()
}

// PlainText 纯文本消息(用户输入或助手回复)。
type PlainText struct {
	Role            string
	Text            string
	ParentToolUseID string
}

// ToolInvocation 助手发起的一次工具调用。
type ToolInvocation struct {
	ToolUseID       string
	Kind            ToolKind
	Payload         ToolPayload
	ParentToolUseID string
}

// ToolResult 工具执行结果。虽然来自 user 通道,
// 规范化后 Role 固定重映射为 assistant(产品决策:
// 工具结果在界面上呈现为助手侧事件)。
type ToolResult struct {
	Role            string
	ToolUseID       string
	Content         string
	IsError         *bool
	ParentToolUseID string
}

// SystemNotice 系统消息(会话初始化等)。
type SystemNotice struct {
	Subtype string
}

// ResultNotice 结果消息(一轮执行的终态汇总)。
type ResultNotice struct {
	Subtype string
}

func (*PlainText) message() {}
func (*ToolInvocation) message() {}
func (*ToolResult) message() {}
func (*SystemNotice) message() {}
func (*ResultNotice) message() {}

// ========================================
// 顶层分发
// ========================================

// NormalizeRaw 解析 JSON 字节后规范化。解析失败返回 nil。
func NormalizeRaw(raw json.RawMessage, projectRoot string) Message {
	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}
	return Normalize(envelope, projectRoot)
}

// Normalize 按信封顶层判别字段(role 或 type)分发。
// 任何不认识的判别值或提取过程中的异常都返回 nil,绝不向调用方抛出。
func Normalize(envelope map[string]any, projectRoot string) (msg Message) {
	defer func() {
		if r := recover(); r != nil {
			msg = nil
		}
	}()

	if envelope == nil {
		return nil
	}

	kind, _ := envelope["role"].(string)
	if kind == "" {
		kind, _ = envelope["type"].(string)
	}
	parentID, _ := envelope["parent_tool_use_id"].(string)

	switch kind {
	case "assistant":
		return normalizeAssistant(envelope, parentID, projectRoot)
	case "user":
		return normalizeUser(envelope, parentID)
	case "system":
		return &SystemNotice{Subtype: subtypeOf(envelope)}
	case "result":
		return &ResultNotice{Subtype: subtypeOf(envelope)}
	default:
		return nil
	}
}

func subtypeOf(envelope map[string]any) string {
	sub, _ := envelope["subtype"].(string)
	return sub
}

// messageContent 取出嵌套载荷的 content 字段。
// 信封载荷位于 message 或 data 键下。
func messageContent(envelope map[string]any) (any, bool) {
	payload, ok := envelope["message"].(map[string]any)
	if !ok {
		payload, ok = envelope["data"].(map[string]any)
	}
	if !ok {
		return nil, false
	}
	content, ok := payload["content"]
	return content, ok
}

// ========================================
// assistant 消息
// ========================================

// normalizeAssistant 检查内容块:含 tool_use 则按优先级挑选一个发出
// ToolInvocation,否则取第一个 text 块发出 PlainText。
func normalizeAssistant(envelope map[string]any, parentID, projectRoot string) Message {
	content, ok := messageContent(envelope)
	if !ok {
		return nil
	}

	blocks, ok := content.([]any)
	if !ok {
		// 内容直接是字符串的退化形式
		if text, ok := content.(string); ok {
			return &PlainText{Role: "assistant", Text: text, ParentToolUseID: parentID}
		}
		return nil
	}

	// 一轮可能包含多个 tool_use 块,只呈现优先级最高的那个,
	// 同优先级取先出现者。
	var (
		bestBlock map[string]any
		bestName  string
		bestPrio  = -1
	)
	var firstText string
	var hasText bool

	for _, entry := range blocks {
		block, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		switch block["type"] {
		case "tool_use":
			name, _ := block["name"].(string)
			prio := toolPriority[KindForTool(name)]
			if bestBlock == nil || prio < bestPrio {
				bestBlock = block
				bestName = name
				bestPrio = prio
			}
		case "text":
			if !hasText {
				firstText, _ = block["text"].(string)
				hasText = true
			}
		}
	}

	if bestBlock != nil {
		input, _ := bestBlock["input"].(map[string]any)
		payload, reject := NormalizeToolCall(bestName, input, projectRoot)
		if reject != RejectNone {
			return nil
		}
		id, _ := bestBlock["id"].(string)
		return &ToolInvocation{
			ToolUseID:       id,
			Kind:            payload.Kind(),
			Payload:         payload,
			ParentToolUseID: parentID,
		}
	}

	if hasText {
		return &PlainText{Role: "assistant", Text: firstText, ParentToolUseID: parentID}
	}
	return nil
}

// ========================================
// user 消息
// ========================================

// normalizeUser 字符串内容发出用户 PlainText;数组内容只取第一个
// tool_result 条目(需要 tool_use_id 且 content 为字符串),并把角色
// 重映射为 assistant。空数组或缺失内容拒绝。
func normalizeUser(envelope map[string]any, parentID string) Message {
	content, ok := messageContent(envelope)
	if !ok || content == nil {
		return nil
	}

	if text, ok := content.(string); ok {
		return &PlainText{Role: "user", Text: text, ParentToolUseID: parentID}
	}

	blocks, ok := content.([]any)
	if !ok {
		return nil
	}

	for _, entry := range blocks {
		block, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if block["type"] != "tool_result" {
			continue
		}
		// 第一个 tool_result 定胜负,不合格即整体拒绝。
		toolUseID, ok := block["tool_use_id"].(string)
		if !ok || toolUseID == "" {
			return nil
		}
		text, ok := block["content"].(string)
		if !ok {
			return nil
		}
		var isError *bool
		if v, ok := block["is_error"].(bool); ok {
			isError = &v
		}
		return &ToolResult{
			Role:            "assistant",
			ToolUseID:       toolUseID,
			Content:         text,
			IsError:         isError,
			ParentToolUseID: parentID,
		}
	}
	return nil
}
