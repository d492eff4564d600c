// events.go — 流式事件的类型定义与解码。
package stream

import (
	"encoding/json"
)

// ========================================
// 事件类型
// ========================================

// EventType 流式协议的事件类别。
type EventType string

const (
	EventMessageStart   EventType = "message_start"
	EventBlockStart     EventType = "content_block_start"
	EventTextDelta      EventType = "text_delta"
	EventThinkingDelta  EventType = "thinking_delta"
	EventCitationsDelta EventType = "citations_delta"
	EventBlockStop      EventType = "content_block_stop"
	EventMessageStop    EventType = "message_stop"

	// 旧版扁平事件:单条消息携带完整文本/思考内容,不走索引块。
	EventLegacyMessage  EventType = "message"
	EventLegacyThinking EventType = "thinking"

	// complete 表示整个流结束,调用方应以存储中的规范化消息为准做对账。
	EventComplete EventType = "complete"
)

// BlockKind 内容块类别。
type BlockKind string

const (
	BlockText     BlockKind = "text"
	BlockThinking BlockKind = "thinking"
	BlockCitation BlockKind = "citation"
)

// Event 一条已解码的流式事件。按 Type 取对应字段,其余字段为零值。
type Event struct {
	Type      EventType
	Index     int
	BlockKind BlockKind
	Text      string
	Thinking  string
	Citation  *Citation
	Citations []Citation
	Timestamp string
}

// ========================================
// 解码
// ========================================

// DecodeEvent 解析线上事件 {type, data?, timestamp?}。
// 未知事件类型返回 ok=false,由调用方忽略。
func DecodeEvent(raw json.RawMessage) (Event, bool) {
	var wire struct {
		Type      string         `json:"type"`
		Data      map[string]any `json:"data"`
		Timestamp string         `json:"timestamp"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Event{}, false
	}
	ev := Event{Type: EventType(wire.Type), Timestamp: wire.Timestamp}
	data := wire.Data
	if data == nil {
		data = map[string]any{}
	}

	switch ev.Type {
	case EventMessageStart, EventMessageStop, EventComplete:
		return ev, true
	case EventBlockStart:
		ev.Index = intOf(data["index"])
		ev.BlockKind = blockKindOf(data)
		if initial, ok := data["citations"].([]any); ok {
			for _, entry := range initial {
				if m, ok := entry.(map[string]any); ok {
					ev.Citations = append(ev.Citations, DecodeCitation(m))
				}
			}
		}
		return ev, true
	case EventTextDelta:
		ev.Index = intOf(data["index"])
		ev.Text, _ = data["text"].(string)
		return ev, true
	case EventThinkingDelta:
		ev.Index = intOf(data["index"])
		ev.Thinking, _ = data["thinking"].(string)
		return ev, true
	case EventCitationsDelta:
		ev.Index = intOf(data["index"])
		if m, ok := data["citation"].(map[string]any); ok {
			c := DecodeCitation(m)
			ev.Citation = &c
		}
		return ev, true
	case EventBlockStop:
		ev.Index = intOf(data["index"])
		return ev, true
	case EventLegacyMessage:
		ev.Text, _ = data["content"].(string)
		if ev.Text == "" {
			ev.Text, _ = data["text"].(string)
		}
		return ev, true
	case EventLegacyThinking:
		ev.Thinking, _ = data["content"].(string)
		if ev.Thinking == "" {
			ev.Thinking, _ = data["thinking"].(string)
		}
		return ev, true
	default:
		return Event{}, false
	}
}

func blockKindOf(data map[string]any) BlockKind {
	kind, _ := data["block_type"].(string)
	if kind == "" {
		kind, _ = data["content_block_type"].(string)
	}
	switch kind {
	case "thinking":
		return BlockThinking
	case "citation":
		return BlockCitation
	default:
		return BlockText
	}
}

func intOf(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
