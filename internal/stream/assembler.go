// assembler.go — 流式装配器:按 (promptID, 块索引) 增量重建一条消息。
package stream

import (
	"sort"
	"strings"
	"sync"

	"github.com/session-view/go-session-view/pkg/logger"
)

// ========================================
// 内部状态
// ========================================

// blockState 单个内容块的累积状态。finalized 后不再接受 delta。
type blockState struct {
	kind      BlockKind
	text      strings.Builder
	thinking  strings.Builder
	citations []Citation
	finalized bool
}

// assembly 一个 prompt 的装配状态。blocks 在 message_stop 时销毁,
// 已发布的聚合值(text/thinking/citations)保留供最终快照。
type assembly struct {
	blocks    map[int]*blockState
	text      string
	thinking  string
	citations []Citation
	streaming bool
}

// Snapshot 当前已重建内容的一份只读快照。
type Snapshot struct {
	Text        string
	Thinking    string
	Citations   []Citation
	IsStreaming bool
}

// ========================================
// Manager
// ========================================

// Manager 持有所有进行中的装配,按 promptID 隔离。
// 同一 prompt 的事件必须按产生顺序投递;跨 prompt 互不影响。
// 装配状态是尽力而为的预览,权威版本以存储中的规范化消息为准。
type Manager struct {
	mu         sync.Mutex
	assemblies map[string]*assembly
}

func NewManager() *Manager {
	return &Manager{assemblies: make(map[string]*assembly)}
}

// Apply 应用一条事件。找不到对应装配或块索引的块事件直接忽略,
// 流式预览容忍瞬时不一致,等待 complete 后与存储对账。
// 扁平的 legacy 事件例外:它们不以 message_start 开场,按需隐式建立装配。
func (m *Manager) Apply(promptID string, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev.Type {
	case EventMessageStart:
		if _, exists := m.assemblies[promptID]; exists {
			// 同一 prompt 至多一个活动装配,旧的直接丢弃
			logger.Debug("stream: restart discards previous assembly", logger.FieldPromptID, promptID)
		}
		m.assemblies[promptID] = &assembly{
			blocks:    make(map[int]*blockState),
			streaming: true,
		}
		return
	}

	a := m.assemblies[promptID]
	if a == nil {
		// 旧协议的生产者不发 message_start,扁平事件到达时隐式建立装配
		if ev.Type != EventLegacyMessage && ev.Type != EventLegacyThinking {
			return
		}
		a = &assembly{streaming: true}
		m.assemblies[promptID] = a
	}

	switch ev.Type {
	case EventBlockStart:
		if a.blocks == nil {
			return
		}
		a.blocks[ev.Index] = &blockState{
			kind:      ev.BlockKind,
			citations: append([]Citation(nil), ev.Citations...),
		}
		a.republish()
	case EventTextDelta:
		if b := a.liveBlock(ev.Index); b != nil {
			b.text.WriteString(ev.Text)
			a.republish()
		}
	case EventThinkingDelta:
		if b := a.liveBlock(ev.Index); b != nil {
			b.thinking.WriteString(ev.Thinking)
			a.republish()
		}
	case EventCitationsDelta:
		if b := a.liveBlock(ev.Index); b != nil && ev.Citation != nil {
			b.citations = append(b.citations, *ev.Citation)
			a.republish()
		}
	case EventBlockStop:
		if b, ok := a.blocks[ev.Index]; ok {
			b.finalized = true
			a.republish()
		}
	case EventMessageStop:
		a.blocks = nil
		a.streaming = false
	case EventLegacyMessage:
		// 扁平事件直接覆盖可见文本,不经过索引块
		a.text = ev.Text
	case EventLegacyThinking:
		a.thinking = ev.Thinking
	}
}

// liveBlock 返回仍接受 delta 的块;未知索引或已 finalize 返回 nil。
func (a *assembly) liveBlock(index int) *blockState {
	b, ok := a.blocks[index]
	if !ok || b.finalized {
		return nil
	}
	return b
}

// republish 按块索引顺序重新计算聚合值:
// 文本块以空行连接,思考取第一个 thinking 块,引用跨块展平。
func (a *assembly) republish() {
	indexes := make([]int, 0, len(a.blocks))
	for idx := range a.blocks {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var texts []string
	thinking := ""
	thinkingSet := false
	var citations []Citation
	for _, idx := range indexes {
		b := a.blocks[idx]
		if b.kind == BlockThinking {
			if !thinkingSet {
				thinking = b.thinking.String()
				thinkingSet = true
			}
			continue
		}
		if b.text.Len() > 0 {
			texts = append(texts, b.text.String())
		}
		citations = append(citations, b.citations...)
	}
	a.text = strings.Join(texts, "\n\n")
	a.thinking = thinking
	a.citations = citations
}

// Snapshot 返回某个 prompt 当前已发布的内容。没有装配时 ok=false。
func (m *Manager) Snapshot(promptID string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.assemblies[promptID]
	if a == nil {
		return Snapshot{}, false
	}
	return Snapshot{
		Text:        a.text,
		Thinking:    a.thinking,
		Citations:   append([]Citation(nil), a.citations...),
		IsStreaming: a.streaming,
	}, true
}

// Drop 移除某个 prompt 的装配状态(流对账完成后调用)。
func (m *Manager) Drop(promptID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assemblies, promptID)
}

// ActiveCount 返回仍在流式传输中的装配数,供监控使用。
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.assemblies {
		if a.streaming {
			n++
		}
	}
	return n
}
