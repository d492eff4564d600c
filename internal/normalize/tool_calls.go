// tool_calls.go — 工具调用归一化: 按工具名分发到各自的字段校验器。
//
// 每种工具产出一个具名 payload 结构; 必填字段缺失时返回枚举化的
// 拒绝原因, 绝不产出半填充的 payload。
package normalize

import "strings"

// ToolKind 已知工具类别。未识别的工具名归入 ToolGeneric。
type ToolKind string

const (
	ToolBash      ToolKind = "Bash"
	ToolRead      ToolKind = "Read"
	ToolEdit      ToolKind = "Edit"
	ToolMultiEdit ToolKind = "MultiEdit"
	ToolTask      ToolKind = "Task"
	ToolGrep      ToolKind = "Grep"
	ToolGeneric   ToolKind = "Generic"
)

// toolPriority 同一轮次多个 tool_use 时的取舍顺序 (值小者优先)。
//
// Bash > Edit > MultiEdit > Task > Grep > Read > Generic。
var toolPriority = map[ToolKind]int{
	ToolBash:      0,
	ToolEdit:      1,
	ToolMultiEdit: 2,
	ToolTask:      3,
	ToolGrep:      4,
	ToolRead:      5,
	ToolGeneric:   6,
}

// KindForTool 工具名 → ToolKind。大小写敏感精确匹配, 未知名 → Generic。
func KindForTool(name string) ToolKind {
	switch name {
	case "Bash":
		return ToolBash
	case "Read":
		return ToolRead
	case "Edit":
		return ToolEdit
	case "MultiEdit":
		return ToolMultiEdit
	case "Task":
		return ToolTask
	case "Grep":
		return ToolGrep
	default:
		return ToolGeneric
	}
}

// RejectReason 工具调用被拒绝的枚举原因。空串表示接受。
type RejectReason string

const (
	RejectNone           RejectReason = ""
	RejectMissingCommand RejectReason = "missing_command"
	RejectMissingPath    RejectReason = "missing_file_path"
	RejectMissingField   RejectReason = "missing_field"
	RejectEmptyEdits     RejectReason = "empty_edits"
)

// ========================================
// Payload 类型 (封闭联合)
// ========================================

// ToolPayload 各工具 payload 的封闭联合。
type ToolPayload interface {
	toolPayload()
	Kind() ToolKind
}

// BashPayload Bash 工具调用。Timeout/Description 缺席时为 nil, 不做默认值填充。
type BashPayload struct {
	Command     string
	Timeout     *int
	Description *string
}

func (*BashPayload) toolPayload() {}
func (*BashPayload) Kind() ToolKind { return ToolBash }

// ReadPayload Read 工具调用, FilePath 已做项目根相对化。
type ReadPayload struct {
	FilePath string
}

func (*ReadPayload) toolPayload() {}
func (*ReadPayload) Kind() ToolKind { return ToolRead }

// EditPayload Edit 工具调用。OldString/NewString 允许为空串 (仅缺席才拒绝)。
type EditPayload struct {
	FilePath  string
	OldString string
	NewString string
}

func (*EditPayload) toolPayload() {}
func (*EditPayload) Kind() ToolKind { return ToolEdit }

// EditOperation MultiEdit 中的单条编辑。
type EditOperation struct {
	OldString  string
	NewString  string
	ReplaceAll *bool
}

// MultiEditPayload MultiEdit 工具调用。Edits 为过滤掉无效条目后的有序列表, 非空。
type MultiEditPayload struct {
	FilePath string
	Edits    []EditOperation
}

func (*MultiEditPayload) toolPayload() {}
func (*MultiEditPayload) Kind() ToolKind { return ToolMultiEdit }

// TaskPayload Task (子 agent) 工具调用。
type TaskPayload struct {
	SubagentType string
	Description  string
	Prompt       string
}

func (*TaskPayload) toolPayload() {}
func (*TaskPayload) Kind() ToolKind { return ToolTask }

// GrepPayload Grep 工具调用。可选项缺席时为 nil。
type GrepPayload struct {
	Pattern      string
	Path         string
	OutputMode   string
	LineNumbers  *bool
	HeadLimit    *int
	ContextLines *int
}

func (*GrepPayload) toolPayload() {}
func (*GrepPayload) Kind() ToolKind { return ToolGrep }

// GenericPayload 未识别工具的兜底 payload, 仅保留工具名。
type GenericPayload struct {
	ToolName string
}

func (*GenericPayload) toolPayload() {}
func (*GenericPayload) Kind() ToolKind { return ToolGeneric }

// ========================================
// 归一化入口
// ========================================

// NormalizeToolCall 按工具名归一化原始输入。
//
// 返回 (payload, RejectNone) 或 (nil, 原因)。未知工具名不算错误,
// 落入 GenericPayload。
func NormalizeToolCall(toolName string, input map[string]any, projectRoot string) (ToolPayload, RejectReason) {
	if input == nil {
		input = map[string]any{}
	}
	switch KindForTool(toolName) {
	case ToolBash:
		return normalizeBash(input)
	case ToolRead:
		return normalizeRead(input, projectRoot)
	case ToolEdit:
		return normalizeEdit(input, projectRoot)
	case ToolMultiEdit:
		return normalizeMultiEdit(input, projectRoot)
	case ToolTask:
		return normalizeTask(input)
	case ToolGrep:
		return normalizeGrep(input, projectRoot)
	default:
		return &GenericPayload{ToolName: toolName}, RejectNone
	}
}

func normalizeBash(input map[string]any) (ToolPayload, RejectReason) {
	command, ok := stringField(input, "command")
	if !ok || strings.TrimSpace(command) == "" {
		return nil, RejectMissingCommand
	}
	p := &BashPayload{Command: command}
	if v, ok := intField(input, "timeout"); ok {
		p.Timeout = &v
	}
	if v, ok := stringField(input, "description"); ok {
		p.Description = &v
	}
	return p, RejectNone
}

func normalizeRead(input map[string]any, projectRoot string) (ToolPayload, RejectReason) {
	path, ok := stringField(input, "file_path", "filePath")
	if !ok {
		return nil, RejectMissingPath
	}
	return &ReadPayload{FilePath: RelativizePath(path, projectRoot)}, RejectNone
}

func normalizeEdit(input map[string]any, projectRoot string) (ToolPayload, RejectReason) {
	path, okPath := stringField(input, "file_path", "filePath")
	if !okPath {
		return nil, RejectMissingPath
	}
	// 空串合法: 只有字段缺席才拒绝
	oldStr, okOld := stringField(input, "old_string", "oldString")
	newStr, okNew := stringField(input, "new_string", "newString")
	if !okOld || !okNew {
		return nil, RejectMissingField
	}
	return &EditPayload{
		FilePath:  RelativizePath(path, projectRoot),
		OldString: oldStr,
		NewString: newStr,
	}, RejectNone
}

func normalizeMultiEdit(input map[string]any, projectRoot string) (ToolPayload, RejectReason) {
	path, ok := stringField(input, "file_path", "filePath")
	if !ok {
		return nil, RejectMissingPath
	}
	rawEdits, ok := input["edits"].([]any)
	if !ok || len(rawEdits) == 0 {
		return nil, RejectEmptyEdits
	}

	// 丢弃缺 old/new 的无效条目, 保留原始顺序; 整体不因个别坏条目拒绝
	edits := make([]EditOperation, 0, len(rawEdits))
	for _, raw := range rawEdits {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		oldStr, okOld := stringField(item, "old_string", "oldString")
		newStr, okNew := stringField(item, "new_string", "newString")
		if !okOld || !okNew {
			continue
		}
		op := EditOperation{OldString: oldStr, NewString: newStr}
		if v, ok := boolField(item, "replace_all", "replaceAll"); ok {
			op.ReplaceAll = &v
		}
		edits = append(edits, op)
	}
	if len(edits) == 0 {
		return nil, RejectEmptyEdits
	}
	return &MultiEditPayload{
		FilePath: RelativizePath(path, projectRoot),
		Edits:    edits,
	}, RejectNone
}

func normalizeTask(input map[string]any) (ToolPayload, RejectReason) {
	subagent, okSub := stringField(input, "subagent_type", "subagentType")
	description, okDesc := stringField(input, "description")
	prompt, okPrompt := stringField(input, "prompt")
	if !okSub || !okDesc || !okPrompt {
		return nil, RejectMissingField
	}
	return &TaskPayload{
		SubagentType: subagent,
		Description:  description,
		Prompt:       prompt,
	}, RejectNone
}

func normalizeGrep(input map[string]any, projectRoot string) (ToolPayload, RejectReason) {
	pattern, okPat := stringField(input, "pattern")
	path, okPath := stringField(input, "path")
	outputMode, okMode := stringField(input, "output_mode", "outputMode")
	if !okPat || !okPath || !okMode {
		return nil, RejectMissingField
	}
	p := &GrepPayload{
		Pattern:    pattern,
		Path:       RelativizePath(path, projectRoot),
		OutputMode: outputMode,
	}
	if v, ok := boolField(input, "-n", "line_numbers", "lineNumbers"); ok {
		p.LineNumbers = &v
	}
	if v, ok := intField(input, "head_limit", "headLimit"); ok {
		p.HeadLimit = &v
	}
	if v, ok := intField(input, "-C", "context_lines", "contextLines"); ok {
		p.ContextLines = &v
	}
	return p, RejectNone
}

// ========================================
// 字段提取 (JSON 宽松取值)
// ========================================

// stringField 依次尝试多个 key, 返回第一个存在且为 string 的值。
// 存在性与空串是两回事: 空串也算存在。
func stringField(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// intField JSON 数字统一是 float64, 这里转回 int。
func intField(m map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch n := v.(type) {
			case float64:
				return int(n), true
			case int:
				return n, true
			}
		}
	}
	return 0, false
}

func boolField(m map[string]any, keys ...string) (bool, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if b, ok := v.(bool); ok {
				return b, true
			}
		}
	}
	return false, false
}
