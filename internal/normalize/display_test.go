package normalize

import (
	"strings"
	"testing"
)

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func TestDisplayTextPlain(t *testing.T) {
	if got := DisplayText(&PlainText{Role: "user", Text: "hello"}); got != "hello" {
		t.Fatalf("got %q, want hello", got)
	}
}

func TestDisplayTextToolInvocation(t *testing.T) {
	cases := []struct {
		name    string
		payload ToolPayload
		want    string
	}{
		{"bash with description", &BashPayload{Command: "ls", Description: strPtr("List files")}, "[Running: List files]"},
		{"bash short command", &BashPayload{Command: "ls -la"}, "[Running command: ls -la]"},
		{"read", &ReadPayload{FilePath: "pkg/util/util.go"}, "[Reading file: pkg/util/util.go]"},
		{"edit", &EditPayload{FilePath: "a.go", OldString: "x", NewString: "y"}, "[Editing file: a.go]"},
		{"multi edit", &MultiEditPayload{FilePath: "a.go", Edits: []EditOperation{{}, {}, {}}}, "[Multi-editing file: a.go (3 edits)]"},
		{"task", &TaskPayload{SubagentType: "reviewer", Description: "Review diff", Prompt: "p"}, "[Launching reviewer agent: Review diff]"},
		{"grep", &GrepPayload{Pattern: "func main", Path: "cmd", OutputMode: "content"}, `[Searching for "func main" in cmd]`},
		{"todo write", &GenericPayload{ToolName: "TodoWrite"}, "[Todo list updated]"},
		{"generic", &GenericPayload{ToolName: "WebFetch"}, "[Tool used]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DisplayText(&ToolInvocation{Kind: tc.payload.Kind(), Payload: tc.payload})
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

// 正则模式中的反斜杠和引号必须原样出现在标签里, 不能被 Go 转义。
func TestDisplayTextGrepPatternNotEscaped(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		want    string
	}{
		{"backslashes", `\bfunc\b`, `[Searching for "\bfunc\b" in src]`},
		{"embedded quotes", `say "hi"`, `[Searching for "say "hi"" in src]`},
		{"plain", "func main", `[Searching for "func main" in src]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DisplayText(&ToolInvocation{Kind: ToolGrep, Payload: &GrepPayload{
				Pattern: tc.pattern, Path: "src", OutputMode: "content",
			}})
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDisplayTextBashCommandTruncation(t *testing.T) {
	exact := strings.Repeat("a", 50)
	if got := DisplayText(&ToolInvocation{Kind: ToolBash, Payload: &BashPayload{Command: exact}}); got != "[Running command: "+exact+"]" {
		t.Fatalf("50-char command must not be truncated, got %q", got)
	}
	over := strings.Repeat("a", 51)
	want := "[Running command: " + strings.Repeat("a", 50) + "...]"
	if got := DisplayText(&ToolInvocation{Kind: ToolBash, Payload: &BashPayload{Command: over}}); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDisplayTextToolResult(t *testing.T) {
	if got := DisplayText(&ToolResult{Content: "ok"}); got != "[Tool result: ok]" {
		t.Fatalf("got %q", got)
	}
	if got := DisplayText(&ToolResult{Content: "boom", IsError: boolPtr(true)}); got != "[Tool execution failed]" {
		t.Fatalf("got %q", got)
	}
	// is_error explicitly false renders like a normal result
	if got := DisplayText(&ToolResult{Content: "ok", IsError: boolPtr(false)}); got != "[Tool result: ok]" {
		t.Fatalf("got %q", got)
	}
}

func TestDisplayTextResultTruncationBoundary(t *testing.T) {
	exact := strings.Repeat("x", 100)
	if got := DisplayText(&ToolResult{Content: exact}); got != "[Tool result: "+exact+"]" {
		t.Fatalf("100-char content must be shown whole, got %q", got)
	}
	over := strings.Repeat("x", 101)
	want := "[Tool result: " + strings.Repeat("x", 100) + "...]"
	if got := DisplayText(&ToolResult{Content: over}); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDisplayTextNotices(t *testing.T) {
	if got := DisplayText(&SystemNotice{}); got != "[System message]" {
		t.Fatalf("got %q", got)
	}
	if got := DisplayText(&ResultNotice{}); got != "[Result message]" {
		t.Fatalf("got %q", got)
	}
}

func TestDisplayTextRejected(t *testing.T) {
	if got := DisplayText(nil); got != "[Failed to extract content]" {
		t.Fatalf("got %q", got)
	}
}

// 端到端:同一信封两次规范化+提取必须得到相同输出。
func TestDisplayTextDeterministic(t *testing.T) {
	envelope := mustEnvelope(t, `{"type":"assistant","message":{"content":[
		{"type":"tool_use","id":"u1","name":"Bash","input":{"command":"ls -la"}}
	]}}`)
	first := DisplayText(Normalize(envelope, ""))
	second := DisplayText(Normalize(envelope, ""))
	if first != second {
		t.Fatalf("outputs differ: %q vs %q", first, second)
	}
	if first != "[Running command: ls -la]" {
		t.Fatalf("got %q, want [Running command: ls -la]", first)
	}
}
