package logger

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"
)

// ─── applyAttr Tests ───

func TestApplyAttrKnownFields(t *testing.T) {
	e := &LogEntry{}

	applyAttr(e, slog.String(FieldSource, "live"))
	applyAttr(e, slog.String(FieldComponent, "assembler"))
	applyAttr(e, slog.String(FieldSessionID, "sess-1"))
	applyAttr(e, slog.String(FieldPromptID, "prompt-abc"))
	applyAttr(e, slog.String(FieldTraceID, "trace-xyz"))
	applyAttr(e, slog.String(FieldEventType, "text_delta"))
	applyAttr(e, slog.String(FieldToolName, "Bash"))
	applyAttr(e, slog.String("logger", "httpapi.live"))
	applyAttr(e, slog.String("raw", "raw-text"))

	if e.Source != "live" {
		t.Errorf("Source = %q, want live", e.Source)
	}
	if e.Component != "assembler" {
		t.Errorf("Component = %q, want assembler", e.Component)
	}
	if e.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", e.SessionID)
	}
	if e.PromptID != "prompt-abc" {
		t.Errorf("PromptID = %q, want prompt-abc", e.PromptID)
	}
	if e.TraceID != "trace-xyz" {
		t.Errorf("TraceID = %q, want trace-xyz", e.TraceID)
	}
	if e.EventType != "text_delta" {
		t.Errorf("EventType = %q, want text_delta", e.EventType)
	}
	if e.ToolName != "Bash" {
		t.Errorf("ToolName = %q, want Bash", e.ToolName)
	}
	if e.Logger != "httpapi.live" {
		t.Errorf("Logger = %q, want httpapi.live", e.Logger)
	}
	if e.Raw != "raw-text" {
		t.Errorf("Raw = %q, want raw-text", e.Raw)
	}
}

func TestApplyAttrUnknownFieldGoesToExtra(t *testing.T) {
	e := &LogEntry{}
	applyAttr(e, slog.String("custom_field", "custom_value"))

	if e.Extra == nil {
		t.Fatal("Extra should not be nil for unknown field")
	}
	if v, ok := e.Extra["custom_field"]; !ok || v != "custom_value" {
		t.Errorf("Extra[custom_field] = %v, want custom_value", v)
	}
}

// DurationMS 应支持 int64 / int / float64 三种来源。
func TestApplyAttrDurationMS(t *testing.T) {
	cases := []struct {
		name string
		attr slog.Attr
		want int
	}{
		{"int64", slog.Int64(FieldDurationMS, 42), 42},
		{"int", slog.Any(FieldDurationMS, int(100)), 100},
		{"float64", slog.Any(FieldDurationMS, float64(99.7)), 99},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := &LogEntry{}
			applyAttr(e, tc.attr)
			if e.DurationMS == nil {
				t.Fatalf("%s: DurationMS should not be nil", tc.name)
			}
			if *e.DurationMS != tc.want {
				t.Errorf("%s: DurationMS = %d, want %d", tc.name, *e.DurationMS, tc.want)
			}
		})
	}
}

// ─── MultiHandler Tests ───

// countHandler 记录 Handle 调用次数的测试 handler。
type countHandler struct {
	level slog.Level
	count int
}

func (h *countHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }
func (h *countHandler) Handle(_ context.Context, _ slog.Record) error {
	h.count++
	return nil
}
func (h *countHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *countHandler) WithGroup(_ string) slog.Handler      { return h }

func TestMultiHandlerFanOut(t *testing.T) {
	a := &countHandler{level: slog.LevelInfo}
	b := &countHandler{level: slog.LevelInfo}
	multi := NewMultiHandler(a, b)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)
	if err := multi.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if a.count != 1 || b.count != 1 {
		t.Errorf("fan-out counts = (%d, %d), want (1, 1)", a.count, b.count)
	}
}

func TestMultiHandlerRespectsLevel(t *testing.T) {
	a := &countHandler{level: slog.LevelInfo}
	b := &countHandler{level: slog.LevelError} // 不应收到 INFO
	multi := NewMultiHandler(a, b)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)
	_ = multi.Handle(context.Background(), r)

	if a.count != 1 {
		t.Errorf("a.count = %d, want 1", a.count)
	}
	if b.count != 0 {
		t.Errorf("b.count = %d, want 0 (level gated)", b.count)
	}
}

func TestMultiHandlerEnabled(t *testing.T) {
	a := &countHandler{level: slog.LevelError}
	b := &countHandler{level: slog.LevelInfo}
	multi := NewMultiHandler(a, b)

	if !multi.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Enabled(INFO) = false, want true (b accepts INFO)")
	}
}

// ─── unwrapBaseHandler Tests ───

func TestUnwrapBaseHandler_ReturnsBaseFromMulti(t *testing.T) {
	base := slog.NewTextHandler(os.Stderr, nil)
	fakeDB := slog.NewJSONHandler(os.Stderr, nil)
	multi := NewMultiHandler(base, fakeDB)

	got := unwrapBaseHandler(multi)
	// 应该返回 base handler, 不是 MultiHandler
	if _, isMH := got.(*MultiHandler); isMH {
		t.Error("unwrapBaseHandler should strip MultiHandler wrapper")
	}
}

func TestUnwrapBaseHandler_PassThroughNonMulti(t *testing.T) {
	base := slog.NewTextHandler(os.Stderr, nil)
	got := unwrapBaseHandler(base)
	if got != base {
		t.Error("unwrapBaseHandler should return non-MultiHandler as-is")
	}
}

// ─── DBHandler 生命周期 (不连 DB) ───

// Shutdown 应幂等, 且 Shutdown 后 Handle 不 panic。
func TestDBHandlerShutdownIdempotent(t *testing.T) {
	h := NewDBHandler(nil, slog.LevelInfo)

	h.Shutdown()
	h.Shutdown() // 第二次调用不 panic

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "after shutdown", 0)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Errorf("Handle after Shutdown: %v", err)
	}
}

// WithAttrs 克隆应与原 handler 共享 closed 状态。
func TestDBHandlerCloneSharesClosed(t *testing.T) {
	h := NewDBHandler(nil, slog.LevelInfo)
	clone := h.WithAttrs([]slog.Attr{slog.String(FieldSessionID, "s1")})

	h.Shutdown()

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "late", 0)
	// clone 写入已关闭 handler 不应 panic
	if err := clone.Handle(context.Background(), r); err != nil {
		t.Errorf("clone Handle after Shutdown: %v", err)
	}
}
