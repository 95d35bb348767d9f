package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/log"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/realtime"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/tools"
	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/usage"
)

// fakeSession records the assistant's configuration and lets tests fire
// the callbacks a live connection would.
type fakeSession struct {
	mu sync.Mutex

	configured   *realtime.SessionOptions
	responses    []string
	toolResults  map[string]string
	submitErr    error
	resultSignal chan struct{}

	onToolCall   func(callID, name string, args json.RawMessage)
	onUsage      func(realtime.Usage)
	onTranscript func(role, text string, final bool)
	onError      func(error)
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		toolResults:  make(map[string]string),
		resultSignal: make(chan struct{}, 8),
	}
}

func (s *fakeSession) ConfigureSession(opts realtime.SessionOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configured = &opts
	return nil
}

func (s *fakeSession) CreateResponse(instructions string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, instructions)
	return nil
}

func (s *fakeSession) SubmitToolResult(callID, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return s.submitErr
	}
	s.toolResults[callID] = result
	s.resultSignal <- struct{}{}
	return nil
}

func (s *fakeSession) OnToolCall(fn func(callID, name string, args json.RawMessage)) {
	s.onToolCall = fn
}

func (s *fakeSession) OnUsage(fn func(realtime.Usage)) { s.onUsage = fn }

func (s *fakeSession) OnTranscript(fn func(role, text string, final bool)) { s.onTranscript = fn }

func (s *fakeSession) OnError(fn func(error)) { s.onError = fn }

func (s *fakeSession) waitForToolResult(t *testing.T) {
	t.Helper()
	select {
	case <-s.resultSignal:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tool result submission")
	}
}

type cityInput struct {
	City string `json:"city" jsonschema:"city name"`
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()

	weather, err := tools.New("get_current_weather", "Current weather.", "عذراً.",
		func(_ context.Context, in cityInput) tools.Outcome {
			return tools.OK("الطقس في " + in.City + ": مشمس")
		})
	require.NoError(t, err)

	failing, err := tools.New("search_web", "Web search.", "عذراً، حدث خطأ أثناء البحث على الإنترنت.",
		func(_ context.Context, _ cityInput) tools.Outcome {
			return tools.Upstream("عذراً، حدث خطأ أثناء البحث على الإنترنت.", fmt.Errorf("down"))
		})
	require.NoError(t, err)

	registry, err := tools.NewRegistry(log.NewNop(), weather, failing)
	require.NoError(t, err)
	return registry
}

func newTestAssistant(t *testing.T, session *fakeSession) (*Assistant, *usage.Collector) {
	t.Helper()
	collector := usage.NewCollector("session-1")
	assistant, err := New(session, testRegistry(t), collector, log.NewNop(), Options{})
	require.NoError(t, err)
	return assistant, collector
}

func TestNew(t *testing.T) {
	t.Parallel()

	session := newFakeSession()
	registry := testRegistry(t)
	collector := usage.NewCollector("s")
	logger := log.NewNop()

	t.Run("successful creation", func(t *testing.T) {
		t.Parallel()
		a, err := New(session, registry, collector, logger, Options{})
		require.NoError(t, err)
		assert.NotNil(t, a)
	})

	t.Run("nil session fails", func(t *testing.T) {
		t.Parallel()
		a, err := New(nil, registry, collector, logger, Options{})
		assert.Error(t, err)
		assert.Nil(t, a)
	})

	t.Run("nil registry fails", func(t *testing.T) {
		t.Parallel()
		a, err := New(session, nil, collector, logger, Options{})
		assert.Error(t, err)
		assert.Nil(t, a)
	})

	t.Run("nil collector fails", func(t *testing.T) {
		t.Parallel()
		a, err := New(session, registry, nil, logger, Options{})
		assert.Error(t, err)
		assert.Nil(t, a)
	})

	t.Run("nil logger fails", func(t *testing.T) {
		t.Parallel()
		a, err := New(session, registry, collector, nil, Options{})
		assert.Error(t, err)
		assert.Nil(t, a)
	})
}

func TestAssistant_Start(t *testing.T) {
	t.Parallel()

	session := newFakeSession()
	assistant, _ := newTestAssistant(t, session)

	require.NoError(t, assistant.Start(context.Background()))

	require.NotNil(t, session.configured)
	opts := *session.configured

	assert.Contains(t, opts.Instructions, "مساعد صوتي")
	assert.Equal(t, DefaultVoice, opts.Voice)
	assert.Equal(t, []string{"text", "audio"}, opts.Modalities)

	require.Len(t, opts.Tools, 2)
	assert.Equal(t, "get_current_weather", opts.Tools[0].Name)
	assert.Equal(t, "search_web", opts.Tools[1].Name)
	assert.NotNil(t, opts.Tools[0].Parameters)

	require.NotNil(t, opts.TurnDetection)
	assert.Equal(t, "semantic_vad", opts.TurnDetection.Type)
	assert.Equal(t, "low", opts.TurnDetection.Eagerness)
	assert.False(t, opts.TurnDetection.InterruptResponse)

	// The opening greeting goes out before the caller speaks.
	require.Len(t, session.responses, 1)
	assert.Contains(t, session.responses[0], "السلام عليكم! أنا مساعدك الصوتي.")
}

func TestAssistant_Start_CustomOptions(t *testing.T) {
	t.Parallel()

	session := newFakeSession()
	collector := usage.NewCollector("session-1")
	assistant, err := New(session, testRegistry(t), collector, log.NewNop(), Options{
		Voice:        "verse",
		Instructions: "custom prompt",
	})
	require.NoError(t, err)

	require.NoError(t, assistant.Start(context.Background()))
	assert.Equal(t, "verse", session.configured.Voice)
	assert.Equal(t, "custom prompt", session.configured.Instructions)
}

func TestAssistant_ToolCallRoundTrip(t *testing.T) {
	t.Parallel()

	session := newFakeSession()
	assistant, _ := newTestAssistant(t, session)
	require.NoError(t, assistant.Start(context.Background()))

	session.onToolCall("call_1", "get_current_weather", json.RawMessage(`{"city":"Rabat"}`))
	session.waitForToolResult(t)

	session.mu.Lock()
	defer session.mu.Unlock()
	assert.Equal(t, "الطقس في Rabat: مشمس", session.toolResults["call_1"])
}

func TestAssistant_ToolFailureStillReplies(t *testing.T) {
	t.Parallel()

	session := newFakeSession()
	assistant, _ := newTestAssistant(t, session)
	require.NoError(t, assistant.Start(context.Background()))

	// A failing tool degrades to its apology; the dialogue always gets
	// something to speak.
	session.onToolCall("call_2", "search_web", json.RawMessage(`{"city":"x"}`))
	session.waitForToolResult(t)

	session.mu.Lock()
	defer session.mu.Unlock()
	assert.Equal(t, "عذراً، حدث خطأ أثناء البحث على الإنترنت.", session.toolResults["call_2"])
}

func TestAssistant_UnknownToolStillReplies(t *testing.T) {
	t.Parallel()

	session := newFakeSession()
	assistant, _ := newTestAssistant(t, session)
	require.NoError(t, assistant.Start(context.Background()))

	session.onToolCall("call_3", "no_such_tool", nil)
	session.waitForToolResult(t)

	session.mu.Lock()
	defer session.mu.Unlock()
	assert.NotEmpty(t, session.toolResults["call_3"])
}

func TestAssistant_UsageCollection(t *testing.T) {
	t.Parallel()

	session := newFakeSession()
	assistant, collector := newTestAssistant(t, session)
	require.NoError(t, assistant.Start(context.Background()))

	session.onUsage(realtime.Usage{TotalTokens: 100, InputTokens: 60, OutputTokens: 40, InputAudioTokens: 30})
	session.onUsage(realtime.Usage{TotalTokens: 50, InputTokens: 20, OutputTokens: 30, OutputAudioTokens: 25})

	summary := assistant.UsageSummary()
	assert.Equal(t, "session-1", summary.SessionID)
	assert.Equal(t, int64(2), summary.Responses)
	assert.Equal(t, int64(150), summary.TotalTokens)
	assert.Equal(t, int64(80), summary.InputTokens)
	assert.Equal(t, int64(70), summary.OutputTokens)
	assert.Equal(t, int64(30), summary.InputAudioTokens)
	assert.Equal(t, int64(25), summary.OutputAudioTokens)

	assert.Equal(t, int64(2), collector.Responses())
}
