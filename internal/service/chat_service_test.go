package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/swiaape-api/internal/dto"
	"github.com/noah-isme/swiaape-api/pkg/ai"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
)

func newChatService(gen *fakeGenerator) *ChatService {
	students := sampleStudents()
	plans := NewStudyPlanService(newMemoryPlanStore(), students, gen, nil, nil)
	return NewChatService(students, plans, gen, nil)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	svc := newChatService(&fakeGenerator{})

	_, err := svc.Reply(context.Background(), dto.ChatRequest{Message: "   "})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, err = svc.Reply(context.Background(), dto.ChatRequest{Message: "<script>alert(1)</script>"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
}

func TestChatPlanCommand(t *testing.T) {
	gen := &fakeGenerator{draft: ai.PlanDraft{Narrative: "- a\n- b\n- c"}}
	svc := newChatService(gen)
	ctx := context.Background()

	resp, err := svc.Reply(ctx, dto.ChatRequest{Message: "plan"})
	require.NoError(t, err)
	assert.Equal(t, "write a student ID, e.g. plan 3", resp.Reply)

	resp, err = svc.Reply(ctx, dto.ChatRequest{Message: "plan 99"})
	require.NoError(t, err)
	assert.Equal(t, "student not found", resp.Reply)

	resp, err = svc.Reply(ctx, dto.ChatRequest{Message: "Plan 3"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "Juan Perez")
	assert.Contains(t, resp.Reply, "Performance: 14.5")
	assert.Contains(t, resp.Reply, "- Resuelve problemas (C)")
	assert.Contains(t, resp.Reply, "- Indaga (B)")
	assert.Contains(t, resp.Reply, "- a\n- b\n- c")
	require.NotNil(t, resp.StudentID)
	assert.Equal(t, "3", *resp.StudentID)
	assert.Empty(t, gen.messages)
}

func TestChatPlanForStudentWithoutWeaknesses(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newChatService(gen)

	resp, err := svc.Reply(context.Background(), dto.ChatRequest{Message: "plan 4"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "Performance: no grade")
	assert.Contains(t, resp.Reply, "no weaknesses recorded")
	assert.Empty(t, gen.requests)
}

func TestChatFreeText(t *testing.T) {
	gen := &fakeGenerator{reply: "  Try spaced repetition.  "}
	svc := newChatService(gen)

	resp, err := svc.Reply(context.Background(), dto.ChatRequest{Message: "<b>How</b> can I help Juan?"})
	require.NoError(t, err)
	assert.Equal(t, "Try spaced repetition.", resp.Reply)
	require.Len(t, gen.messages, 1)
	assert.Equal(t, "How can I help Juan?", gen.messages[0])

	gen.reply = ""
	resp, err = svc.Reply(context.Background(), dto.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "I did not understand the message", resp.Reply)

	gen.err = ai.ErrUnavailable
	_, err = svc.Reply(context.Background(), dto.ChatRequest{Message: "hello"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrServiceUnavailable.Code))
}
