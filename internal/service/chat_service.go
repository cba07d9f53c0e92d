package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/noah-isme/swiaape-api/internal/dto"
	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/pkg/ai"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
)

const (
	chatPlanCommand   = "plan"
	chatPlanHint      = "write a student ID, e.g. plan 3"
	chatNotFound      = "student not found"
	chatNotUnderstood = "I did not understand the message"
)

type planNarrator interface {
	Narrative(ctx context.Context, student *models.Student) (string, error)
}

// ChatService answers the teacher's AI assistant. "plan <studentId>"
// builds a plan summary; anything else goes to the model.
type ChatService struct {
	students  studentReader
	narrator  planNarrator
	generator ai.Generator
	policy    *bluemonday.Policy
	logger    *zap.Logger
}

// NewChatService constructs a ChatService.
func NewChatService(students studentReader, narrator planNarrator, generator ai.Generator, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if generator == nil {
		generator = ai.Disabled{}
	}
	return &ChatService{students: students, narrator: narrator, generator: generator, policy: bluemonday.StrictPolicy(), logger: logger}
}

// Reply answers one chat message.
func (s *ChatService) Reply(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error) {
	message := strings.TrimSpace(s.policy.Sanitize(req.Message))
	if message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "please write a message")
	}

	fields := strings.Fields(message)
	if strings.EqualFold(fields[0], chatPlanCommand) {
		if len(fields) < 2 {
			return &dto.ChatResponse{Reply: chatPlanHint}, nil
		}
		return s.planReply(ctx, fields[1])
	}

	reply, err := s.generator.Reply(ctx, message)
	if err != nil {
		s.logger.Error("chat reply failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "the AI assistant is unavailable, try again later")
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = chatNotUnderstood
	}
	return &dto.ChatResponse{Reply: reply}, nil
}

func (s *ChatService) planReply(ctx context.Context, studentID string) (*dto.ChatResponse, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.ChatResponse{Reply: chatNotFound}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	narrative, err := s.narrator.Narrative(ctx, student)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Student: %s\n", student.FullName)
	if student.Performance != nil {
		fmt.Fprintf(&b, "Performance: %.1f\n", *student.Performance)
	} else {
		b.WriteString("Performance: no grade\n")
	}
	weaknesses := student.Weaknesses()
	if len(weaknesses) == 0 {
		b.WriteString("Weaknesses: no weaknesses recorded\n")
	} else {
		b.WriteString("Weaknesses:\n")
		for _, w := range weaknesses {
			fmt.Fprintf(&b, "- %s (%s)\n", w.CompetencyName, *w.Grade)
		}
	}
	b.WriteString("\n")
	b.WriteString(narrative)

	id := student.ID
	return &dto.ChatResponse{Reply: b.String(), StudentID: &id}, nil
}
