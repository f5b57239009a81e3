package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/google/uuid"
)

var timeNow = time.Now

// QAService handles the question-and-answer threads attached to auctions.
// Anyone may ask; only the auction owner may reply, once per question.
type QAService struct {
	questions domain.QuestionRepository
	auctions  domain.AuctionRepository
	dispatch  domain.NotificationDispatch
	log       logger.Logger
}

func NewQAService(questions domain.QuestionRepository, auctions domain.AuctionRepository,
	dispatch domain.NotificationDispatch, log logger.Logger) *QAService {
	return &QAService{
		questions: questions,
		auctions:  auctions,
		dispatch:  dispatch,
		log:       log,
	}
}

func (s *QAService) Ask(ctx context.Context, auctionID, askerID, text string) (*domain.Question, error) {
	if askerID == "" || strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: asker and question text are required", domain.ErrInvalidInput)
	}

	auction, err := s.auctions.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	question := &domain.Question{
		ID:        uuid.NewString(),
		AuctionID: auctionID,
		AskerID:   askerID,
		Text:      strings.TrimSpace(text),
		CreatedAt: timeNow(),
	}
	if err := s.questions.CreateQuestion(ctx, question); err != nil {
		return nil, err
	}

	if s.dispatch != nil {
		go s.dispatch.Notify(context.Background(), auction.OwnerID, domain.NotificationQuestionAsked,
			fmt.Sprintf("New question on your auction %q.", auction.Title))
	}

	return question, nil
}

func (s *QAService) Reply(ctx context.Context, questionID, responderID, text string) (*domain.Reply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: reply text cannot be empty", domain.ErrInvalidInput)
	}

	question, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.Reply != nil {
		return nil, fmt.Errorf("%w: question already has a reply", domain.ErrInvalidInput)
	}

	auction, err := s.auctions.GetAuction(ctx, question.AuctionID)
	if err != nil {
		return nil, err
	}
	if responderID != auction.OwnerID {
		return nil, fmt.Errorf("%w: only the auction owner can reply", domain.ErrForbidden)
	}

	reply := &domain.Reply{
		ID:         uuid.NewString(),
		QuestionID: questionID,
		Text:       strings.TrimSpace(text),
		CreatedAt:  timeNow(),
	}
	if err := s.questions.SaveReply(ctx, reply); err != nil {
		return nil, err
	}

	if s.dispatch != nil {
		go s.dispatch.Notify(context.Background(), question.AskerID, domain.NotificationQuestionReply,
			fmt.Sprintf("Your question on %q has been answered.", auction.Title))
	}

	return reply, nil
}

func (s *QAService) ListQuestions(ctx context.Context, auctionID string) ([]*domain.Question, error) {
	if _, err := s.auctions.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.questions.ListQuestions(ctx, auctionID)
}
