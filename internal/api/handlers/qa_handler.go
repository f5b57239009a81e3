package handlers

import (
	"net/http"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type QAHandler struct {
	qa  *services.QAService
	log logger.Logger
}

func NewQAHandler(qa *services.QAService, log logger.Logger) *QAHandler {
	return &QAHandler{
		qa:  qa,
		log: log,
	}
}

type AskQuestionRequest struct {
	Text string `json:"text"`
}

type ReplyRequest struct {
	Text string `json:"text"`
}

type QuestionResponse struct {
	QuestionID string         `json:"question_id"`
	AuctionID  string         `json:"auction_id"`
	AskerID    string         `json:"asker_id"`
	Text       string         `json:"text"`
	Reply      *ReplyResponse `json:"reply,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type ReplyResponse struct {
	ReplyID   string    `json:"reply_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func questionResponse(q *domain.Question) QuestionResponse {
	resp := QuestionResponse{
		QuestionID: q.ID,
		AuctionID:  q.AuctionID,
		AskerID:    q.AskerID,
		Text:       q.Text,
		CreatedAt:  q.CreatedAt,
	}
	if q.Reply != nil {
		resp.Reply = &ReplyResponse{
			ReplyID:   q.Reply.ID,
			Text:      q.Reply.Text,
			CreatedAt: q.Reply.CreatedAt,
		}
	}
	return resp
}

func (h *QAHandler) Ask(c echo.Context) error {
	asker := userID(c)
	if asker == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	var req AskQuestionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	question, err := h.qa.Ask(c.Request().Context(), c.Param("id"), asker, req.Text)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, questionResponse(question))
}

func (h *QAHandler) Reply(c echo.Context) error {
	responder := userID(c)
	if responder == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	var req ReplyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	reply, err := h.qa.Reply(c.Request().Context(), c.Param("question_id"), responder, req.Text)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, ReplyResponse{
		ReplyID:   reply.ID,
		Text:      reply.Text,
		CreatedAt: reply.CreatedAt,
	})
}

func (h *QAHandler) List(c echo.Context) error {
	questions, err := h.qa.ListQuestions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]QuestionResponse, 0, len(questions))
	for _, q := range questions {
		responses = append(responses, questionResponse(q))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"questions": responses})
}
