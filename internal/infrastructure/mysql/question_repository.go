package mysql

import (
	"context"
	"database/sql"
	"errors"

	"auction-marketplace/internal/domain"
)

type MySQLQuestionRepository struct {
	db *sql.DB
}

func NewMySQLQuestionRepository(db *sql.DB) *MySQLQuestionRepository {
	return &MySQLQuestionRepository{db: db}
}

func (r *MySQLQuestionRepository) CreateQuestion(ctx context.Context, q *domain.Question) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO questions (id, auction_id, asker_id, question_text, created_at)
        VALUES (?, ?, ?, ?, ?)
    `, q.ID, q.AuctionID, q.AskerID, q.Text, q.CreatedAt)
	return wrapStorageErr(err)
}

func (r *MySQLQuestionRepository) GetQuestion(ctx context.Context, questionID string) (*domain.Question, error) {
	query := `
        SELECT q.id, q.auction_id, q.asker_id, q.question_text, q.created_at,
            r.id, r.answer_text, r.created_at
        FROM questions q
        LEFT JOIN replies r ON r.question_id = q.id
        WHERE q.id = ?
    `

	question, err := scanQuestion(r.db.QueryRowContext(ctx, query, questionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	return question, nil
}

func (r *MySQLQuestionRepository) ListQuestions(ctx context.Context, auctionID string) ([]*domain.Question, error) {
	query := `
        SELECT q.id, q.auction_id, q.asker_id, q.question_text, q.created_at,
            r.id, r.answer_text, r.created_at
        FROM questions q
        LEFT JOIN replies r ON r.question_id = q.id
        WHERE q.auction_id = ?
        ORDER BY q.created_at ASC
    `

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, wrapStorageErr(err)
	}
	defer rows.Close()

	var questions []*domain.Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, wrapStorageErr(err)
		}
		questions = append(questions, question)
	}
	return questions, wrapStorageErr(rows.Err())
}

func (r *MySQLQuestionRepository) SaveReply(ctx context.Context, reply *domain.Reply) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO replies (id, question_id, answer_text, created_at)
        VALUES (?, ?, ?, ?)
    `, reply.ID, reply.QuestionID, reply.Text, reply.CreatedAt)
	return wrapStorageErr(err)
}

func scanQuestion(row rowScanner) (*domain.Question, error) {
	var q domain.Question
	var replyID, replyText sql.NullString
	var replyAt sql.NullTime

	err := row.Scan(&q.ID, &q.AuctionID, &q.AskerID, &q.Text, &q.CreatedAt,
		&replyID, &replyText, &replyAt)
	if err != nil {
		return nil, err
	}

	if replyID.Valid {
		q.Reply = &domain.Reply{
			ID:         replyID.String,
			QuestionID: q.ID,
			Text:       replyText.String,
			CreatedAt:  replyAt.Time,
		}
	}
	return &q, nil
}
