package services

import (
	"context"
	"testing"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/infrastructure/memory"
	"auction-marketplace/pkg/logger"

	"github.com/stretchr/testify/require"
)

func TestQAService_AskAndReply(t *testing.T) {
	store := memory.NewStore()
	dispatch := &recordingDispatch{}
	qa := NewQAService(store, store, dispatch, logger.NewNop())
	auction := seedAuction(t, store, "owner", "10.00", time.Now().Add(time.Hour))

	question, err := qa.Ask(context.Background(), auction.ID, "curious", "Does it come with a lens?")
	require.NoError(t, err)
	require.Equal(t, auction.ID, question.AuctionID)

	require.Eventually(t, func() bool {
		asked := dispatch.byKind(domain.NotificationQuestionAsked)
		return len(asked) == 1 && asked[0].UserID == "owner"
	}, time.Second, 10*time.Millisecond)

	// Only the owner can reply.
	_, err = qa.Reply(context.Background(), question.ID, "curious", "no idea")
	require.ErrorIs(t, err, domain.ErrForbidden)

	reply, err := qa.Reply(context.Background(), question.ID, "owner", "Yes, the original 50mm.")
	require.NoError(t, err)
	require.Equal(t, question.ID, reply.QuestionID)

	// One reply per question.
	_, err = qa.Reply(context.Background(), question.ID, "owner", "again")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	questions, err := qa.ListQuestions(context.Background(), auction.ID)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.NotNil(t, questions[0].Reply)
}

func TestQAService_Validation(t *testing.T) {
	store := memory.NewStore()
	qa := NewQAService(store, store, nil, logger.NewNop())
	auction := seedAuction(t, store, "owner", "10.00", time.Now().Add(time.Hour))

	tests := []struct {
		name        string
		auctionID   string
		askerID     string
		text        string
		expectError error
	}{
		{"empty_text", auction.ID, "curious", "   ", domain.ErrInvalidInput},
		{"missing_asker", auction.ID, "", "hello?", domain.ErrInvalidInput},
		{"unknown_auction", "missing", "curious", "hello?", domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := qa.Ask(context.Background(), tt.auctionID, tt.askerID, tt.text)
			require.ErrorIs(t, err, tt.expectError)
		})
	}
}

func TestWatchlistService_Toggle(t *testing.T) {
	store := memory.NewStore()
	watchlist := NewWatchlistService(store, store, logger.NewNop())
	auction := seedAuction(t, store, "owner", "10.00", time.Now().Add(time.Hour))

	_, err := watchlist.Toggle(context.Background(), "watcher", "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	watching, err := watchlist.Toggle(context.Background(), "watcher", auction.ID)
	require.NoError(t, err)
	require.True(t, watching)

	watched, err := watchlist.ListWatched(context.Background(), "watcher")
	require.NoError(t, err)
	require.Len(t, watched, 1)

	count, err := watchlist.CountWatchers(context.Background(), auction.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// Toggling again removes the entry.
	watching, err = watchlist.Toggle(context.Background(), "watcher", auction.ID)
	require.NoError(t, err)
	require.False(t, watching)

	watched, err = watchlist.ListWatched(context.Background(), "watcher")
	require.NoError(t, err)
	require.Empty(t, watched)
}
