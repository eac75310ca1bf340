package voting

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/societyhub-backend/internal/repo"
	dbpkg "github.com/angelmondragon/societyhub-backend/pkg/db"
	"github.com/angelmondragon/societyhub-backend/pkg/db/models"
	"github.com/angelmondragon/societyhub-backend/pkg/enums"
)

// Tally is the vote count of one request at the moment it was read.
type Tally struct {
	Approved int64
	Rejected int64
}

// Ledger is the append-only record of votes. It enforces one vote per voter
// per request and nothing else; eligibility belongs to the caller.
type Ledger interface {
	WithTx(tx *gorm.DB) Ledger
	Cast(ctx context.Context, requestID, voterID uuid.UUID, voteType enums.VoteType) (*models.Vote, error)
	Count(ctx context.Context, requestID uuid.UUID) (Tally, error)
	HasVoted(ctx context.Context, requestID, voterID uuid.UUID) (bool, error)
	CountMany(ctx context.Context, requestIDs []uuid.UUID) (map[uuid.UUID]Tally, error)
	VotedOn(ctx context.Context, voterID uuid.UUID, requestIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

type ledger struct {
	base repo.Base
}

// NewLedger returns a Ledger backed by the votes table.
func NewLedger(db *gorm.DB) Ledger {
	return &ledger{base: repo.NewBase(db)}
}

func (l *ledger) WithTx(tx *gorm.DB) Ledger {
	if tx == nil {
		return l
	}
	return &ledger{base: l.base.Bind(tx)}
}

// Cast records a vote. A second vote by the same voter fails with
// ErrDuplicateVote, whether caught by the pre-check or by the unique index.
func (l *ledger) Cast(ctx context.Context, requestID, voterID uuid.UUID, voteType enums.VoteType) (*models.Vote, error) {
	voted, err := l.HasVoted(ctx, requestID, voterID)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, ErrDuplicateVote
	}

	vote := &models.Vote{
		RequestID: requestID,
		VoterID:   voterID,
		VoteType:  voteType,
	}
	if err := l.base.DB(ctx).Create(vote).Error; err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, ErrDuplicateVote
		}
		return nil, err
	}
	return vote, nil
}

func (l *ledger) Count(ctx context.Context, requestID uuid.UUID) (Tally, error) {
	tallies, err := l.CountMany(ctx, []uuid.UUID{requestID})
	if err != nil {
		return Tally{}, err
	}
	return tallies[requestID], nil
}

func (l *ledger) HasVoted(ctx context.Context, requestID, voterID uuid.UUID) (bool, error) {
	var count int64
	err := l.base.DB(ctx).
		Model(&models.Vote{}).
		Where("request_id = ? AND voter_id = ?", requestID, voterID).
		Count(&count).Error
	return count > 0, err
}

type tallyRow struct {
	RequestID uuid.UUID
	VoteType  enums.VoteType
	Total     int64
}

// CountMany tallies several requests in one query. Requests without votes map
// to a zero Tally.
func (l *ledger) CountMany(ctx context.Context, requestIDs []uuid.UUID) (map[uuid.UUID]Tally, error) {
	tallies := make(map[uuid.UUID]Tally, len(requestIDs))
	if len(requestIDs) == 0 {
		return tallies, nil
	}

	var rows []tallyRow
	err := l.base.DB(ctx).
		Model(&models.Vote{}).
		Select("request_id, vote_type, COUNT(*) AS total").
		Where("request_id IN ?", requestIDs).
		Group("request_id, vote_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		tally := tallies[row.RequestID]
		switch row.VoteType {
		case enums.VoteTypeApprove:
			tally.Approved = row.Total
		case enums.VoteTypeReject:
			tally.Rejected = row.Total
		}
		tallies[row.RequestID] = tally
	}
	return tallies, nil
}

func (l *ledger) VotedOn(ctx context.Context, voterID uuid.UUID, requestIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	voted := make(map[uuid.UUID]bool, len(requestIDs))
	if len(requestIDs) == 0 {
		return voted, nil
	}

	var ids []uuid.UUID
	err := l.base.DB(ctx).
		Model(&models.Vote{}).
		Where("voter_id = ? AND request_id IN ?", voterID, requestIDs).
		Pluck("request_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		voted[id] = true
	}
	return voted, nil
}
