package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/societyhub-backend/internal/voting"
	"github.com/angelmondragon/societyhub-backend/pkg/enums"
	"github.com/angelmondragon/societyhub-backend/pkg/logger"
)

const defaultExpiryBatchSize = 200

type expirySweeper interface {
	SweepExpired(ctx context.Context, limit int) (voting.SweepResult, error)
}

type VotingExpiryJobParams struct {
	Logger    *logger.Logger
	Sweeper   expirySweeper
	BatchSize int
}

// NewVotingExpiryJob settles pending requests whose window has closed, so
// nobody has to read them first.
func NewVotingExpiryJob(params VotingExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("voting sweeper required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatchSize
	}
	return &votingExpiryJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
		batch:   batch,
	}, nil
}

type votingExpiryJob struct {
	logg    *logger.Logger
	sweeper expirySweeper
	batch   int
}

func (j *votingExpiryJob) Name() string { return "voting-expiry-sweep" }

func (j *votingExpiryJob) Run(ctx context.Context) error {
	result, err := j.sweeper.SweepExpired(ctx, j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"batch_size": j.batch,
		"scanned":    result.Scanned,
		"expired":    result.Resolved[enums.VotingRequestStatusExpired],
		"approved":   result.Resolved[enums.VotingRequestStatusApproved],
		"rejected":   result.Resolved[enums.VotingRequestStatusRejected],
	})
	if err != nil {
		return fmt.Errorf("voting expiry sweep: %w", err)
	}
	if result.Scanned > 0 {
		j.logg.Info(logCtx, "voting expiry sweep complete")
	}
	return nil
}
