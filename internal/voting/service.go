package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/societyhub-backend/internal/memberships"
	dbpkg "github.com/angelmondragon/societyhub-backend/pkg/db"
	"github.com/angelmondragon/societyhub-backend/pkg/db/models"
	"github.com/angelmondragon/societyhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/societyhub-backend/pkg/errors"
	"github.com/angelmondragon/societyhub-backend/pkg/logger"
	"github.com/angelmondragon/societyhub-backend/pkg/metrics"
	"github.com/angelmondragon/societyhub-backend/pkg/outbox"
	"github.com/angelmondragon/societyhub-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type societyLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service is the voting workflow: initiation, vote casting, lazy evaluation and
// the listings built on top of them.
type Service interface {
	Initiate(ctx context.Context, requestType enums.VotingRequestType, societyID, userID uuid.UUID) (*RequestView, error)
	CastVote(ctx context.Context, requestID, userID uuid.UUID, voteType enums.VoteType) (*RequestView, error)
	ListPending(ctx context.Context, userID uuid.UUID) ([]RequestView, error)
	ListInitiatedBy(ctx context.Context, userID uuid.UUID) ([]RequestView, error)
	GetRequest(ctx context.Context, requestID, userID uuid.UUID) (*RequestView, error)
	SweepExpired(ctx context.Context, limit int) (SweepResult, error)
}

// ServiceParams are the collaborators of the voting service. Now defaults to
// time.Now and Metrics may be nil; every other field is required.
type ServiceParams struct {
	DB          txRunner
	Requests    *Repository
	Ledger      Ledger
	Memberships *memberships.Service
	Societies   societyLookup
	Outbox      outboxEmitter
	Metrics     *metrics.VotingMetrics
	Logger      *logger.Logger
	Now         func() time.Time
}

type service struct {
	db        txRunner
	requests  *Repository
	ledger    Ledger
	members   *memberships.Service
	societies societyLookup
	outbox    outboxEmitter
	metrics   *metrics.VotingMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService validates params and returns the voting Service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, fmt.Errorf("db runner required")
	case params.Requests == nil:
		return nil, fmt.Errorf("voting request repository required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("vote ledger required")
	case params.Memberships == nil:
		return nil, fmt.Errorf("memberships service required")
	case params.Societies == nil:
		return nil, fmt.Errorf("society lookup required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:        params.DB,
		requests:  params.Requests,
		ledger:    params.Ledger,
		members:   params.Memberships,
		societies: params.Societies,
		outbox:    params.Outbox,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       func() time.Time { return now().UTC() },
	}, nil
}

// Initiate opens a voting request of the given type for the caller.
func (s *service) Initiate(ctx context.Context, requestType enums.VotingRequestType, societyID, userID uuid.UUID) (*RequestView, error) {
	if !requestType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown request type %q", requestType))
	}
	exists, err := s.societies.Exists(ctx, societyID)
	if err != nil {
		return nil, internalError(err, "load society")
	}
	if !exists {
		return nil, domainError(ErrSocietyNotFound)
	}

	var req *models.VotingRequest
	switch requestType {
	case enums.VotingRequestTypeResidentJoin:
		req, err = s.prepareResidentJoin(ctx, societyID, userID)
	case enums.VotingRequestTypeProviderList:
		req, err = s.prepareProviderListing(ctx, societyID, userID)
	}
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.requests.WithTx(tx).Create(ctx, req); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVotingRequestCreated,
			AggregateType: enums.AggregateVotingRequest,
			AggregateID:   req.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: initiatorRole(requestType)},
			OccurredAt:    req.CreatedAt,
			Data: payloads.VotingRequestCreatedEvent{
				VotingRequestID:   req.ID,
				RequestType:       req.RequestType,
				SocietyID:         req.SocietyID,
				InitiatedByID:     req.InitiatedByID,
				ResidentUserID:    req.ResidentUserID,
				ServiceProviderID: req.ServiceProviderID,
				ExpiryTime:        req.ExpiryTime,
			},
		})
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, domainError(ErrDuplicatePendingRequest)
		}
		return nil, internalError(err, "create voting request")
	}

	s.metrics.IncInitiated(string(req.RequestType))
	logCtx := s.requestLogContext(ctx, req)
	s.logg.Info(logCtx, "voting request created")

	view := toView(*req, Tally{}, false)
	return &view, nil
}

func (s *service) prepareResidentJoin(ctx context.Context, societyID, userID uuid.UUID) (*models.VotingRequest, error) {
	registry := s.members.Repository()
	profile, err := registry.FindProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainError(ErrNotResident)
		}
		return nil, internalError(err, "load profile")
	}

	member, err := registry.IsProfileMember(ctx, profile.ID, societyID)
	if err != nil {
		return nil, internalError(err, "check membership")
	}
	if member {
		return nil, domainError(ErrAlreadyMember)
	}

	if err := s.settlePending(ctx, userID); err != nil {
		return nil, err
	}
	pending, err := s.requests.HasPendingResidentJoin(ctx, userID)
	if err != nil {
		return nil, internalError(err, "check pending join requests")
	}
	if pending {
		return nil, domainError(ErrDuplicatePendingRequest)
	}

	now := s.now()
	residentID := userID
	return &models.VotingRequest{
		RequestType:    enums.VotingRequestTypeResidentJoin,
		SocietyID:      societyID,
		InitiatedByID:  userID,
		ResidentUserID: &residentID,
		Status:         enums.VotingRequestStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiryTime:     expiryFor(now),
	}, nil
}

func (s *service) prepareProviderListing(ctx context.Context, societyID, userID uuid.UUID) (*models.VotingRequest, error) {
	registry := s.members.Repository()
	provider, err := registry.FindProviderByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainError(ErrNotProvider)
		}
		return nil, internalError(err, "load provider")
	}

	listed, err := registry.IsProviderListed(ctx, provider.ID, societyID)
	if err != nil {
		return nil, internalError(err, "check listing")
	}
	if listed {
		return nil, domainError(ErrAlreadyListed)
	}

	if err := s.settlePending(ctx, userID); err != nil {
		return nil, err
	}
	pending, err := s.requests.HasPendingProviderList(ctx, provider.ID, societyID)
	if err != nil {
		return nil, internalError(err, "check pending listing requests")
	}
	if pending {
		return nil, domainError(ErrDuplicatePendingRequest)
	}

	now := s.now()
	providerID := provider.ID
	return &models.VotingRequest{
		RequestType:       enums.VotingRequestTypeProviderList,
		SocietyID:         societyID,
		InitiatedByID:     userID,
		ServiceProviderID: &providerID,
		Status:            enums.VotingRequestStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
		ExpiryTime:        expiryFor(now),
	}, nil
}

// settlePending evaluates the caller's open requests so a lapsed one does not
// block a new initiation.
func (s *service) settlePending(ctx context.Context, userID uuid.UUID) error {
	open, err := s.requests.ListPendingByInitiator(ctx, userID)
	if err != nil {
		return internalError(err, "list pending requests")
	}
	for i := range open {
		if _, err := s.evaluate(ctx, &open[i]); err != nil {
			return internalError(err, "evaluate pending request")
		}
	}
	return nil
}

// CastVote is the only path by which a vote enters the ledger.
func (s *service) CastVote(ctx context.Context, requestID, userID uuid.UUID, voteType enums.VoteType) (*RequestView, error) {
	if !voteType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid vote type %q", voteType))
	}
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	hasVoted, err := s.ledger.HasVoted(ctx, req.ID, userID)
	if err != nil {
		return nil, internalError(err, "check previous vote")
	}
	resident, err := s.members.Repository().IsResidentOf(ctx, userID, req.SocietyID)
	if err != nil {
		return nil, internalError(err, "check voter residency")
	}
	if err := checkEligibility(req, userID, voterFacts{hasVoted: hasVoted, residentOfSociety: resident}, s.now()); err != nil {
		if errors.Is(err, ErrExpired) {
			if _, evalErr := s.evaluate(ctx, req); evalErr != nil {
				s.logg.Error(ctx, "evaluate expired request", evalErr)
			}
		}
		return nil, domainError(err)
	}

	if _, err := s.ledger.Cast(ctx, req.ID, userID, voteType); err != nil {
		if errors.Is(err, ErrDuplicateVote) {
			return nil, domainError(ErrDuplicateVote)
		}
		return nil, internalError(err, "record vote")
	}
	s.metrics.IncVote(string(voteType))
	s.logg.Debug(s.logg.WithVote(s.requestLogContext(ctx, req), userID.String(), string(voteType)), "vote recorded")

	evaluated, err := s.evaluate(ctx, req)
	if err != nil {
		return nil, internalError(err, "evaluate voting request")
	}
	return s.view(ctx, evaluated, userID)
}

// ListPending shows a resident the open requests of their societies that they
// did not create. Anyone else gets an empty list.
func (s *service) ListPending(ctx context.Context, userID uuid.UUID) ([]RequestView, error) {
	actor, err := s.members.ResolveActor(ctx, userID)
	if err != nil {
		return nil, internalError(err, "resolve caller")
	}
	if !actor.IsResident() {
		return []RequestView{}, nil
	}

	societyIDs, err := s.members.Repository().ListProfileSocietyIDs(ctx, actor.ProfileID)
	if err != nil {
		return nil, internalError(err, "list caller societies")
	}
	rows, err := s.requests.ListPendingInSocieties(ctx, societyIDs, userID)
	if err != nil {
		return nil, internalError(err, "list pending requests")
	}

	open := make([]models.VotingRequest, 0, len(rows))
	for i := range rows {
		evaluated, err := s.evaluate(ctx, &rows[i])
		if err != nil {
			return nil, internalError(err, "evaluate voting request")
		}
		if evaluated.Status == enums.VotingRequestStatusPending {
			open = append(open, *evaluated)
		}
	}
	return s.views(ctx, open, userID)
}

// ListInitiatedBy returns every request the caller created, newest first.
func (s *service) ListInitiatedBy(ctx context.Context, userID uuid.UUID) ([]RequestView, error) {
	rows, err := s.requests.ListByInitiator(ctx, userID)
	if err != nil {
		return nil, internalError(err, "list initiated requests")
	}
	for i := range rows {
		if rows[i].Status != enums.VotingRequestStatusPending {
			continue
		}
		evaluated, err := s.evaluate(ctx, &rows[i])
		if err != nil {
			return nil, internalError(err, "evaluate voting request")
		}
		rows[i] = *evaluated
	}
	return s.views(ctx, rows, userID)
}

// GetRequest shows a request to its initiator and to residents of its
// society. Everyone else gets ErrRequestNotFound.
func (s *service) GetRequest(ctx context.Context, requestID, userID uuid.UUID) (*RequestView, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.InitiatedByID != userID {
		resident, err := s.members.Repository().IsResidentOf(ctx, userID, req.SocietyID)
		if err != nil {
			return nil, internalError(err, "check caller residency")
		}
		if !resident {
			return nil, domainError(ErrRequestNotFound)
		}
	}
	evaluated, err := s.evaluate(ctx, req)
	if err != nil {
		return nil, internalError(err, "evaluate voting request")
	}
	return s.view(ctx, evaluated, userID)
}

// SweepExpired evaluates pending requests whose window has closed. Thresholds
// still win over expiry. Failures are collected and the sweep carries on.
func (s *service) SweepExpired(ctx context.Context, limit int) (SweepResult, error) {
	result := SweepResult{Resolved: map[enums.VotingRequestStatus]int{}}
	stale, err := s.requests.ListStalePending(ctx, s.now(), limit)
	if err != nil {
		return result, internalError(err, "list stale requests")
	}
	result.Scanned = len(stale)

	var errs error
	for i := range stale {
		if err := ctx.Err(); err != nil {
			return result, multierr.Append(errs, err)
		}
		evaluated, err := s.evaluate(ctx, &stale[i])
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("evaluate %s: %w", stale[i].ID, err))
			continue
		}
		if evaluated.Status != enums.VotingRequestStatusPending {
			result.Resolved[evaluated.Status]++
		}
	}
	return result, errs
}

func (s *service) load(ctx context.Context, requestID uuid.UUID) (*models.VotingRequest, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainError(ErrRequestNotFound)
		}
		return nil, internalError(err, "load voting request")
	}
	return req, nil
}

type transition struct {
	from              enums.VotingRequestStatus
	to                enums.VotingRequestStatus
	tally             Tally
	sideEffectApplied bool
}

// evaluate re-reads the tally and, if a threshold or the deadline has been
// crossed, moves the request out of pending. The status write, the approval
// side effect and the resolved event commit together, and only for the writer
// whose compare-and-set won.
func (s *service) evaluate(ctx context.Context, req *models.VotingRequest) (*models.VotingRequest, error) {
	if req.Status != enums.VotingRequestStatusPending {
		return req, nil
	}

	var (
		result  = req
		applied *transition
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		now := s.now()
		tally, err := s.ledger.WithTx(tx).Count(ctx, req.ID)
		if err != nil {
			return fmt.Errorf("count votes: %w", err)
		}
		next := Decide(req.Status, tally, req.ExpiryTime, now)
		if next == enums.VotingRequestStatusPending {
			return nil
		}

		requests := s.requests.WithTx(tx)
		won, err := requests.CompareAndSetStatus(ctx, req.ID, next, now)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if !won {
			current, err := requests.FindByID(ctx, req.ID)
			if err != nil {
				return fmt.Errorf("reload request: %w", err)
			}
			result = current
			return nil
		}

		t := &transition{from: req.Status, to: next, tally: tally}
		if next == enums.VotingRequestStatusApproved {
			t.sideEffectApplied, err = s.applyApproval(ctx, tx, req)
			if err != nil {
				return fmt.Errorf("apply approval: %w", err)
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVotingRequestResolved,
			AggregateType: enums.AggregateVotingRequest,
			AggregateID:   req.ID,
			OccurredAt:    now,
			Data: payloads.VotingRequestResolvedEvent{
				VotingRequestID:   req.ID,
				RequestType:       req.RequestType,
				SocietyID:         req.SocietyID,
				Status:            next,
				ApprovedVotes:     tally.Approved,
				RejectedVotes:     tally.Rejected,
				SideEffectApplied: t.sideEffectApplied,
				ResolvedAt:        now,
			},
		}); err != nil {
			return fmt.Errorf("emit resolved event: %w", err)
		}

		updated := *req
		updated.Status = next
		updated.UpdatedAt = now
		result = &updated
		applied = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if applied != nil {
		s.recordTransition(ctx, req, applied)
	}
	return result, nil
}

// applyApproval grants the membership or listing. A vanished target is
// reported as not applied rather than failing the transition.
func (s *service) applyApproval(ctx context.Context, tx *gorm.DB, req *models.VotingRequest) (bool, error) {
	registry := s.members.Repository().WithTx(tx)
	switch req.RequestType {
	case enums.VotingRequestTypeResidentJoin:
		if req.ResidentUserID == nil {
			return false, nil
		}
		profile, err := registry.FindProfileByUserID(ctx, *req.ResidentUserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, registry.AddProfileSociety(ctx, profile.ID, req.SocietyID)

	case enums.VotingRequestTypeProviderList:
		if req.ServiceProviderID == nil {
			return false, nil
		}
		provider, err := registry.FindProviderByID(ctx, *req.ServiceProviderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if err := registry.AddProviderSociety(ctx, provider.ID, req.SocietyID); err != nil {
			return false, err
		}
		return true, registry.MarkProviderApproved(ctx, provider.ID)
	}
	return false, fmt.Errorf("unknown request type %q", req.RequestType)
}

func (s *service) recordTransition(ctx context.Context, req *models.VotingRequest, t *transition) {
	s.metrics.IncTransition(string(req.RequestType), string(t.to))

	logCtx := s.logg.WithTally(s.requestLogContext(ctx, req), t.tally.Approved, t.tally.Rejected)
	logCtx = s.logg.WithFields(logCtx, map[string]any{"from": t.from, "to": t.to})
	if t.to == enums.VotingRequestStatusApproved && !t.sideEffectApplied {
		warnCtx := s.logg.WithField(logCtx, "reason", Reason(ErrSideEffectTargetMissing))
		s.logg.Warn(warnCtx, "approval side effect skipped")
	}
	s.logg.Info(logCtx, "voting request resolved")
}

func initiatorRole(requestType enums.VotingRequestType) outbox.ActorRole {
	if requestType == enums.VotingRequestTypeProviderList {
		return outbox.ActorProvider
	}
	return outbox.ActorResident
}

func (s *service) requestLogContext(ctx context.Context, req *models.VotingRequest) context.Context {
	return s.logg.WithVotingRequest(ctx, req.ID.String(), string(req.RequestType), req.SocietyID.String())
}

func (s *service) view(ctx context.Context, req *models.VotingRequest, userID uuid.UUID) (*RequestView, error) {
	views, err := s.views(ctx, []models.VotingRequest{*req}, userID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *service) views(ctx context.Context, reqs []models.VotingRequest, userID uuid.UUID) ([]RequestView, error) {
	ids := make([]uuid.UUID, len(reqs))
	for i, req := range reqs {
		ids[i] = req.ID
	}
	tallies, err := s.ledger.CountMany(ctx, ids)
	if err != nil {
		return nil, internalError(err, "count votes")
	}
	voted, err := s.ledger.VotedOn(ctx, userID, ids)
	if err != nil {
		return nil, internalError(err, "load caller votes")
	}

	views := make([]RequestView, len(reqs))
	for i, req := range reqs {
		views[i] = toView(req, tallies[req.ID], voted[req.ID])
	}
	return views, nil
}
