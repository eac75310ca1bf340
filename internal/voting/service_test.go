package voting

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/societyhub-backend/internal/memberships"
	"github.com/angelmondragon/societyhub-backend/internal/societies"
	dbpkg "github.com/angelmondragon/societyhub-backend/pkg/db"
	"github.com/angelmondragon/societyhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/societyhub-backend/pkg/db/models"
	"github.com/angelmondragon/societyhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/societyhub-backend/pkg/errors"
	"github.com/angelmondragon/societyhub-backend/pkg/logger"
	"github.com/angelmondragon/societyhub-backend/pkg/metrics"
	"github.com/angelmondragon/societyhub-backend/pkg/outbox"
	"github.com/angelmondragon/societyhub-backend/pkg/outbox/payloads"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type harness struct {
	conn   *gorm.DB
	svc    Service
	clock  *testClock
	events *outbox.Repository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := dbtest.Open(t)
	members, err := memberships.NewService(memberships.NewRepository(conn))
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	events := outbox.NewRepository(conn)
	logg := logger.New(logger.Options{ServiceName: "voting-test", Output: io.Discard})

	svc, err := NewService(ServiceParams{
		DB:          dbpkg.Wrap(conn),
		Requests:    NewRepository(conn),
		Ledger:      NewLedger(conn),
		Memberships: members,
		Societies:   societies.NewRepository(conn),
		Outbox:      outbox.NewService(events, logg),
		Metrics:     metrics.NewVotingMetrics(prometheus.NewRegistry()),
		Logger:      logg,
		Now:         clock.Now,
	})
	require.NoError(t, err)
	return &harness{conn: conn, svc: svc, clock: clock, events: events}
}

func (h *harness) residents(t *testing.T, society models.Society, n int) []models.User {
	t.Helper()
	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		user, _ := dbtest.CreateResident(t, h.conn, society.ID)
		users = append(users, user)
	}
	return users
}

func (h *harness) vote(t *testing.T, requestID uuid.UUID, voters []models.User, voteType enums.VoteType) *RequestView {
	t.Helper()
	var view *RequestView
	for _, voter := range voters {
		var err error
		view, err = h.svc.CastVote(context.Background(), requestID, voter.ID, voteType)
		require.NoError(t, err)
	}
	return view
}

func (h *harness) status(t *testing.T, requestID uuid.UUID) enums.VotingRequestStatus {
	t.Helper()
	var req models.VotingRequest
	require.NoError(t, h.conn.Where("id = ?", requestID).Take(&req).Error)
	return req.Status
}

func (h *harness) resolvedEvents(t *testing.T, requestID uuid.UUID) []payloads.VotingRequestResolvedEvent {
	t.Helper()
	rows, err := h.events.ListForAggregate(context.Background(), requestID)
	require.NoError(t, err)

	var out []payloads.VotingRequestResolvedEvent
	for _, row := range rows {
		if row.EventType != enums.EventVotingRequestResolved {
			continue
		}
		var envelope outbox.PayloadEnvelope
		require.NoError(t, json.Unmarshal(row.Payload, &envelope))
		var event payloads.VotingRequestResolvedEvent
		require.NoError(t, json.Unmarshal(envelope.Data, &event))
		out = append(out, event)
	}
	return out
}

func requireDomainError(t *testing.T, err error, sentinel error, code pkgerrors.Code) {
	t.Helper()
	require.ErrorIs(t, err, sentinel)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, code, typed.Code())
	assert.NotEmpty(t, Reason(err))
}

func TestResidentJoinApprovedAtFifthApproval(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	applicant, profile := dbtest.CreateResident(t, h.conn)
	voters := h.residents(t, society, 5)

	req, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.VotingRequestStatusPending, req.Status)
	assert.Equal(t, h.clock.now.Add(VotingWindow), req.ExpiryTime)
	require.NotNil(t, req.ResidentUserID)
	assert.Equal(t, applicant.ID, *req.ResidentUserID)

	view := h.vote(t, req.ID, voters[:4], enums.VoteTypeApprove)
	assert.Equal(t, enums.VotingRequestStatusPending, view.Status)
	assert.EqualValues(t, 4, view.ApprovedVotesCount)

	view = h.vote(t, req.ID, voters[4:], enums.VoteTypeApprove)
	assert.Equal(t, enums.VotingRequestStatusApproved, view.Status)
	assert.EqualValues(t, 5, view.ApprovedVotesCount)
	assert.True(t, view.HasVoted)

	member, err := memberships.NewRepository(h.conn).IsProfileMember(ctx, profile.ID, society.ID)
	require.NoError(t, err)
	assert.True(t, member)

	events := h.resolvedEvents(t, req.ID)
	require.Len(t, events, 1)
	assert.Equal(t, enums.VotingRequestStatusApproved, events[0].Status)
	assert.True(t, events[0].SideEffectApplied)
	assert.EqualValues(t, 5, events[0].ApprovedVotes)
}

func TestProviderListingRejectedAtThirdRejection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	owner, provider := dbtest.CreateProvider(t, h.conn)
	voters := h.residents(t, society, 3)

	req, err := h.svc.Initiate(ctx, enums.VotingRequestTypeProviderList, society.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, req.ServiceProviderID)
	assert.Equal(t, provider.ID, *req.ServiceProviderID)

	view := h.vote(t, req.ID, voters[:2], enums.VoteTypeReject)
	assert.Equal(t, enums.VotingRequestStatusPending, view.Status)

	view = h.vote(t, req.ID, voters[2:], enums.VoteTypeReject)
	assert.Equal(t, enums.VotingRequestStatusRejected, view.Status)
	assert.EqualValues(t, 3, view.RejectedVotesCount)

	registry := memberships.NewRepository(h.conn)
	listed, err := registry.IsProviderListed(ctx, provider.ID, society.ID)
	require.NoError(t, err)
	assert.False(t, listed)

	reloaded, err := registry.FindProviderByID(ctx, provider.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsApproved)
}

func TestProviderListingApprovalListsAndApprovesProvider(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	owner, provider := dbtest.CreateProvider(t, h.conn)
	voters := h.residents(t, society, 7)

	req, err := h.svc.Initiate(ctx, enums.VotingRequestTypeProviderList, society.ID, owner.ID)
	require.NoError(t, err)

	h.vote(t, req.ID, voters[:2], enums.VoteTypeReject)
	view := h.vote(t, req.ID, voters[2:], enums.VoteTypeApprove)
	assert.Equal(t, enums.VotingRequestStatusApproved, view.Status)

	registry := memberships.NewRepository(h.conn)
	listed, err := registry.IsProviderListed(ctx, provider.ID, society.ID)
	require.NoError(t, err)
	assert.True(t, listed)

	reloaded, err := registry.FindProviderByID(ctx, provider.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsApproved)
}

func TestRequestExpiresOnRead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	applicant, _ := dbtest.CreateResident(t, h.conn)
	voters := h.residents(t, society, 2)

	req, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, applicant.ID)
	require.NoError(t, err)
	h.vote(t, req.ID, voters, enums.VoteTypeApprove)

	h.clock.Advance(VotingWindow)
	view, err := h.svc.GetRequest(ctx, req.ID, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.VotingRequestStatusPending, view.Status)

	h.clock.Advance(time.Second)
	view, err = h.svc.GetRequest(ctx, req.ID, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.VotingRequestStatusExpired, view.Status)
	assert.EqualValues(t, 2, view.ApprovedVotesCount)
	assert.Equal(t, enums.VotingRequestStatusExpired, h.status(t, req.ID))

	events := h.resolvedEvents(t, req.ID)
	require.Len(t, events, 1)
	assert.Equal(t, enums.VotingRequestStatusExpired, events[0].Status)
	assert.False(t, events[0].SideEffectApplied)
}

func TestVoteAfterExpiryFailsAndSettlesRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	applicant, _ := dbtest.CreateResident(t, h.conn)
	voters := h.residents(t, society, 1)

	req, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, applicant.ID)
	require.NoError(t, err)

	h.clock.Advance(VotingWindow + time.Second)
	_, err = h.svc.CastVote(ctx, req.ID, voters[0].ID, enums.VoteTypeApprove)
	requireDomainError(t, err, ErrExpired, pkgerrors.CodeStateConflict)
	assert.Equal(t, enums.VotingRequestStatusExpired, h.status(t, req.ID))

	_, err = h.svc.CastVote(ctx, req.ID, voters[0].ID, enums.VoteTypeApprove)
	requireDomainError(t, err, ErrNotPending, pkgerrors.CodeStateConflict)
}

func TestCastVoteEligibility(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	other := dbtest.CreateSociety(t, h.conn, "Birch Row")
	applicant, applicantProfile := dbtest.CreateResident(t, h.conn)
	voter, _ := dbtest.CreateResident(t, h.conn, society.ID)
	outsider, _ := dbtest.CreateResident(t, h.conn, other.ID)
	providerUser, _ := dbtest.CreateProvider(t, h.conn, society.ID)

	req, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, applicant.ID)
	require.NoError(t, err)

	_, err = h.svc.CastVote(ctx, req.ID, outsider.ID, enums.VoteTypeApprove)
	requireDomainError(t, err, ErrNotEligibleVoter, pkgerrors.CodeForbidden)

	_, err = h.svc.CastVote(ctx, req.ID, providerUser.ID, enums.VoteTypeApprove)
	requireDomainError(t, err, ErrNotEligibleVoter, pkgerrors.CodeForbidden)

	_, err = h.svc.CastVote(ctx, req.ID, applicant.ID, enums.VoteTypeApprove)
	requireDomainError(t, err, ErrNotEligibleVoter, pkgerrors.CodeForbidden)

	require.NoError(t, h.conn.Create(&models.ProfileSociety{ProfileID: applicantProfile.ID, SocietyID: society.ID}).Error)
	_, err = h.svc.CastVote(ctx, req.ID, applicant.ID, enums.VoteTypeApprove)
	requireDomainError(t, err, ErrSelfVote, pkgerrors.CodeForbidden)

	_, err = h.svc.CastVote(ctx, req.ID, voter.ID, enums.VoteType("abstain"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	view, err := h.svc.CastVote(ctx, req.ID, voter.ID, enums.VoteTypeReject)
	require.NoError(t, err)
	assert.EqualValues(t, 1, view.RejectedVotesCount)

	_, err = h.svc.CastVote(ctx, req.ID, voter.ID, enums.VoteTypeApprove)
	requireDomainError(t, err, ErrAlreadyVoted, pkgerrors.CodeConflict)

	_, err = h.svc.CastVote(ctx, uuid.New(), voter.ID, enums.VoteTypeApprove)
	requireDomainError(t, err, ErrRequestNotFound, pkgerrors.CodeNotFound)

	tally, err := NewLedger(h.conn).Count(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, Tally{Rejected: 1}, tally)
}

func TestApprovalWithMissingTargetStillApproves(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	applicant, profile := dbtest.CreateResident(t, h.conn)
	voters := h.residents(t, society, 5)

	req, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, applicant.ID)
	require.NoError(t, err)

	require.NoError(t, h.conn.Delete(&models.Profile{}, "id = ?", profile.ID).Error)

	view := h.vote(t, req.ID, voters, enums.VoteTypeApprove)
	assert.Equal(t, enums.VotingRequestStatusApproved, view.Status)

	var joined int64
	require.NoError(t, h.conn.Model(&models.ProfileSociety{}).Where("society_id = ?", society.ID).Count(&joined).Error)
	assert.EqualValues(t, 5, joined)

	events := h.resolvedEvents(t, req.ID)
	require.Len(t, events, 1)
	assert.Equal(t, enums.VotingRequestStatusApproved, events[0].Status)
	assert.False(t, events[0].SideEffectApplied)
}

func TestTerminalRequestIsNotReevaluated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	applicant, _ := dbtest.CreateResident(t, h.conn)
	voters := h.residents(t, society, 6)

	req, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, applicant.ID)
	require.NoError(t, err)
	h.vote(t, req.ID, voters[:5], enums.VoteTypeApprove)

	_, err = h.svc.CastVote(ctx, req.ID, voters[5].ID, enums.VoteTypeReject)
	requireDomainError(t, err, ErrNotPending, pkgerrors.CodeStateConflict)

	h.clock.Advance(time.Hour)
	for i := 0; i < 2; i++ {
		view, err := h.svc.GetRequest(ctx, req.ID, voters[0].ID)
		require.NoError(t, err)
		assert.Equal(t, enums.VotingRequestStatusApproved, view.Status)
		assert.True(t, view.HasVoted)
	}
	assert.Len(t, h.resolvedEvents(t, req.ID), 1)
}

func TestInitiateResidentJoinPreconditions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	other := dbtest.CreateSociety(t, h.conn, "Birch Row")
	member, _ := dbtest.CreateResident(t, h.conn, society.ID)
	applicant, _ := dbtest.CreateResident(t, h.conn)
	providerUser, _ := dbtest.CreateProvider(t, h.conn)

	_, err := h.svc.Initiate(ctx, enums.VotingRequestType("society_merge"), society.ID, applicant.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, uuid.New(), applicant.ID)
	requireDomainError(t, err, ErrSocietyNotFound, pkgerrors.CodeNotFound)

	_, err = h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, providerUser.ID)
	requireDomainError(t, err, ErrNotResident, pkgerrors.CodeForbidden)

	_, err = h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, member.ID)
	requireDomainError(t, err, ErrAlreadyMember, pkgerrors.CodeConflict)

	_, err = h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, applicant.ID)
	require.NoError(t, err)

	_, err = h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, other.ID, applicant.ID)
	requireDomainError(t, err, ErrDuplicatePendingRequest, pkgerrors.CodeConflict)

	rows, err := h.events.FetchUnpublished(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventVotingRequestCreated, rows[0].EventType)
}

func TestInitiateProviderListingPreconditions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	other := dbtest.CreateSociety(t, h.conn, "Birch Row")
	listedOwner, _ := dbtest.CreateProvider(t, h.conn, society.ID)
	owner, _ := dbtest.CreateProvider(t, h.conn)
	resident, _ := dbtest.CreateResident(t, h.conn)

	_, err := h.svc.Initiate(ctx, enums.VotingRequestTypeProviderList, society.ID, resident.ID)
	requireDomainError(t, err, ErrNotProvider, pkgerrors.CodeForbidden)

	_, err = h.svc.Initiate(ctx, enums.VotingRequestTypeProviderList, society.ID, listedOwner.ID)
	requireDomainError(t, err, ErrAlreadyListed, pkgerrors.CodeConflict)

	_, err = h.svc.Initiate(ctx, enums.VotingRequestTypeProviderList, society.ID, owner.ID)
	require.NoError(t, err)

	_, err = h.svc.Initiate(ctx, enums.VotingRequestTypeProviderList, society.ID, owner.ID)
	requireDomainError(t, err, ErrDuplicatePendingRequest, pkgerrors.CodeConflict)

	_, err = h.svc.Initiate(ctx, enums.VotingRequestTypeProviderList, other.ID, owner.ID)
	require.NoError(t, err)
}

func TestInitiateAfterLapsedRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	applicant, _ := dbtest.CreateResident(t, h.conn)

	first, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, applicant.ID)
	require.NoError(t, err)

	h.clock.Advance(VotingWindow + time.Second)
	second, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, applicant.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, enums.VotingRequestStatusExpired, h.status(t, first.ID))
	assert.Equal(t, enums.VotingRequestStatusPending, h.status(t, second.ID))
}

func TestListPending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	home := dbtest.CreateSociety(t, h.conn, "Maple Court")
	away := dbtest.CreateSociety(t, h.conn, "Birch Row")
	reader, _ := dbtest.CreateResident(t, h.conn, home.ID)

	lapsedApplicant, _ := dbtest.CreateResident(t, h.conn)
	lapsed := seedRequest(t, h.conn, home, lapsedApplicant, h.clock.now.Add(-10*time.Minute))
	seedRequest(t, h.conn, home, reader, h.clock.now.Add(-time.Minute))

	older, _ := dbtest.CreateResident(t, h.conn)
	newer, _ := dbtest.CreateResident(t, h.conn)
	elsewhere, _ := dbtest.CreateResident(t, h.conn)

	olderReq, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, home.ID, older.ID)
	require.NoError(t, err)
	h.clock.Advance(time.Minute)
	newerReq, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, home.ID, newer.ID)
	require.NoError(t, err)
	_, err = h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, away.ID, elsewhere.ID)
	require.NoError(t, err)

	_, err = h.svc.CastVote(ctx, olderReq.ID, reader.ID, enums.VoteTypeApprove)
	require.NoError(t, err)

	views, err := h.svc.ListPending(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, newerReq.ID, views[0].ID)
	assert.False(t, views[0].HasVoted)
	assert.Equal(t, olderReq.ID, views[1].ID)
	assert.True(t, views[1].HasVoted)
	assert.EqualValues(t, 1, views[1].ApprovedVotesCount)

	assert.Equal(t, enums.VotingRequestStatusExpired, h.status(t, lapsed.ID))

	providerUser, _ := dbtest.CreateProvider(t, h.conn, home.ID)
	views, err = h.svc.ListPending(ctx, providerUser.ID)
	require.NoError(t, err)
	assert.Empty(t, views)

	nobody := dbtest.CreateUser(t, h.conn)
	views, err = h.svc.ListPending(ctx, nobody.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestListInitiatedBy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := dbtest.CreateSociety(t, h.conn, "Maple Court")
	second := dbtest.CreateSociety(t, h.conn, "Birch Row")
	applicant, _ := dbtest.CreateResident(t, h.conn)

	lapsed, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, first.ID, applicant.ID)
	require.NoError(t, err)
	h.clock.Advance(VotingWindow + time.Second)
	current, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, second.ID, applicant.ID)
	require.NoError(t, err)

	views, err := h.svc.ListInitiatedBy(ctx, applicant.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, current.ID, views[0].ID)
	assert.Equal(t, enums.VotingRequestStatusPending, views[0].Status)
	assert.Equal(t, lapsed.ID, views[1].ID)
	assert.Equal(t, enums.VotingRequestStatusExpired, views[1].Status)

	stranger := dbtest.CreateUser(t, h.conn)
	views, err = h.svc.ListInitiatedBy(ctx, stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestSweepExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	voters := h.residents(t, society, 5)

	idle, _ := dbtest.CreateResident(t, h.conn)
	idleReq := seedRequest(t, h.conn, society, idle, h.clock.now.Add(-10*time.Minute))

	popular, popularProfile := dbtest.CreateResident(t, h.conn)
	popularReq := seedRequest(t, h.conn, society, popular, h.clock.now.Add(-8*time.Minute))
	for _, voter := range voters {
		require.NoError(t, h.conn.Create(&models.Vote{
			RequestID: popularReq.ID,
			VoterID:   voter.ID,
			VoteType:  enums.VoteTypeApprove,
		}).Error)
	}

	fresh, _ := dbtest.CreateResident(t, h.conn)
	freshReq, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, fresh.ID)
	require.NoError(t, err)

	result, err := h.svc.SweepExpired(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Resolved[enums.VotingRequestStatusExpired])
	assert.Equal(t, enums.VotingRequestStatusExpired, h.status(t, idleReq.ID))

	result, err = h.svc.SweepExpired(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Resolved[enums.VotingRequestStatusApproved])
	assert.Equal(t, enums.VotingRequestStatusApproved, h.status(t, popularReq.ID))
	assert.Equal(t, enums.VotingRequestStatusPending, h.status(t, freshReq.ID))

	member, err := memberships.NewRepository(h.conn).IsProfileMember(ctx, popularProfile.ID, society.ID)
	require.NoError(t, err)
	assert.True(t, member)

	result, err = h.svc.SweepExpired(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, result.Scanned)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestStaleEvaluationDoesNotReapplyApproval(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	applicant, profile := dbtest.CreateResident(t, h.conn)
	voters := h.residents(t, society, 5)

	req, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, applicant.ID)
	require.NoError(t, err)

	var stale models.VotingRequest
	require.NoError(t, h.conn.Where("id = ?", req.ID).Take(&stale).Error)

	view := h.vote(t, req.ID, voters, enums.VoteTypeApprove)
	require.Equal(t, enums.VotingRequestStatusApproved, view.Status)

	countJoined := func() int64 {
		var n int64
		require.NoError(t, h.conn.Model(&models.ProfileSociety{}).
			Where("profile_id = ? AND society_id = ?", profile.ID, society.ID).
			Count(&n).Error)
		return n
	}
	require.EqualValues(t, 1, countJoined())

	// with the membership gone, a second approval write would show up as a new row
	require.NoError(t, h.conn.Where("profile_id = ? AND society_id = ?", profile.ID, society.ID).Delete(&models.ProfileSociety{}).Error)

	result, err := h.svc.(*service).evaluate(ctx, &stale)
	require.NoError(t, err)
	assert.Equal(t, enums.VotingRequestStatusApproved, result.Status)

	assert.EqualValues(t, 0, countJoined())
	assert.Len(t, h.resolvedEvents(t, req.ID), 1)
}

// insertCompetingRequest slips row into the same transaction right before the
// service writes its own voting request.
func insertCompetingRequest(t *testing.T, conn *gorm.DB, row models.VotingRequest) {
	t.Helper()
	fired := false
	err := conn.Callback().Create().Before("gorm:create").Register("test:competing_request", func(db *gorm.DB) {
		if fired || db.Statement.Table != "voting_requests" {
			return
		}
		fired = true
		competitor := row
		if err := db.Session(&gorm.Session{NewDB: true}).Create(&competitor).Error; err != nil {
			_ = db.AddError(err)
		}
	})
	require.NoError(t, err)
}

func TestInitiateMapsConcurrentResidentJoinToDuplicate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	other := dbtest.CreateSociety(t, h.conn, "Birch Row")
	applicant, _ := dbtest.CreateResident(t, h.conn)

	residentID := applicant.ID
	insertCompetingRequest(t, h.conn, models.VotingRequest{
		RequestType:    enums.VotingRequestTypeResidentJoin,
		SocietyID:      other.ID,
		InitiatedByID:  applicant.ID,
		ResidentUserID: &residentID,
		Status:         enums.VotingRequestStatusPending,
		ExpiryTime:     expiryFor(h.clock.now),
	})

	_, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, applicant.ID)
	requireDomainError(t, err, ErrDuplicatePendingRequest, pkgerrors.CodeConflict)

	var created int64
	require.NoError(t, h.conn.Model(&models.VotingRequest{}).Where("society_id = ?", society.ID).Count(&created).Error)
	assert.EqualValues(t, 0, created)
	rows, err := h.events.FetchUnpublished(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInitiateMapsConcurrentProviderListingToDuplicate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	owner, provider := dbtest.CreateProvider(t, h.conn)

	providerID := provider.ID
	insertCompetingRequest(t, h.conn, models.VotingRequest{
		RequestType:       enums.VotingRequestTypeProviderList,
		SocietyID:         society.ID,
		InitiatedByID:     owner.ID,
		ServiceProviderID: &providerID,
		Status:            enums.VotingRequestStatusPending,
		ExpiryTime:        expiryFor(h.clock.now),
	})

	_, err := h.svc.Initiate(ctx, enums.VotingRequestTypeProviderList, society.ID, owner.ID)
	requireDomainError(t, err, ErrDuplicatePendingRequest, pkgerrors.CodeConflict)

	rows, err := h.events.FetchUnpublished(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetRequestHiddenFromOutsiders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	elsewhere := dbtest.CreateSociety(t, h.conn, "Birch Row")
	applicant, _ := dbtest.CreateResident(t, h.conn)
	member := h.residents(t, society, 1)[0]
	outsider, _ := dbtest.CreateResident(t, h.conn, elsewhere.ID)
	providerUser, _ := dbtest.CreateProvider(t, h.conn, society.ID)

	req, err := h.svc.Initiate(ctx, enums.VotingRequestTypeResidentJoin, society.ID, applicant.ID)
	require.NoError(t, err)

	view, err := h.svc.GetRequest(ctx, req.ID, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, view.ID)

	view, err = h.svc.GetRequest(ctx, req.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, view.HasVoted)

	for _, caller := range []uuid.UUID{outsider.ID, providerUser.ID, uuid.New()} {
		_, err = h.svc.GetRequest(ctx, req.ID, caller)
		requireDomainError(t, err, ErrRequestNotFound, pkgerrors.CodeNotFound)
	}
}

func TestEventsRecordActorRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	society := dbtest.CreateSociety(t, h.conn, "Maple Court")
	providerUser, _ := dbtest.CreateProvider(t, h.conn)
	voters := h.residents(t, society, 3)

	view, err := h.svc.Initiate(ctx, enums.VotingRequestTypeProviderList, society.ID, providerUser.ID)
	require.NoError(t, err)
	h.vote(t, view.ID, voters, enums.VoteTypeReject)

	rows, err := h.events.ListForAggregate(ctx, view.ID)
	require.NoError(t, err)
	roles := map[enums.OutboxEventType]outbox.ActorRole{}
	for _, row := range rows {
		var envelope outbox.PayloadEnvelope
		require.NoError(t, json.Unmarshal(row.Payload, &envelope))
		require.NotNil(t, envelope.Actor)
		roles[envelope.EventType] = envelope.Actor.Role
	}
	assert.Equal(t, outbox.ActorProvider, roles[enums.EventVotingRequestCreated])
	assert.Equal(t, outbox.ActorSystem, roles[enums.EventVotingRequestResolved])
}
