package voting

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/societyhub-backend/pkg/db/models"
	"github.com/angelmondragon/societyhub-backend/pkg/enums"
)

func TestDecide(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	expiry := expiryFor(created)

	cases := []struct {
		name   string
		status enums.VotingRequestStatus
		tally  Tally
		now    time.Time
		want   enums.VotingRequestStatus
	}{
		{"no votes inside window", enums.VotingRequestStatusPending, Tally{}, created, enums.VotingRequestStatusPending},
		{"one short of approval", enums.VotingRequestStatusPending, Tally{Approved: 4, Rejected: 2}, created, enums.VotingRequestStatusPending},
		{"approval threshold", enums.VotingRequestStatusPending, Tally{Approved: 5}, created, enums.VotingRequestStatusApproved},
		{"rejection threshold", enums.VotingRequestStatusPending, Tally{Rejected: 3}, created, enums.VotingRequestStatusRejected},
		{"approval beats rejection", enums.VotingRequestStatusPending, Tally{Approved: 5, Rejected: 3}, created, enums.VotingRequestStatusApproved},
		{"threshold beats expiry", enums.VotingRequestStatusPending, Tally{Rejected: 3}, expiry.Add(time.Hour), enums.VotingRequestStatusRejected},
		{"exactly at expiry stays pending", enums.VotingRequestStatusPending, Tally{Approved: 2}, expiry, enums.VotingRequestStatusPending},
		{"past expiry", enums.VotingRequestStatusPending, Tally{Approved: 2}, expiry.Add(time.Second), enums.VotingRequestStatusExpired},
		{"approved is final", enums.VotingRequestStatusApproved, Tally{Rejected: 9}, expiry.Add(time.Hour), enums.VotingRequestStatusApproved},
		{"rejected is final", enums.VotingRequestStatusRejected, Tally{Approved: 9}, created, enums.VotingRequestStatusRejected},
		{"expired is final", enums.VotingRequestStatusExpired, Tally{Approved: 9}, created, enums.VotingRequestStatusExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.status, tc.tally, expiry, tc.now); got != tc.want {
				t.Fatalf("Decide = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestExpiryForUsesVotingWindow(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if got := expiryFor(created); !got.Equal(created.Add(5 * time.Minute)) {
		t.Fatalf("expected expiry five minutes after creation, got %s", got)
	}
}

func TestCheckEligibilityOrder(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	initiator := uuid.New()
	voter := uuid.New()

	pending := func() *models.VotingRequest {
		return &models.VotingRequest{
			InitiatedByID: initiator,
			Status:        enums.VotingRequestStatusPending,
			CreatedAt:     created,
			ExpiryTime:    expiryFor(created),
		}
	}
	closed := pending()
	closed.Status = enums.VotingRequestStatusApproved
	late := created.Add(VotingWindow + time.Second)

	cases := []struct {
		name  string
		req   *models.VotingRequest
		voter uuid.UUID
		facts voterFacts
		now   time.Time
		want  error
	}{
		{"eligible", pending(), voter, voterFacts{residentOfSociety: true}, created, nil},
		{"already voted wins over everything", closed, initiator, voterFacts{hasVoted: true}, late, ErrAlreadyVoted},
		{"closed before expiry", closed, voter, voterFacts{residentOfSociety: true}, late, ErrNotPending},
		{"expired before residency", pending(), voter, voterFacts{}, late, ErrExpired},
		{"non resident", pending(), voter, voterFacts{}, created, ErrNotEligibleVoter},
		{"non resident initiator", pending(), initiator, voterFacts{}, created, ErrNotEligibleVoter},
		{"resident initiator", pending(), initiator, voterFacts{residentOfSociety: true}, created, ErrSelfVote},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkEligibility(tc.req, tc.voter, tc.facts, tc.now)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected eligible, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
