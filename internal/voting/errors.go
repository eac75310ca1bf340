package voting

import (
	"errors"

	pkgerrors "github.com/angelmondragon/societyhub-backend/pkg/errors"
)

var (
	ErrDuplicateVote           = errors.New("vote already recorded for this voter")
	ErrAlreadyVoted            = errors.New("voter has already voted on this request")
	ErrNotPending              = errors.New("voting request is no longer pending")
	ErrExpired                 = errors.New("voting request has expired")
	ErrNotEligibleVoter        = errors.New("only residents of the society can vote")
	ErrSelfVote                = errors.New("initiator cannot vote on their own request")
	ErrRequestNotFound         = errors.New("voting request not found")
	ErrSocietyNotFound         = errors.New("society not found")
	ErrNotResident             = errors.New("only residents can request to join a society")
	ErrNotProvider             = errors.New("only service providers can request a listing")
	ErrAlreadyMember           = errors.New("already a member of this society")
	ErrAlreadyListed           = errors.New("already listed in this society")
	ErrDuplicatePendingRequest = errors.New("a pending request already exists")
	ErrSideEffectTargetMissing = errors.New("approval target no longer exists")
)

type errorMapping struct {
	code   pkgerrors.Code
	reason string
}

var errorMappings = map[error]errorMapping{
	ErrDuplicateVote:           {pkgerrors.CodeConflict, "duplicate_vote"},
	ErrAlreadyVoted:            {pkgerrors.CodeConflict, "already_voted"},
	ErrAlreadyMember:           {pkgerrors.CodeConflict, "already_member"},
	ErrAlreadyListed:           {pkgerrors.CodeConflict, "already_listed"},
	ErrDuplicatePendingRequest: {pkgerrors.CodeConflict, "duplicate_pending_request"},
	ErrNotPending:              {pkgerrors.CodeStateConflict, "not_pending"},
	ErrExpired:                 {pkgerrors.CodeStateConflict, "expired"},
	ErrNotEligibleVoter:        {pkgerrors.CodeForbidden, "not_eligible_voter"},
	ErrSelfVote:                {pkgerrors.CodeForbidden, "self_vote"},
	ErrNotResident:             {pkgerrors.CodeForbidden, "not_resident"},
	ErrNotProvider:             {pkgerrors.CodeForbidden, "not_provider"},
	ErrRequestNotFound:         {pkgerrors.CodeNotFound, "request_not_found"},
	ErrSocietyNotFound:         {pkgerrors.CodeNotFound, "society_not_found"},
	ErrSideEffectTargetMissing: {pkgerrors.CodeInternal, "side_effect_target_missing"},
}

// domainError wraps a sentinel in the typed API error that carries its HTTP
// code and reason. errors.Is still matches the sentinel.
func domainError(sentinel error) error {
	mapping, ok := errorMappings[sentinel]
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, sentinel, sentinel.Error())
	}
	return pkgerrors.Wrap(mapping.code, sentinel, sentinel.Error()).WithReason(mapping.reason)
}

// Reason returns the snake_case reason attached to a voting error, or "".
func Reason(err error) string {
	for sentinel, mapping := range errorMappings {
		if errors.Is(err, sentinel) {
			return mapping.reason
		}
	}
	return ""
}

func internalError(err error, message string) error {
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}
