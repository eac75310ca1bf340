package enums

import "fmt"

// VotingRequestStatus maps to the voting_request_status enum in Postgres.
type VotingRequestStatus string

const (
	VotingRequestStatusPending  VotingRequestStatus = "pending"
	VotingRequestStatusApproved VotingRequestStatus = "approved"
	VotingRequestStatusRejected VotingRequestStatus = "rejected"
	VotingRequestStatusExpired  VotingRequestStatus = "expired"
)

var validVotingRequestStatuses = []VotingRequestStatus{
	VotingRequestStatusPending,
	VotingRequestStatusApproved,
	VotingRequestStatusRejected,
	VotingRequestStatusExpired,
}

// String implements fmt.Stringer.
func (s VotingRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical voting_request_status enum.
func (s VotingRequestStatus) IsValid() bool {
	for _, candidate := range validVotingRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed out of s.
func (s VotingRequestStatus) IsTerminal() bool {
	return s.IsValid() && s != VotingRequestStatusPending
}

// ParseVotingRequestStatus converts raw input into VotingRequestStatus.
func ParseVotingRequestStatus(value string) (VotingRequestStatus, error) {
	for _, candidate := range validVotingRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid voting request status %q", value)
}
