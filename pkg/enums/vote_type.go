package enums

import "fmt"

// VoteType maps to the vote_type enum in Postgres.
type VoteType string

const (
	VoteTypeApprove VoteType = "approve"
	VoteTypeReject  VoteType = "reject"
)

var validVoteTypes = []VoteType{
	VoteTypeApprove,
	VoteTypeReject,
}

// String implements fmt.Stringer.
func (v VoteType) String() string {
	return string(v)
}

// IsValid reports whether the value matches the canonical vote_type enum.
func (v VoteType) IsValid() bool {
	for _, candidate := range validVoteTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVoteType converts raw input into VoteType.
func ParseVoteType(value string) (VoteType, error) {
	for _, candidate := range validVoteTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vote type %q", value)
}
