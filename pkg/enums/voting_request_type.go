package enums

import "fmt"

// VotingRequestType maps to the voting_request_type enum in Postgres.
type VotingRequestType string

const (
	VotingRequestTypeResidentJoin VotingRequestType = "resident_join"
	VotingRequestTypeProviderList VotingRequestType = "provider_list"
)

var validVotingRequestTypes = []VotingRequestType{
	VotingRequestTypeResidentJoin,
	VotingRequestTypeProviderList,
}

// String implements fmt.Stringer.
func (t VotingRequestType) String() string {
	return string(t)
}

// IsValid reports whether the value matches the canonical voting_request_type enum.
func (t VotingRequestType) IsValid() bool {
	for _, candidate := range validVotingRequestTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseVotingRequestType converts raw input into VotingRequestType.
func ParseVotingRequestType(value string) (VotingRequestType, error) {
	for _, candidate := range validVotingRequestTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid voting request type %q", value)
}
