package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// VotingMetrics counts ballots and request outcomes.
type VotingMetrics struct {
	votes       *prometheus.CounterVec
	transitions *prometheus.CounterVec
	initiated   *prometheus.CounterVec
}

// NewVotingMetrics registers the voting counters. A nil registerer yields a no-op recorder.
func NewVotingMetrics(reg prometheus.Registerer) *VotingMetrics {
	if reg == nil {
		return &VotingMetrics{}
	}
	votes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "voting",
		Name:      "votes_cast_total",
		Help:      "Votes accepted into the ledger.",
	}, []string{"vote_type"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "voting",
		Name:      "transitions_total",
		Help:      "Voting requests that left the pending state, by outcome.",
	}, []string{"request_type", "status"})
	initiated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "voting",
		Name:      "requests_initiated_total",
		Help:      "Voting requests created.",
	}, []string{"request_type"})
	reg.MustRegister(votes, transitions, initiated)
	return &VotingMetrics{votes: votes, transitions: transitions, initiated: initiated}
}

func (m *VotingMetrics) IncVote(voteType string) {
	if m == nil || m.votes == nil {
		return
	}
	m.votes.WithLabelValues(normalizeLabel(voteType)).Inc()
}

func (m *VotingMetrics) IncTransition(requestType, status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(requestType), normalizeLabel(status)).Inc()
}

func (m *VotingMetrics) IncInitiated(requestType string) {
	if m == nil || m.initiated == nil {
		return
	}
	m.initiated.WithLabelValues(normalizeLabel(requestType)).Inc()
}
