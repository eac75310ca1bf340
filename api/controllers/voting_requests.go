package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/societyhub-backend/api/responses"
	"github.com/angelmondragon/societyhub-backend/api/validators"
	"github.com/angelmondragon/societyhub-backend/internal/voting"
	"github.com/angelmondragon/societyhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/societyhub-backend/pkg/errors"
	"github.com/angelmondragon/societyhub-backend/pkg/logger"
)

type initiateRequest struct {
	SocietyID string `json:"society_id" validate:"required,uuid"`
}

type voteRequest struct {
	VoteType string `json:"vote_type" validate:"required,oneof=approve reject"`
}

// VotingRequestResidentJoin opens a join request for the calling resident.
func VotingRequestResidentJoin(svc voting.Service, logg *logger.Logger) http.HandlerFunc {
	return initiate(svc, logg, enums.VotingRequestTypeResidentJoin)
}

// VotingRequestProviderListing opens a listing request for the caller's provider.
func VotingRequestProviderListing(svc voting.Service, logg *logger.Logger) http.HandlerFunc {
	return initiate(svc, logg, enums.VotingRequestTypeProviderList)
}

func initiate(svc voting.Service, logg *logger.Logger, requestType enums.VotingRequestType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCaller(w, r, logg)
		if !ok {
			return
		}
		var body initiateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		societyID, err := uuid.Parse(body.SocietyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid society_id"))
			return
		}
		view, err := svc.Initiate(r.Context(), requestType, societyID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// VotingRequestsPending lists the open requests the caller can vote on.
func VotingRequestsPending(svc voting.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCaller(w, r, logg)
		if !ok {
			return
		}
		views, err := svc.ListPending(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

func VotingRequestsMine(svc voting.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCaller(w, r, logg)
		if !ok {
			return
		}
		views, err := svc.ListInitiatedBy(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

func VotingRequestDetail(svc voting.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCaller(w, r, logg)
		if !ok {
			return
		}
		requestID, err := validators.ParsePathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.GetRequest(r.Context(), requestID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// VotingRequestVote casts the caller's vote and returns the re-evaluated request.
func VotingRequestVote(svc voting.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCaller(w, r, logg)
		if !ok {
			return
		}
		requestID, err := validators.ParsePathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body voteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithVotingRequestID(ctx, requestID.String())
		}
		view, err := svc.CastVote(ctx, requestID, userID, enums.VoteType(body.VoteType))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
