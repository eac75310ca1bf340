package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/societyhub-backend/pkg/errors"
)

type voteBody struct {
	VoteType string `json:"vote_type" validate:"required,oneof=approve reject"`
}

func TestDecodeJSONBody(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
		field   string
	}{
		{name: "valid", body: `{"vote_type":"approve"}`},
		{name: "unknown field", body: `{"vote_type":"approve","weight":2}`, wantErr: true},
		{name: "malformed", body: `{"vote_type":`, wantErr: true},
		{name: "missing", body: `{}`, wantErr: true, field: "vote_type"},
		{name: "not allowed", body: `{"vote_type":"abstain"}`, wantErr: true, field: "vote_type"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dest voteBody
			err := DecodeJSONBody(req, &dest)
			if !tc.wantErr {
				if err != nil || dest.VoteType != "approve" {
					t.Fatalf("expected approve to decode, got %q (err %v)", dest.VoteType, err)
				}
				return
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tc.field != "" {
				details, ok := typed.Details().(map[string]string)
				if !ok {
					t.Fatalf("expected field details, got %T", typed.Details())
				}
				if _, ok := details[tc.field]; !ok {
					t.Fatalf("expected details for %s, got %v", tc.field, details)
				}
			}
		})
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=10&bad=x&big=500", nil)

	if value, err := ParseQueryInt(req, "limit", 20, 1, 100); err != nil || value != 10 {
		t.Fatalf("expected 10, got %d (err %v)", value, err)
	}
	if value, err := ParseQueryInt(req, "absent", 20, 1, 100); err != nil || value != 20 {
		t.Fatalf("expected default 20, got %d (err %v)", value, err)
	}
	if _, err := ParseQueryInt(req, "bad", 20, 1, 100); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
	if _, err := ParseQueryInt(req, "big", 20, 1, 100); err == nil {
		t.Fatalf("expected error for out-of-range value")
	}
}

func TestParsePathUUID(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("requestId", id.String())
	rctx.URLParams.Add("broken", "not-a-uuid")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	if parsed, err := ParsePathUUID(req, "requestId"); err != nil || parsed != id {
		t.Fatalf("expected %s, got %s (err %v)", id, parsed, err)
	}
	if _, err := ParsePathUUID(req, "broken"); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation || err == nil {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryUUID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?service_id="+id.String()+"&bad=nope", nil)

	parsed, err := ParseQueryUUID(req, "service_id")
	if err != nil || parsed == nil || *parsed != id {
		t.Fatalf("expected %s, got %v (err %v)", id, parsed, err)
	}
	parsed, err = ParseQueryUUID(req, "absent")
	if err != nil || parsed != nil {
		t.Fatalf("expected nil for absent key, got %v (err %v)", parsed, err)
	}
	if _, err := ParseQueryUUID(req, "bad"); err == nil || pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
