package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formgate/internal/model"
)

func TestFindExistingMatchesAuthenticatedByEmail(t *testing.T) {
	fb := newFakeBackend(sampleForm())
	fb.responses = []model.SubmittedResponse{
		{ID: "r-1", FormID: "form-1", Respondent: model.Respondent{Email: "other@x.com", IPAddress: "10.0.0.1"}},
		{ID: "r-2", FormID: "form-1", Respondent: model.Respondent{Email: "Alice@X.com", IPAddress: "10.0.0.2"}},
	}
	svc := NewDetectorService(fb.start(t))

	identity := model.AuthenticatedIdentity("alice@x.com", "Alice", "uid-a", "10.0.0.9")
	prior := svc.FindExisting(context.Background(), "form-1", identity)

	require.NotNil(t, prior)
	assert.Equal(t, "r-2", prior.ID, "email match is case-insensitive")
}

func TestFindExistingAuthenticatedIgnoresIPMatches(t *testing.T) {
	fb := newFakeBackend(sampleForm())
	fb.responses = []model.SubmittedResponse{
		{ID: "r-1", FormID: "form-1", Respondent: model.Respondent{IPAddress: "10.0.0.9"}},
	}
	svc := NewDetectorService(fb.start(t))

	identity := model.AuthenticatedIdentity("alice@x.com", "Alice", "uid-a", "10.0.0.9")
	assert.Nil(t, svc.FindExisting(context.Background(), "form-1", identity))
}

func TestFindExistingMatchesAnonymousByAddress(t *testing.T) {
	fb := newFakeBackend(sampleForm())
	fb.responses = []model.SubmittedResponse{
		{ID: "r-1", FormID: "form-1", Respondent: model.Respondent{Email: "other@x.com", IPAddress: "10.0.0.1"}},
		{ID: "r-2", FormID: "form-1", Respondent: model.Respondent{IPAddress: "10.0.0.9"}},
	}
	svc := NewDetectorService(fb.start(t))

	prior := svc.FindExisting(context.Background(), "form-1", model.AnonymousIdentity("10.0.0.9"))

	require.NotNil(t, prior)
	assert.Equal(t, "r-2", prior.ID)
}

func TestFindExistingFirstMatchWins(t *testing.T) {
	fb := newFakeBackend(sampleForm())
	fb.responses = []model.SubmittedResponse{
		{ID: "r-1", FormID: "form-1", Respondent: model.Respondent{IPAddress: "10.0.0.9"}},
		{ID: "r-2", FormID: "form-1", Respondent: model.Respondent{IPAddress: "10.0.0.9"}},
	}
	svc := NewDetectorService(fb.start(t))

	prior := svc.FindExisting(context.Background(), "form-1", model.AnonymousIdentity("10.0.0.9"))

	require.NotNil(t, prior)
	assert.Equal(t, "r-1", prior.ID, "backend order decides among duplicates")
}

func TestFindExistingEmptyAddressNeverMatches(t *testing.T) {
	fb := newFakeBackend(sampleForm())
	fb.responses = []model.SubmittedResponse{
		{ID: "r-1", FormID: "form-1", Respondent: model.Respondent{IPAddress: ""}},
	}
	svc := NewDetectorService(fb.start(t))

	assert.Nil(t, svc.FindExisting(context.Background(), "form-1", model.AnonymousIdentity("")))
}

func TestFindExistingFailsOpenAndNotifiesOwner(t *testing.T) {
	fb := newFakeBackend(sampleForm())
	fb.listStatus = http.StatusInternalServerError
	svc := NewDetectorService(fb.start(t))
	bc := &recordingBroadcaster{}
	svc.SetBroadcaster(bc)

	prior := svc.FindExisting(context.Background(), "form-1", model.AnonymousIdentity("10.0.0.9"))

	assert.Nil(t, prior, "backend failure allows a fresh submission")
	events := bc.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, "detector_error", events[0].Type)
	assert.Equal(t, "form-1", events[0].FormID)
}
