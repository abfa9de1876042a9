package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formgate/internal/model"
	"formgate/internal/session"
)

func TestPreloadFromPriorResponse(t *testing.T) {
	svc := NewDraftService(session.NewMemoryStore())

	prior := &model.SubmittedResponse{
		ID:     "r-1",
		FormID: "form-1",
		Answers: []model.SubmittedAnswer{
			{QuestionID: 1, Type: model.QuestionTypeFreeText, Values: []string{"great service"}},
			{QuestionID: 3, Type: model.QuestionTypeMultiChoice, Values: []string{"a", "b"}},
			{QuestionID: 4, Type: model.QuestionTypeNumericScale, Values: []string{}},
		},
	}

	draft := svc.Preload(prior)

	v, ok := draft.Get(1)
	require.True(t, ok)
	assert.Equal(t, model.AnswerScalar, v.Kind)
	assert.Equal(t, "great service", v.Value)

	v, ok = draft.Get(3)
	require.True(t, ok)
	assert.Equal(t, model.AnswerMulti, v.Kind)
	assert.Equal(t, []string{"a", "b"}, v.Values)

	_, ok = draft.Get(4)
	assert.False(t, ok, "answers without values are not preloaded")
}

func TestPreloadSingleValueMultiChoiceStaysScalar(t *testing.T) {
	svc := NewDraftService(session.NewMemoryStore())

	prior := &model.SubmittedResponse{
		Answers: []model.SubmittedAnswer{
			{QuestionID: 3, Type: model.QuestionTypeMultiChoice, Values: []string{"a"}},
		},
	}

	v, ok := svc.Preload(prior).Get(3)
	require.True(t, ok)
	assert.Equal(t, model.AnswerScalar, v.Kind)
	assert.Equal(t, "a", v.Value)
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewDraftService(session.NewMemoryStore())

	draft := model.NewDraft()
	draft.Set(1, model.QuestionTypeFreeText, model.ScalarAnswer("hello"))
	draft.Set(3, model.QuestionTypeMultiChoice, model.MultiAnswer("a", "b"))

	require.NoError(t, svc.Persist(ctx, "sess-1", "form-1", draft))

	restored, err := svc.Restore(ctx, "sess-1", "form-1")
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, draft.Answers, restored.Answers)

	// Restoring again yields the same draft.
	again, err := svc.Restore(ctx, "sess-1", "form-1")
	require.NoError(t, err)
	assert.Equal(t, restored.Answers, again.Answers)
}

func TestPersistEmptyDraftDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	svc := NewDraftService(session.NewMemoryStore())

	full := model.NewDraft()
	full.Set(1, model.QuestionTypeFreeText, model.ScalarAnswer("keep me"))
	require.NoError(t, svc.Persist(ctx, "sess-1", "form-1", full))

	require.NoError(t, svc.Persist(ctx, "sess-1", "form-1", model.NewDraft()))

	restored, err := svc.Restore(ctx, "sess-1", "form-1")
	require.NoError(t, err)
	require.NotNil(t, restored)
	v, ok := restored.Get(1)
	require.True(t, ok)
	assert.Equal(t, "keep me", v.Value)
}

func TestRestoreAbsentDraftReturnsNil(t *testing.T) {
	svc := NewDraftService(session.NewMemoryStore())
	restored, err := svc.Restore(context.Background(), "sess-1", "form-1")
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestClearRemovesDraft(t *testing.T) {
	ctx := context.Background()
	svc := NewDraftService(session.NewMemoryStore())

	draft := model.NewDraft()
	draft.Set(1, model.QuestionTypeFreeText, model.ScalarAnswer("bye"))
	require.NoError(t, svc.Persist(ctx, "sess-1", "form-1", draft))
	require.NoError(t, svc.Clear(ctx, "sess-1", "form-1"))

	restored, err := svc.Restore(ctx, "sess-1", "form-1")
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestDraftsAreKeyedPerForm(t *testing.T) {
	ctx := context.Background()
	svc := NewDraftService(session.NewMemoryStore())

	a := model.NewDraft()
	a.Set(1, model.QuestionTypeFreeText, model.ScalarAnswer("for form a"))
	b := model.NewDraft()
	b.Set(1, model.QuestionTypeFreeText, model.ScalarAnswer("for form b"))

	require.NoError(t, svc.Persist(ctx, "sess-1", "form-a", a))
	require.NoError(t, svc.Persist(ctx, "sess-1", "form-b", b))

	restored, err := svc.Restore(ctx, "sess-1", "form-a")
	require.NoError(t, err)
	v, _ := restored.Get(1)
	assert.Equal(t, "for form a", v.Value)
}

func TestValidate(t *testing.T) {
	svc := NewDraftService(session.NewMemoryStore())
	form := sampleForm()

	tests := []struct {
		name         string
		fill         func(d *model.ResponseDraft)
		wantFailures []int
	}{
		{
			name:         "empty draft fails required question only",
			fill:         func(d *model.ResponseDraft) {},
			wantFailures: []int{1},
		},
		{
			name: "complete valid draft passes",
			fill: func(d *model.ResponseDraft) {
				d.Set(1, model.QuestionTypeFreeText, model.ScalarAnswer("all good"))
				d.Set(2, model.QuestionTypeSingleChoice, model.ScalarAnswer("yes"))
				d.Set(3, model.QuestionTypeMultiChoice, model.MultiAnswer("a"))
				d.Set(4, model.QuestionTypeNumericScale, model.ScalarAnswer("7"))
			},
			wantFailures: nil,
		},
		{
			name: "numeric answer must parse",
			fill: func(d *model.ResponseDraft) {
				d.Set(1, model.QuestionTypeFreeText, model.ScalarAnswer("ok then"))
				d.Set(4, model.QuestionTypeNumericScale, model.ScalarAnswer("seven"))
			},
			wantFailures: []int{4},
		},
		{
			name: "numeric answer below minimum",
			fill: func(d *model.ResponseDraft) {
				d.Set(1, model.QuestionTypeFreeText, model.ScalarAnswer("ok then"))
				d.Set(4, model.QuestionTypeNumericScale, model.ScalarAnswer("0"))
			},
			wantFailures: []int{4},
		},
		{
			name: "numeric answer above maximum",
			fill: func(d *model.ResponseDraft) {
				d.Set(1, model.QuestionTypeFreeText, model.ScalarAnswer("ok then"))
				d.Set(4, model.QuestionTypeNumericScale, model.ScalarAnswer("11"))
			},
			wantFailures: []int{4},
		},
		{
			name: "free text below minimum length",
			fill: func(d *model.ResponseDraft) {
				d.Set(1, model.QuestionTypeFreeText, model.ScalarAnswer("x"))
			},
			wantFailures: []int{1},
		},
		{
			name: "empty answer to required question",
			fill: func(d *model.ResponseDraft) {
				d.Set(1, model.QuestionTypeFreeText, model.ScalarAnswer(""))
			},
			wantFailures: []int{1},
		},
		{
			name: "optional questions may stay empty",
			fill: func(d *model.ResponseDraft) {
				d.Set(1, model.QuestionTypeFreeText, model.ScalarAnswer("just this one"))
			},
			wantFailures: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := model.NewDraft()
			tt.fill(draft)
			errs := svc.Validate(form, draft)

			var got []int
			for _, e := range errs {
				got = append(got, e.QuestionID)
			}
			assert.Equal(t, tt.wantFailures, got)
		})
	}
}

func TestValidateCountsRunesNotBytes(t *testing.T) {
	svc := NewDraftService(session.NewMemoryStore())
	form := sampleForm()

	draft := model.NewDraft()
	draft.Set(1, model.QuestionTypeFreeText, model.ScalarAnswer("ñé")) // 2 runes, 4 bytes
	assert.Empty(t, svc.Validate(form, draft))
}
