package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gradecore/gradecore-api/internal/dto"
	"github.com/gradecore/gradecore-api/internal/models"
)

type fakePromptRepo struct {
	stored    models.Prompt
	createErr error
	updateErr error
	updated   *models.Prompt
}

func (f *fakePromptRepo) Create(ctx context.Context, prompt *models.Prompt) error {
	if f.createErr != nil {
		return f.createErr
	}
	if prompt.ID == 0 {
		prompt.ID = 1
	}
	f.stored = *prompt
	return nil
}

func (f *fakePromptRepo) GetByID(ctx context.Context, id uint, userID uint) (models.Prompt, error) {
	if f.stored.ID != id || f.stored.UserID != userID {
		return models.Prompt{}, gorm.ErrRecordNotFound
	}
	return f.stored, nil
}

func (f *fakePromptRepo) ListByUser(ctx context.Context, userID uint) ([]models.Prompt, error) {
	if f.stored.UserID != userID {
		return nil, nil
	}
	return []models.Prompt{f.stored}, nil
}

func (f *fakePromptRepo) Update(ctx context.Context, prompt *models.Prompt) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	clone := *prompt
	f.updated = &clone
	f.stored = clone
	return nil
}

func (f *fakePromptRepo) Delete(ctx context.Context, prompt *models.Prompt) error {
	f.stored = models.Prompt{}
	return nil
}

func newPromptService(repo *fakePromptRepo) PromptService {
	return NewPromptService(repo, &stubCorrectionRepo{}, &stubResponses{}, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
}

func TestPromptServiceCreate(t *testing.T) {
	repo := &fakePromptRepo{}
	svc := newPromptService(repo)

	resp, err := svc.Create(context.Background(), 1, dto.PromptRequest{Name: "strict grader", Prompt: "Grade harshly."})
	require.NoError(t, err)
	require.EqualValues(t, 1, resp.ID)
	require.Equal(t, "strict grader", repo.stored.Name)
	require.EqualValues(t, 1, repo.stored.UserID)
}

func TestPromptServiceCreateDuplicateName(t *testing.T) {
	svc := newPromptService(&fakePromptRepo{createErr: gorm.ErrDuplicatedKey})

	_, err := svc.Create(context.Background(), 1, dto.PromptRequest{Name: "strict grader", Prompt: "Grade harshly."})
	require.ErrorIs(t, err, ErrPromptNameTaken)
}

func TestPromptServiceCreateRequiresFields(t *testing.T) {
	svc := newPromptService(&fakePromptRepo{})

	_, err := svc.Create(context.Background(), 1, dto.PromptRequest{Name: "no body"})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestPromptServiceGetScopedToOwner(t *testing.T) {
	repo := &fakePromptRepo{stored: models.Prompt{ID: 5, UserID: 1, Name: "grader", Prompt: "text"}}
	svc := newPromptService(repo)

	_, err := svc.Get(context.Background(), 5, 2)
	require.ErrorIs(t, err, ErrPromptNotFound)

	resp, err := svc.Get(context.Background(), 5, 1)
	require.NoError(t, err)
	require.Equal(t, "grader", resp.Name)
}

func TestPromptServiceDeleteSweepsCorrectionFolders(t *testing.T) {
	repo := &fakePromptRepo{stored: models.Prompt{ID: 5, UserID: 1, Name: "grader", Prompt: "text"}}
	corrections := &stubCorrectionRepo{byPrompt: []models.Correction{
		{ID: 1, FolderPath: "corrections/1/1"},
		{ID: 2, FolderPath: "corrections/1/2"},
	}}
	cleanup := &stubResponses{}
	svc := NewPromptService(repo, corrections, cleanup, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	require.NoError(t, svc.Delete(context.Background(), 5, 1))
	require.Equal(t, []string{"corrections/1/1", "corrections/1/2"}, cleanup.deleted)
	require.Zero(t, repo.stored.ID)
}

func TestRubricServiceDeleteSweepsCorrectionFolders(t *testing.T) {
	rubrics := &stubRubricRepo{rubric: models.Rubric{ID: 7, UserID: 1, Name: "criteria", Content: "text"}}
	corrections := &stubCorrectionRepo{byRubric: []models.Correction{
		{ID: 3, FolderPath: "corrections/1/3"},
	}}
	cleanup := &stubResponses{}
	svc := NewRubricService(rubrics, corrections, cleanup, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	require.NoError(t, svc.Delete(context.Background(), 7, 1))
	require.Equal(t, []string{"corrections/1/3"}, cleanup.deleted)
}

func TestPromptServiceUpdate(t *testing.T) {
	repo := &fakePromptRepo{stored: models.Prompt{ID: 5, UserID: 1, Name: "grader", Prompt: "old"}}
	svc := newPromptService(repo)

	resp, err := svc.Update(context.Background(), 5, 1, dto.PromptRequest{Name: "grader", Prompt: "new"})
	require.NoError(t, err)
	require.Equal(t, "new", resp.Prompt)
	require.NotNil(t, repo.updated)
	require.Equal(t, "new", repo.updated.Prompt)
}
