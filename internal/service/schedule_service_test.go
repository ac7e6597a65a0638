package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
)

func TestScheduleServiceEnsurePrimaryCreatesOnFirstUse(t *testing.T) {
	repo := &scheduleRepoStub{schedules: map[string]*models.Schedule{}}
	svc := NewScheduleService(repo, nil, nil)

	schedule, err := svc.EnsurePrimary(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "My Calendar", schedule.Name)
	assert.True(t, schedule.IsPrimary)
	assert.Equal(t, "u1", schedule.OwnerID)
	require.Len(t, repo.schedules, 1)
}

func TestScheduleServiceEnsurePrimaryReturnsExisting(t *testing.T) {
	repo := &scheduleRepoStub{schedules: map[string]*models.Schedule{
		"sch1": {ID: "sch1", OwnerID: "u1", Name: "My Calendar", IsPrimary: true},
	}}
	svc := NewScheduleService(repo, nil, nil)

	schedule, err := svc.EnsurePrimary(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "sch1", schedule.ID)
	assert.Len(t, repo.schedules, 1)
}

func TestScheduleServiceCreateRejectsEmptyName(t *testing.T) {
	repo := &scheduleRepoStub{schedules: map[string]*models.Schedule{}}
	svc := NewScheduleService(repo, nil, nil)

	_, err := svc.Create(context.Background(), "u1", CreateScheduleRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.schedules)
}

func TestScheduleServiceGetOwnedRejectsForeignSchedule(t *testing.T) {
	repo := &scheduleRepoStub{schedules: map[string]*models.Schedule{
		"sch2": {ID: "sch2", OwnerID: "u2", Name: "Someone Else"},
	}}
	svc := NewScheduleService(repo, nil, nil)

	_, err := svc.GetOwned(context.Background(), "sch2", "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOwnership.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceGetOwnedMissing(t *testing.T) {
	repo := &scheduleRepoStub{schedules: map[string]*models.Schedule{}}
	svc := NewScheduleService(repo, nil, nil)

	_, err := svc.GetOwned(context.Background(), "ghost", "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
