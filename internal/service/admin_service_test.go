package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
)

type adminRepoStub struct {
	table  string
	column string
	rowID  string
	value  interface{}
	err    error
}

func (s *adminRepoStub) UpdateField(ctx context.Context, table, column, id string, value interface{}) error {
	if s.err != nil {
		return s.err
	}
	s.table, s.column, s.rowID, s.value = table, column, id, value
	return nil
}

type auditStub struct {
	entries []*models.AuditLog
}

func (s *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.entries = append(s.entries, log)
	return nil
}

func TestAdminServiceEditAppliesAllowedColumn(t *testing.T) {
	repo := &adminRepoStub{}
	audit := &auditStub{}
	svc := NewAdminService(repo, audit, nil, nil)

	err := svc.Edit(context.Background(), "admin-1", AdminEditRequest{
		Table:  "users",
		RowID:  "u1",
		Column: "full_name",
		Value:  "Renamed User",
	}, "127.0.0.1", "tests")
	require.NoError(t, err)
	assert.Equal(t, "users", repo.table)
	assert.Equal(t, "full_name", repo.column)
	assert.Equal(t, "Renamed User", repo.value)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionAdminEdit, audit.entries[0].Action)
	assert.Equal(t, "users", audit.entries[0].Resource)
}

func TestAdminServiceEditRejectsUnknownTable(t *testing.T) {
	repo := &adminRepoStub{}
	svc := NewAdminService(repo, &auditStub{}, nil, nil)

	err := svc.Edit(context.Background(), "admin-1", AdminEditRequest{
		Table:  "refresh_tokens",
		RowID:  "t1",
		Column: "revoked",
		Value:  true,
	}, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.table)
}

func TestAdminServiceEditRejectsUnlistedColumn(t *testing.T) {
	repo := &adminRepoStub{}
	svc := NewAdminService(repo, &auditStub{}, nil, nil)

	err := svc.Edit(context.Background(), "admin-1", AdminEditRequest{
		Table:  "users",
		RowID:  "u1",
		Column: "password_hash",
		Value:  "x",
	}, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdminServiceEditRejectsWrongType(t *testing.T) {
	repo := &adminRepoStub{}
	svc := NewAdminService(repo, &auditStub{}, nil, nil)

	err := svc.Edit(context.Background(), "admin-1", AdminEditRequest{
		Table:  "users",
		RowID:  "u1",
		Column: "is_active",
		Value:  "yes",
	}, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdminServiceEditRejectsBadEnum(t *testing.T) {
	repo := &adminRepoStub{}
	svc := NewAdminService(repo, &auditStub{}, nil, nil)

	err := svc.Edit(context.Background(), "admin-1", AdminEditRequest{
		Table:  "events",
		RowID:  "e1",
		Column: "frequency",
		Value:  "HOURLY",
	}, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdminServiceEditMissingRow(t *testing.T) {
	repo := &adminRepoStub{err: sql.ErrNoRows}
	svc := NewAdminService(repo, &auditStub{}, nil, nil)

	err := svc.Edit(context.Background(), "admin-1", AdminEditRequest{
		Table:  "schedules",
		RowID:  "missing",
		Column: "name",
		Value:  "Renamed",
	}, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAdminServiceNullableDescription(t *testing.T) {
	repo := &adminRepoStub{}
	svc := NewAdminService(repo, &auditStub{}, nil, nil)

	err := svc.Edit(context.Background(), "admin-1", AdminEditRequest{
		Table:  "events",
		RowID:  "e1",
		Column: "description",
		Value:  nil,
	}, "", "")
	require.NoError(t, err)
	assert.Nil(t, repo.value)
}

func TestAdminServiceEditableColumns(t *testing.T) {
	svc := NewAdminService(&adminRepoStub{}, &auditStub{}, nil, nil)

	columns := svc.EditableColumns()
	assert.Contains(t, columns, "users")
	assert.Contains(t, columns["users"], "role")
	assert.NotContains(t, columns, "refresh_tokens")
}
