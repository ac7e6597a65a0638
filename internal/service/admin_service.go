package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
)

type adminRepository interface {
	UpdateField(ctx context.Context, table, column, id string, value interface{}) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// columnSpec validates and converts the raw JSON value for one editable
// column.
type columnSpec struct {
	parse func(raw interface{}) (interface{}, error)
}

// editableColumns is the full set of fields an administrator may change.
// Anything not listed here is rejected before any SQL is built.
var editableColumns = map[string]map[string]columnSpec{
	"users": {
		"full_name": stringColumn(1, 100),
		"role":      enumColumn(string(models.RoleAdmin), string(models.RoleUser)),
		"is_active": boolColumn(),
	},
	"schedules": {
		"name":       stringColumn(1, 120),
		"is_primary": boolColumn(),
	},
	"events": {
		"name":        stringColumn(1, 200),
		"description": nullableStringColumn(1000),
		"frequency": enumColumn(
			string(models.FrequencyNever),
			string(models.FrequencyDaily),
			string(models.FrequencyWeekly),
			string(models.FrequencyMonthly)),
	},
}

// AdminService applies column-level edits on behalf of administrators,
// gated by editableColumns and recorded in the audit log.
type AdminService struct {
	repo      adminRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(repo adminRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// AdminEditRequest is one field change on one row.
type AdminEditRequest struct {
	Table  string      `json:"table" validate:"required"`
	RowID  string      `json:"row_id" validate:"required"`
	Column string      `json:"column" validate:"required"`
	Value  interface{} `json:"value"`
}

// Edit updates a single allow-listed column and audits the change.
func (s *AdminService) Edit(ctx context.Context, adminID string, req AdminEditRequest, ip, userAgent string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin edit")
	}

	columns, ok := editableColumns[req.Table]
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("table %q is not editable", req.Table))
	}
	spec, ok := columns[req.Column]
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("column %q of %q is not editable", req.Column, req.Table))
	}

	value, err := spec.parse(req.Value)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s.%s: %s", req.Table, req.Column, err.Error()))
	}

	if err := s.repo.UpdateField(ctx, req.Table, req.Column, req.RowID, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "row not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply admin edit")
	}

	newValues, _ := json.Marshal(map[string]interface{}{req.Column: value})
	entry := &models.AuditLog{
		UserID:     &adminID,
		Action:     models.AuditActionAdminEdit,
		Resource:   req.Table,
		ResourceID: &req.RowID,
		NewValues:  newValues,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Error("failed to audit admin edit",
			zap.String("table", req.Table),
			zap.String("row_id", req.RowID),
			zap.Error(err))
	}
	return nil
}

// EditableColumns reports what administrators may change, for UI use.
func (s *AdminService) EditableColumns() map[string][]string {
	out := make(map[string][]string, len(editableColumns))
	for table, columns := range editableColumns {
		names := make([]string, 0, len(columns))
		for name := range columns {
			names = append(names, name)
		}
		out[table] = names
	}
	return out
}

func stringColumn(minLen, maxLen int) columnSpec {
	return columnSpec{parse: func(raw interface{}) (interface{}, error) {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string")
		}
		if len(s) < minLen || len(s) > maxLen {
			return nil, fmt.Errorf("length must be between %d and %d", minLen, maxLen)
		}
		return s, nil
	}}
}

func nullableStringColumn(maxLen int) columnSpec {
	return columnSpec{parse: func(raw interface{}) (interface{}, error) {
		if raw == nil {
			return nil, nil
		}
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string or null")
		}
		if len(s) > maxLen {
			return nil, fmt.Errorf("length must be at most %d", maxLen)
		}
		return s, nil
	}}
}

func boolColumn() columnSpec {
	return columnSpec{parse: func(raw interface{}) (interface{}, error) {
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a boolean")
		}
		return b, nil
	}}
}

func enumColumn(allowed ...string) columnSpec {
	return columnSpec{parse: func(raw interface{}) (interface{}, error) {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string")
		}
		for _, candidate := range allowed {
			if s == candidate {
				return s, nil
			}
		}
		return nil, fmt.Errorf("value must be one of %v", allowed)
	}}
}
