package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"verigate/internal/errs"
	"verigate/internal/infrastructure/persistence/sqlite/model"
	"verigate/internal/ports"
)

type ResultRepository struct {
	db *gorm.DB
}

var _ ports.ResultRepository = (*ResultRepository)(nil)

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// CreateResult appends a new row; rows are immutable, re-verification of the
// same (project, issue) always inserts rather than updates.
func (r *ResultRepository) CreateResult(ctx context.Context, result ports.VerificationResult) (ports.VerificationResult, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.VerificationResult{}, err
	}

	if strings.TrimSpace(result.ResultID) == "" {
		return ports.VerificationResult{}, errors.New("result id is required")
	}

	mockFilesJSON := "[]"
	if len(result.MockFiles) > 0 {
		raw, marshalErr := json.Marshal(result.MockFiles)
		if marshalErr != nil {
			return ports.VerificationResult{}, errs.Wrap(marshalErr, "marshal mock files")
		}
		mockFilesJSON = string(raw)
	}

	row := model.VerificationResult{
		ResultID:      result.ResultID,
		ProjectName:   result.ProjectName,
		IssueNumber:   result.IssueNumber,
		Status:        result.Status,
		BuildSuccess:  result.BuildSuccess,
		TestsPassed:   result.TestsPassed,
		MocksDetected: result.MocksDetected,
		BuildOutput:   result.BuildOutput,
		BuildError:    result.BuildError,
		TestOutput:    result.TestOutput,
		TestError:     result.TestError,
		MockFilesJSON: mockFilesJSON,
		MockCount:     result.MockCount,
		Summary:       result.Summary,
		CreatedAt:     result.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.VerificationResult{}, errs.Wrap(err, "insert verification result")
	}
	return mapResult(row), nil
}

func (r *ResultRepository) LatestResult(ctx context.Context, projectName string, issueNumber int64) (ports.VerificationResult, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.VerificationResult{}, err
	}

	var row model.VerificationResult
	if err := db.
		Where("project_name = ? AND issue_number = ?", projectName, issueNumber).
		Order("created_at desc, result_id desc").
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.VerificationResult{}, ports.ErrResultNotFound
		}
		return ports.VerificationResult{}, errs.Wrap(err, "query latest result")
	}
	return mapResult(row), nil
}

func (r *ResultRepository) ListResults(ctx context.Context, filter ports.VerificationResultFilter) ([]ports.VerificationResult, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.VerificationResult{})
	if name := strings.TrimSpace(filter.ProjectName); name != "" {
		query = query.Where("project_name = ?", name)
	}
	if filter.IssueNumber != nil {
		query = query.Where("issue_number = ?", *filter.IssueNumber)
	}
	query = query.Order("created_at desc, result_id desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.VerificationResult
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query verification results")
	}

	items := make([]ports.VerificationResult, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapResult(row))
	}
	return items, nil
}

func mapResult(row model.VerificationResult) ports.VerificationResult {
	return ports.VerificationResult{
		ResultID:      row.ResultID,
		ProjectName:   row.ProjectName,
		IssueNumber:   row.IssueNumber,
		Status:        row.Status,
		BuildSuccess:  row.BuildSuccess,
		TestsPassed:   row.TestsPassed,
		MocksDetected: row.MocksDetected,
		BuildOutput:   row.BuildOutput,
		BuildError:    row.BuildError,
		TestOutput:    row.TestOutput,
		TestError:     row.TestError,
		MockFiles:     parseMockFilesJSON(row.MockFilesJSON),
		MockCount:     row.MockCount,
		Summary:       row.Summary,
		CreatedAt:     row.CreatedAt,
	}
}

func parseMockFilesJSON(raw string) []string {
	value := strings.TrimSpace(raw)
	if value == "" || value == "[]" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		return nil
	}
	return items
}
