package voiceRepository

import (
	"CarePortalGolang/internal/api/voice"
	"CarePortalGolang/internal/entity"
	contextPkg "CarePortalGolang/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type PageMappingDB struct {
	PageID      sql.NullString `db:"page_id"`
	Path        sql.NullString `db:"path"`
	DisplayName sql.NullString `db:"display_name"`
	Keywords    pq.StringArray `db:"keywords"`
	Context     sql.NullString `db:"context"`
	IsActive    sql.NullBool   `db:"is_active"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r *pageMappingRepository) CreatePageMapping(ctx context.Context, mapping entity.PageMapping) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"page_id":      mapping.PageID,
		"path":         mapping.Path,
		"display_name": mapping.DisplayName,
		"keywords":     pq.StringArray(mapping.Keywords),
		"context":      string(mapping.Context),
		"is_active":    mapping.IsActive,
		"created_at":   mapping.CreatedAt,
		"updated_at":   mapping.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryCreatePageMapping, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreatePageMapping")
		return err
	}
	query = r.q.Rebind(query)

	_, err = r.q.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return voice.ErrPageMappingExists
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating page mapping")
		return err
	}

	return nil
}

func (r *pageMappingRepository) GetPageMappingByID(ctx context.Context, pageID string) (entity.PageMapping, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var mappingDB PageMappingDB

	argsKV := map[string]interface{}{
		"page_id": pageID,
	}

	query, args, err := sqlx.Named(queryGetPageMappingByID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetPageMappingByID named query preparation err")
		return entity.PageMapping{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&mappingDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"page_id":    pageID,
			}).Warn("GetPageMappingByID no rows found")
			return entity.PageMapping{}, voice.ErrPageMappingNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetPageMappingByID execution err")
		return entity.PageMapping{}, err
	}

	return r.makePageMapping(mappingDB), nil
}

func (r *pageMappingRepository) GetActivePageMappings(ctx context.Context) ([]entity.PageMapping, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var mappingsList []PageMappingDB

	query := r.q.Rebind(queryGetActivePageMappings)

	if err := r.q.SelectContext(ctx, &mappingsList, query); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetActivePageMappings execution err")
		return nil, err
	}

	var mappings []entity.PageMapping
	for _, mappingDB := range mappingsList {
		mappings = append(mappings, r.makePageMapping(mappingDB))
	}

	return mappings, nil
}

func (r *pageMappingRepository) UpdatePageMapping(ctx context.Context, mapping entity.PageMapping) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"page_id":      mapping.PageID,
		"path":         mapping.Path,
		"display_name": mapping.DisplayName,
		"keywords":     pq.StringArray(mapping.Keywords),
		"context":      string(mapping.Context),
		"is_active":    mapping.IsActive,
		"updated_at":   mapping.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryUpdatePageMapping, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdatePageMapping named query preparation err")
		return err
	}

	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when updating page mapping")
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return voice.ErrPageMappingNotFound
	}

	return nil
}

func (r *pageMappingRepository) makePageMapping(mappingDB PageMappingDB) entity.PageMapping {
	return entity.PageMapping{
		PageID:      mappingDB.PageID.String,
		Path:        mappingDB.Path.String,
		DisplayName: mappingDB.DisplayName.String,
		Keywords:    []string(mappingDB.Keywords),
		Context:     entity.OperatingContext(mappingDB.Context.String),
		IsActive:    mappingDB.IsActive.Bool,
		CreatedAt:   mappingDB.CreatedAt,
		UpdatedAt:   mappingDB.UpdatedAt,
	}
}
