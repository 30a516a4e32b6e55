package voiceRepository

import (
	"CarePortalGolang/internal/entity"
	contextPkg "CarePortalGolang/pkg/context"
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type InteractionLogDB struct {
	ID               sql.NullString `db:"id"`
	SessionID        sql.NullString `db:"session_id"`
	UserID           sql.NullString `db:"user_id"`
	SpeakerRole      sql.NullString `db:"speaker_role"`
	OperatingContext sql.NullString `db:"operating_context"`
	Input            sql.NullString `db:"input"`
	Output           sql.NullString `db:"output"`
	IntentKind       sql.NullString `db:"intent_kind"`
	Channel          sql.NullString `db:"channel"`
	Outcome          sql.NullString `db:"outcome"`
	Success          sql.NullBool   `db:"success"`
	LatencyMS        sql.NullInt64  `db:"latency_ms"`
	CreatedAt        time.Time      `db:"created_at"`
}

// CreateInteraction appends one audit entry. There is deliberately no update
// or delete counterpart: the interaction log is append-only.
func (r *interactionRepository) CreateInteraction(ctx context.Context, entry entity.InteractionLog) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":                entry.ID,
		"session_id":        entry.SessionID,
		"user_id":           entry.UserID,
		"speaker_role":      string(entry.SpeakerRole),
		"operating_context": string(entry.OperatingContext),
		"input":             entry.Input,
		"output":            entry.Output,
		"intent_kind":       string(entry.IntentKind),
		"channel":           entry.Channel,
		"outcome":           string(entry.Outcome),
		"success":           entry.Success,
		"latency_ms":        entry.LatencyMS,
		"created_at":        entry.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateInteraction, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateInteraction")
		return err
	}
	query = r.q.Rebind(query)

	_, err = r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating interaction log")
		return err
	}

	return nil
}

func (r *interactionRepository) GetInteractionsByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.InteractionLog, int, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var entriesList []InteractionLogDB
	var total int

	countArgsKV := map[string]interface{}{
		"user_id": userID,
	}

	countQuery, countArgs, err := sqlx.Named(queryCountInteractionsByUserID, countArgsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountInteractionsByUserID named query preparation err")
		return nil, 0, err
	}

	countQuery = r.q.Rebind(countQuery)

	if err := r.q.QueryRowxContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountInteractionsByUserID execution err")
		return nil, 0, err
	}

	argsKV := map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
		"offset":  offset,
	}

	query, args, err := sqlx.Named(queryGetInteractionsByUserID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetInteractionsByUserID named query preparation err")
		return nil, 0, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &entriesList, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetInteractionsByUserID execution err")
		return nil, 0, err
	}

	var entries []entity.InteractionLog
	for _, entryDB := range entriesList {
		entries = append(entries, r.makeInteractionLog(entryDB))
	}

	return entries, total, nil
}

func (r *interactionRepository) GetInteractionsBySessionID(ctx context.Context, sessionID string) ([]entity.InteractionLog, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var entriesList []InteractionLogDB

	argsKV := map[string]interface{}{
		"session_id": sessionID,
	}

	query, args, err := sqlx.Named(queryGetInteractionsBySessionID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetInteractionsBySessionID named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &entriesList, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetInteractionsBySessionID execution err")
		return nil, err
	}

	var entries []entity.InteractionLog
	for _, entryDB := range entriesList {
		entries = append(entries, r.makeInteractionLog(entryDB))
	}

	return entries, nil
}

func (r *interactionRepository) makeInteractionLog(entryDB InteractionLogDB) entity.InteractionLog {
	return entity.InteractionLog{
		ID:               entryDB.ID.String,
		SessionID:        entryDB.SessionID.String,
		UserID:           entryDB.UserID.String,
		SpeakerRole:      entity.SpeakerRole(entryDB.SpeakerRole.String),
		OperatingContext: entity.OperatingContext(entryDB.OperatingContext.String),
		Input:            entryDB.Input.String,
		Output:           entryDB.Output.String,
		IntentKind:       entity.IntentKind(entryDB.IntentKind.String),
		Channel:          entryDB.Channel.String,
		Outcome:          entity.TurnOutcome(entryDB.Outcome.String),
		Success:          entryDB.Success.Bool,
		LatencyMS:        entryDB.LatencyMS.Int64,
		CreatedAt:        entryDB.CreatedAt,
	}
}
