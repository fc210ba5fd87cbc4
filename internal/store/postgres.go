// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"

	"taf-intake/internal/common/database"
	"taf-intake/internal/common/errors"
	"taf-intake/internal/common/logger"
	"taf-intake/internal/common/metrics"
	"taf-intake/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	insertQuery = `
		INSERT INTO tafs (
			id, candidate_name, passport_id, recruiter_name, auxiliary_name,
			photo_url, date, status, correct_questions, correct_exercises,
			total_criteria, criteria, post_recruitment, accepted_transfer_rules,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	selectColumns = `
		SELECT id, candidate_name, passport_id, recruiter_name, auxiliary_name,
			photo_url, date, status, criteria, post_recruitment,
			accepted_transfer_rules, created_at
		FROM tafs`

	listQuery = selectColumns + ` ORDER BY created_at DESC, id DESC`
	getQuery  = selectColumns + ` WHERE id = $1`
)

// PostgresStore keeps records in the tafs table. A nil db means the database
// is not configured; every call then fails with StorageUnavailable.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "postgres-store"}),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return notConfigured()
	}
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewStorageUnavailableError(err)
	}
	return nil
}

// EnsureSchema creates the tafs table and verifies it is visible.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s.db == nil {
		return notConfigured()
	}
	if err := database.Migrate(ctx, s.db); err != nil {
		return classifyWrite("migrate", err)
	}
	if err := database.VerifySchema(ctx, s.db, "tafs"); err != nil {
		return errors.NewStorageUnavailableError(err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, rec *models.CandidateRecord) (string, error) {
	if s.db == nil {
		return "", notConfigured()
	}
	defer observe("append", time.Now())

	statusJSON, err := json.Marshal(rec.Status)
	if err != nil {
		return "", errors.NewInternalError(fmt.Errorf("marshal status: %w", err))
	}
	criteriaJSON, err := json.Marshal(rec.Criteria)
	if err != nil {
		return "", errors.NewInternalError(fmt.Errorf("marshal criteria: %w", err))
	}
	postJSON, err := json.Marshal(rec.PostRecruitment)
	if err != nil {
		return "", errors.NewInternalError(fmt.Errorf("marshal post recruitment: %w", err))
	}

	id := s.newID()
	createdAt := s.now()

	_, err = s.db.ExecContext(ctx, insertQuery,
		id,
		rec.CandidateName,
		rec.PassportID,
		rec.RecruiterName,
		nullString(rec.AssistantRecruiterName),
		nullString(rec.Photo),
		rec.Date,
		string(statusJSON),
		rec.Status.QuestionsCorrect,
		rec.Status.ExercisesCorrect,
		rec.Status.TotalCriteria,
		string(criteriaJSON),
		string(postJSON),
		rec.AcceptedTransferRules,
		createdAt,
	)
	if err != nil {
		return "", classifyWrite("append", err)
	}

	rec.ID = id
	rec.CreatedAt = createdAt

	s.logger.Info("taf record stored", map[string]interface{}{
		"id":         id,
		"passportId": rec.PassportID,
		"approved":   rec.Status.Approved,
	})
	return id, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]models.CandidateRecord, error) {
	if s.db == nil {
		return nil, notConfigured()
	}
	defer observe("list", time.Now())

	rows, err := s.db.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, errors.NewStorageUnavailableError(err)
	}
	defer rows.Close()

	records := []models.CandidateRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageUnavailableError(err)
	}
	return records, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.CandidateRecord, error) {
	if s.db == nil {
		return nil, notConfigured()
	}
	defer observe("get", time.Now())

	rec, err := scanRecord(s.db.QueryRowContext(ctx, getQuery, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewRecordNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewStorageUnavailableError(err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*models.CandidateRecord, error) {
	var (
		rec                  models.CandidateRecord
		assistant, photo     sql.NullString
		statusJSON, critJSON []byte
		postJSON             []byte
		date, createdAt      time.Time
	)

	err := row.Scan(
		&rec.ID,
		&rec.CandidateName,
		&rec.PassportID,
		&rec.RecruiterName,
		&assistant,
		&photo,
		&date,
		&statusJSON,
		&critJSON,
		&postJSON,
		&rec.AcceptedTransferRules,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if assistant.Valid {
		rec.AssistantRecruiterName = &assistant.String
	}
	if photo.Valid {
		rec.Photo = &photo.String
	}
	rec.Date = date.UTC()
	rec.CreatedAt = createdAt.UTC()

	if err := json.Unmarshal(statusJSON, &rec.Status); err != nil {
		return nil, fmt.Errorf("decode status of %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal(critJSON, &rec.Criteria); err != nil {
		return nil, fmt.Errorf("decode criteria of %s: %w", rec.ID, err)
	}
	// Rows written before the checklist was stored have no post_recruitment.
	if len(postJSON) > 0 {
		if err := json.Unmarshal(postJSON, &rec.PostRecruitment); err != nil {
			return nil, fmt.Errorf("decode post recruitment of %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func observe(operation string, start time.Time) {
	metrics.StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// classifyWrite separates an unreachable database from a write the
// database refused.
func classifyWrite(operation string, err error) error {
	if isUnavailable(err) {
		return errors.NewStorageUnavailableError(err)
	}
	return errors.NewStorageWriteError(operation, err)
}

func isUnavailable(err error) bool {
	if stderrors.Is(err, driver.ErrBadConn) ||
		stderrors.Is(err, sql.ErrConnDone) ||
		stderrors.Is(err, context.DeadlineExceeded) ||
		stderrors.Is(err, context.Canceled) {
		return true
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		// 08: connection exception, 57P: operator intervention (shutdown)
		code := string(pqErr.Code)
		return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "57P")
	}
	return false
}

func notConfigured() error {
	return errors.NewStorageUnavailableError(database.ErrNotConfigured)
}
