package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"taf-intake/internal/common/database"
	apperrors "taf-intake/internal/common/errors"
	"taf-intake/internal/common/logger"
	"taf-intake/internal/intake/criteria"
	"taf-intake/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Helpers
// ==========================

var (
	submittedAt = time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)
	storedAt    = time.Date(2025, 3, 14, 18, 31, 0, 0, time.UTC)
)

var rowColumns = []string{
	"id", "candidate_name", "passport_id", "recruiter_name", "auxiliary_name",
	"photo_url", "date", "status", "criteria", "post_recruitment",
	"accepted_transfer_rules", "created_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewPostgresStore(db, logger.NewTestLogger(t))
	s.now = func() time.Time { return storedAt }
	s.newID = func() string { return "0b8f6c1e-0000-4000-8000-000000000001" }
	return s, mock
}

func sampleRecord() *models.CandidateRecord {
	set := criteria.Set{
		criteria.ModulationQuestions: true,
		criteria.ApproachQuestions:   true,
		criteria.MirandaRights:       true,
		criteria.ModulationExercise:  true,
		criteria.CodeQExercise:       true,
	}
	assistant := "Cabo Lima"
	return &models.CandidateRecord{
		CandidateName:          "Carlos Silva",
		PassportID:             "4521",
		RecruiterName:          "Sgt. Moura",
		AssistantRecruiterName: &assistant,
		Date:                   submittedAt,
		Criteria:               set.Labeled(),
		PostRecruitment:        criteria.PostRecruitment{criteria.PostRules: true}.Labeled(),
		Status:                 criteria.Evaluate(set).Status(),
		AcceptedTransferRules:  true,
	}
}

func rowFor(id string, rec *models.CandidateRecord, createdAt time.Time) []driver.Value {
	status, _ := json.Marshal(rec.Status)
	crit, _ := json.Marshal(rec.Criteria)
	post, _ := json.Marshal(rec.PostRecruitment)

	var assistant, photo driver.Value
	if rec.AssistantRecruiterName != nil {
		assistant = *rec.AssistantRecruiterName
	}
	if rec.Photo != nil {
		photo = *rec.Photo
	}
	return []driver.Value{
		id, rec.CandidateName, rec.PassportID, rec.RecruiterName, assistant,
		photo, rec.Date, status, crit, post, rec.AcceptedTransferRules, createdAt,
	}
}

// ==========================
// Append
// ==========================

func TestAppend_Success(t *testing.T) {
	s, mock := newMockStore(t)
	rec := sampleRecord()

	mock.ExpectExec("INSERT INTO tafs").
		WithArgs(
			"0b8f6c1e-0000-4000-8000-000000000001",
			"Carlos Silva", "4521", "Sgt. Moura", "Cabo Lima", nil,
			submittedAt,
			`{"questionsCorrect":3,"exercisesCorrect":2,"totalCorrect":5,"totalCriteria":10,"approved":true}`,
			3, 2, 10,
			sqlmock.AnyArg(), sqlmock.AnyArg(),
			true,
			storedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := s.Append(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "0b8f6c1e-0000-4000-8000-000000000001", id)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, storedAt, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_ErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{"constraint violation", &pq.Error{Code: "23505", Message: "duplicate key"}, apperrors.ErrCodeStorageWriteFailed},
		{"connection exception", &pq.Error{Code: "08006", Message: "connection failure"}, apperrors.ErrCodeStorageUnavailable},
		{"admin shutdown", &pq.Error{Code: "57P01"}, apperrors.ErrCodeStorageUnavailable},
		{"dial failure", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, apperrors.ErrCodeStorageUnavailable},
		{"bad conn", driver.ErrBadConn, apperrors.ErrCodeStorageUnavailable},
		{"timeout", context.DeadlineExceeded, apperrors.ErrCodeStorageUnavailable},
		{"anything else", errors.New("value too long"), apperrors.ErrCodeStorageWriteFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			mock.ExpectExec("INSERT INTO tafs").WillReturnError(tt.err)

			rec := sampleRecord()
			id, err := s.Append(context.Background(), rec)
			assert.Empty(t, id)
			assert.Empty(t, rec.ID)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestUnconfigured(t *testing.T) {
	s := NewPostgresStore(nil, logger.NewNoOpLogger())
	ctx := context.Background()

	_, err := s.Append(ctx, sampleRecord())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageUnavailable))

	_, err = s.ListAll(ctx)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageUnavailable))

	_, err = s.Get(ctx, "x")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageUnavailable))

	err = s.Ping(ctx)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageUnavailable))
	assert.ErrorIs(t, err, database.ErrNotConfigured)
}

func TestEnsureSchema(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS tafs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("information_schema.tables").
		WithArgs("tafs").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_Unconfigured(t *testing.T) {
	s := NewPostgresStore(nil, logger.NewNoOpLogger())
	err := s.EnsureSchema(context.Background())
	assert.ErrorIs(t, err, database.ErrNotConfigured)
}

// ==========================
// ListAll / Get
// ==========================

func TestListAll_RoundTrip(t *testing.T) {
	s, mock := newMockStore(t)
	original := sampleRecord()

	older := sampleRecord()
	older.CandidateName = "Ana Souza"
	older.AssistantRecruiterName = nil

	rows := sqlmock.NewRows(rowColumns).
		AddRow(rowFor("2", original, storedAt)...).
		AddRow(rowFor("1", older, storedAt.Add(-time.Hour))...)
	mock.ExpectQuery("SELECT (.+) FROM tafs ORDER BY created_at DESC").WillReturnRows(rows)

	records, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	got := records[0]
	assert.Equal(t, "2", got.ID)
	assert.Equal(t, storedAt, got.CreatedAt)

	// everything except the store-assigned fields survives unchanged
	got.ID, got.CreatedAt = "", time.Time{}
	assert.Equal(t, *original, got)

	assert.Equal(t, "Ana Souza", records[1].CandidateName)
	assert.Nil(t, records[1].AssistantRecruiterName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAll_Empty(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM tafs").WillReturnRows(sqlmock.NewRows(rowColumns))

	records, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestListAll_Unreachable(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM tafs").WillReturnError(driver.ErrBadConn)

	_, err := s.ListAll(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageUnavailable))
}

func TestListAll_LegacyRowWithoutChecklist(t *testing.T) {
	s, mock := newMockStore(t)
	row := rowFor("1", sampleRecord(), storedAt)
	row[9] = nil
	mock.ExpectQuery("SELECT (.+) FROM tafs").WillReturnRows(sqlmock.NewRows(rowColumns).AddRow(row...))

	records, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Nil(t, records[0].PostRecruitment)
	assert.Len(t, records[0].Criteria, 10)
}

func TestGet(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM tafs WHERE id").
		WithArgs("2").
		WillReturnRows(sqlmock.NewRows(rowColumns).AddRow(rowFor("2", sampleRecord(), storedAt)...))

	rec, err := s.Get(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "Carlos Silva", rec.CandidateName)
	assert.True(t, rec.Status.Approved)
}

func TestGet_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM tafs WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(rowColumns))

	_, err := s.Get(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRecordNotFound))
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresStore(db, logger.NewNoOpLogger())
	mock.ExpectPing()
	assert.NoError(t, s.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(driver.ErrBadConn)
	assert.True(t, apperrors.HasCode(s.Ping(context.Background()), apperrors.ErrCodeStorageUnavailable))
}
