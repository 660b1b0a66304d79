package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/FocusGate/pkg/logger"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"002_create_challenges.up.sql":       {Data: []byte("CREATE TABLE challenges (id UUID PRIMARY KEY);")},
		"001_create_focus_sessions.up.sql":   {Data: []byte("CREATE TABLE focus_sessions (id UUID PRIMARY KEY);")},
		"001_create_focus_sessions.down.sql": {Data: []byte("DROP TABLE focus_sessions;")},
		"README.md":                          {Data: []byte("docs")},
	}
}

func TestPendingMigrations_SortedAndFiltered(t *testing.T) {
	names, err := PendingMigrations(testMigrations())
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_focus_sessions.up.sql", "002_create_challenges.up.sql"}, names)
}

func TestRunMigrations_SkipsAppliedAndRecordsNew(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("001_create_focus_sessions.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("002_create_challenges.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE challenges").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs("002_create_challenges.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = RunMigrations(context.Background(), mock, testMigrations(), logger.Discard())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SQLErrorRollsBackWithoutRetry(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("001_create_focus_sessions.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE focus_sessions").
		WillReturnError(errors.New("syntax error at or near \"UUID\""))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, testMigrations(), logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute migration 001_create_focus_sessions.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}
