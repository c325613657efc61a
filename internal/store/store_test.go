package store

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvcert/pkg/contracts/domain"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := New(t.TempDir(), ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t, time.Hour)

	entry, err := s.Save([]byte("email\na@b.com\n"), Entry{
		Filename:  "customers.csv",
		Columns:   []string{"email"},
		RowCount:  1,
		Delimiter: ',',
		Encoding:  "utf-8",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)

	got, err := s.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "customers.csv", got.Filename)
	assert.Equal(t, []string{"email"}, got.Columns)
	assert.Equal(t, ',', int32(got.Delimiter))

	data, err := s.ReadFile(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "email\na@b.com\n", string(data))
}

func TestGetUnknownID(t *testing.T) {
	s := newTestStore(t, time.Hour)

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ReadFile("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetValidation(t *testing.T) {
	s := newTestStore(t, time.Hour)
	entry, err := s.Save([]byte("email\n"), Entry{Columns: []string{"email"}})
	require.NoError(t, err)

	report := &domain.ValidationReport{TotalRows: 3, ValidRows: 2, InvalidRows: 1}
	mapping := domain.ColumnMapping{"Customer_Email": "email"}
	require.NoError(t, s.SetValidation(entry.ID, []string{"email"}, mapping, "CO", report))

	got, err := s.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "CO", got.Regulation)
	assert.Equal(t, []string{"email"}, got.RequiredColumns)
	assert.Equal(t, mapping, got.Mapping)
	require.NotNil(t, got.Report)
	assert.Equal(t, 3, got.Report.TotalRows)

	assert.ErrorIs(t, s.SetValidation("nope", nil, nil, "", nil), ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, time.Hour)
	entry, err := s.Save([]byte("x"), Entry{})
	require.NoError(t, err)

	require.NoError(t, s.Delete(entry.ID))
	_, err = s.Get(entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, statErr := os.Stat(entry.Path)
	assert.True(t, os.IsNotExist(statErr))

	assert.ErrorIs(t, s.Delete(entry.ID), ErrNotFound)
}

func TestSweepExpiresOldEntries(t *testing.T) {
	s := newTestStore(t, time.Hour)

	base := time.Now()
	s.now = func() time.Time { return base.Add(-2 * time.Hour) }
	old, err := s.Save([]byte("old"), Entry{})
	require.NoError(t, err)

	s.now = func() time.Time { return base }
	fresh, err := s.Save([]byte("fresh"), Entry{})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Sweep())

	_, err = s.Get(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, statErr := os.Stat(old.Path)
	assert.True(t, os.IsNotExist(statErr))

	_, err = s.Get(fresh.ID)
	assert.NoError(t, err)

	assert.Equal(t, 0, s.Sweep())
}

func TestGetReturnsCopy(t *testing.T) {
	s := newTestStore(t, time.Hour)
	entry, err := s.Save([]byte("x"), Entry{Regulation: "CO"})
	require.NoError(t, err)

	got, err := s.Get(entry.ID)
	require.NoError(t, err)
	got.Regulation = "PE"

	again, err := s.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "CO", again.Regulation)
}
