package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	data := []byte("email,firstname,lastname\n" +
		"ana@example.com,Ana,García\n" +
		"luis@example.com,Luis,Rojas\n")

	ds, err := ReadCSV(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"email", "firstname", "lastname"}, ds.Columns)
	assert.Equal(t, ',', int32(ds.Delimiter))
	assert.Equal(t, "utf-8", ds.Encoding)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, 1, ds.Rows[0].Index)
	assert.Equal(t, "ana@example.com", ds.Rows[0].Get("email"))
	assert.Equal(t, 2, ds.Rows[1].Index)
	assert.Equal(t, "Rojas", ds.Rows[1].Get("lastname"))
}

func TestReadCSVSemicolon(t *testing.T) {
	data := []byte("email;name\nana@example.com;Ana\n")

	ds, err := ReadCSV(data)
	require.NoError(t, err)

	assert.Equal(t, ';', int32(ds.Delimiter))
	assert.Equal(t, "Ana", ds.Rows[0].Get("name"))
}

func TestReadCSVQuotedHeader(t *testing.T) {
	data := []byte("\"email\", \"first name\"\nana@example.com,Ana\n")

	ds, err := ReadCSV(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "first name"}, ds.Columns)
}

func TestReadCSVBlankLinesSkipped(t *testing.T) {
	data := []byte("email,name\nana@example.com,Ana\n\n,\nluis@example.com,Luis\n")

	ds, err := ReadCSV(data)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, "luis@example.com", ds.Rows[1].Get("email"))
	assert.Equal(t, 2, ds.Rows[1].Index)
}

func TestReadCSVShortRecord(t *testing.T) {
	data := []byte("email,name,city\nana@example.com,Ana\n")

	ds, err := ReadCSV(data)
	require.NoError(t, err)
	assert.Equal(t, "", ds.Rows[0].Get("city"))
}

func TestReadCSVNoHeader(t *testing.T) {
	_, err := ReadCSV(nil)
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ReadCSV([]byte(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestReadCSVWithDelimiter(t *testing.T) {
	// One pipe-separated column whose values contain commas; forcing the
	// delimiter avoids misdetection.
	data := []byte("name|note\nAna|a, b, c\n")

	ds, err := ReadCSVWithDelimiter(data, '|')
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "note"}, ds.Columns)
	assert.Equal(t, "a, b, c", ds.Rows[0].Get("note"))
}

func TestReadCSVLatin1Content(t *testing.T) {
	data := append([]byte("name\nJos"), 0xE9, '\n')

	ds, err := ReadCSV(data)
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", ds.Encoding)
	assert.Equal(t, "José", ds.Rows[0].Get("name"))
}

func TestDatasetSample(t *testing.T) {
	data := []byte("email\na@x.com\nb@x.com\nc@x.com\n")

	ds, err := ReadCSV(data)
	require.NoError(t, err)

	sample := ds.Sample(2)
	require.Len(t, sample, 2)
	assert.Equal(t, "a@x.com", sample[0]["email"])

	assert.Len(t, ds.Sample(10), 3)
}

func TestCleanColumns(t *testing.T) {
	got := CleanColumns([]string{" email ", `"name"`, "'city'", "", "  "})
	assert.Equal(t, []string{"email", "name", "city"}, got)
}
