package tsv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"avolkov/finaudit/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payments.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestOpenReadsHeaderAndRows(t *testing.T) {
	path := writeTempFile(t, "Дата\tСумма\tНазначение\n"+
		"01.03.2024\t1500,50\tоплата услуг\n"+
		"\n"+
		"02.03.2024\t200,00\tаванс\n")

	f, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Дата", "Сумма", "Назначение"}, f.Header())
	assert.Equal(t, 3, f.TotalRows()) // blank line counts as a row

	line, ok := f.Next()
	require.True(t, ok)
	assert.Equal(t, "01.03.2024\t1500,50\tоплата услуг", line)

	line, ok = f.Next()
	require.True(t, ok)
	assert.Equal(t, "", line)

	line, ok = f.Next()
	require.True(t, ok)
	assert.Equal(t, "02.03.2024\t200,00\tаванс", line)

	_, ok = f.Next()
	assert.False(t, ok)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no-such-file.tsv"))
	require.Error(t, err)

	var fileErr *parsererror.FileError
	assert.True(t, errors.As(err, &fileErr))
}

func TestOpenNoTrailingNewline(t *testing.T) {
	path := writeTempFile(t, "Дата\tСумма\n01.03.2024\t100")

	f, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, 1, f.TotalRows())
	line, ok := f.Next()
	require.True(t, ok)
	assert.Equal(t, "01.03.2024\t100", line)
}

func TestPreview(t *testing.T) {
	path := writeTempFile(t, "A\tB\n1\t2\n3\t4\n5\t6\n")

	header, rows, err := Preview(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, header)
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, rows)
}

func TestPreviewShortFile(t *testing.T) {
	path := writeTempFile(t, "A\tB\n1\t2\n")

	header, rows, err := Preview(path, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, header)
	assert.Len(t, rows, 1)
}

func TestSplitNoQuoting(t *testing.T) {
	// No quote-aware parsing: a quoted field containing a tab still splits.
	cells := Split("\"a\tb\"\tc")
	assert.Equal(t, []string{"\"a", "b\"", "c"}, cells)
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  ООО Ромашка  ", "ООО Ромашка"},
		{"\"ООО Ромашка\"", "ООО Ромашка"},
		{" \"150,00\" ", "150,00"},
		{"", ""},
		{"\t\r\n", ""},
		{"внутри \"кавычки\" остаются", "внутри \"кавычки\" остаются"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, CleanCell(tc.input))
	}
}
