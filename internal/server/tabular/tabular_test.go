package tabular

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/dmitrijs2005/sentivault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestParse_CSV(t *testing.T) {
	p := writeFile(t, "news.csv", "\ufefftitle, topics ,ticker_sentiment\n"+
		`"Hello, world","Crypto(0.9), Markets(0.5)",BTC(Bullish)`+"\n"+
		",,\n"+
		"short\n")

	rows, err := Parse(p)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{
		"title":            "Hello, world",
		"topics":           "Crypto(0.9), Markets(0.5)",
		"ticker_sentiment": "BTC(Bullish)",
	}, rows[0])
	assert.Equal(t, Row{"title": "short", "topics": "", "ticker_sentiment": ""}, rows[1])
}

func TestParse_CSVHeaderOnly(t *testing.T) {
	rows, err := Parse(writeFile(t, "empty.csv", "title,url\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParse_CSVReadError(t *testing.T) {
	_, err := readCSV(io.MultiReader(strings.NewReader("a,b\n1,2\n"), iotest.ErrReader(errors.New("disk gone"))))
	assert.ErrorIs(t, err, common.ErrParse)
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"title", "overall_sentiment_score"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"First", "0.25"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Second"}))

	p := filepath.Join(t.TempDir(), "news.xlsx")
	require.NoError(t, f.SaveAs(p))
	require.NoError(t, f.Close())

	rows, err := Parse(p)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "First", rows[0]["title"])
	assert.Equal(t, "0.25", rows[0]["overall_sentiment_score"])
	assert.Equal(t, "Second", rows[1]["title"])
	assert.Equal(t, "", rows[1]["overall_sentiment_score"])
}

func TestParse_XLSXLeadingBlankRow(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"title", "source"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Offset", "Example"}))

	p := filepath.Join(t.TempDir(), "offset.xlsx")
	require.NoError(t, f.SaveAs(p))
	require.NoError(t, f.Close())

	rows, err := Parse(p)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{"title": "Offset", "source": "Example"}, rows[0])
}

func TestParse_CSVLeadingBlankRow(t *testing.T) {
	rows, err := Parse(writeFile(t, "blank.csv", ",,\ntitle,url,source\nHi,https://x,Ex\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{"title": "Hi", "url": "https://x", "source": "Ex"}, rows[0])
}

func TestParse_CorruptSpreadsheets(t *testing.T) {
	_, err := Parse(writeFile(t, "bad.xlsx", "not a zip"))
	assert.ErrorIs(t, err, common.ErrParse)

	_, err = Parse(writeFile(t, "bad.xls", "not a workbook"))
	assert.ErrorIs(t, err, common.ErrParse)
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, err := Parse(writeFile(t, "x.txt", "a"))
	assert.ErrorIs(t, err, common.ErrParse)
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestParseFormat_IgnoresFileName(t *testing.T) {
	p := writeFile(t, "upload.tmp", "title\nx\n")
	rows, err := ParseFormat(p, ".CSV")
	require.NoError(t, err)
	assert.Equal(t, []Row{{"title": "x"}}, rows)
}
