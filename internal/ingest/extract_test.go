package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saturday/internal/log"
)

// writeTwoPagePDF assembles a minimal uncompressed two-page PDF, one
// text-drawing operation per page. Cross-reference offsets are computed
// from the buffer as objects are emitted.
func writeTwoPagePDF(t *testing.T, path, first, second string) {
	t.Helper()

	page := "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792]" +
		" /Resources << /Font << /F1 7 0 R >> >> /Contents %d 0 R >>"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 5 0 R] /Count 2 >>",
		fmt.Sprintf(page, 4),
		"", // content stream, emitted below
		fmt.Sprintf(page, 6),
		"", // content stream, emitted below
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	streams := map[int]string{
		4: "BT /F1 12 Tf 72 720 Td (" + first + ") Tj ET",
		6: "BT /F1 12 Tf 72 720 Td (" + second + ") Tj ET",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects)+1)
	for i, body := range objects {
		num := i + 1
		offsets[num] = buf.Len()
		if stream, ok := streams[num]; ok {
			fmt.Fprintf(&buf, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
				num, len(stream), stream)
			continue
		}
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= len(objects); num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xref)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestExtractText_PDFConcatenatesPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	writeTwoPagePDF(t, path, "alpha page", "bravo page")

	text, err := extractText(path)
	require.NoError(t, err)

	firstAt := strings.Index(text, "alpha page")
	secondAt := strings.Index(text, "bravo page")
	require.GreaterOrEqual(t, firstAt, 0, "first page text missing")
	require.GreaterOrEqual(t, secondAt, 0, "second page text missing")
	assert.Less(t, firstAt, secondAt, "pages must be concatenated in order")
}

func TestRun_IngestsPDF(t *testing.T) {
	dir := t.TempDir()
	writeTwoPagePDF(t, filepath.Join(dir, "report.pdf"), "alpha page", "bravo page")

	store := &captureStore{}
	p := New(store, Config{}, log.NewNop())

	msg, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "Successfully ingested 1 chunks from 1 files.", msg)

	require.Len(t, store.docs, 1)
	assert.Equal(t, "report.pdf_0", store.docs[0].ID)
	assert.Contains(t, store.docs[0].Content, "alpha page")
	assert.Contains(t, store.docs[0].Content, "bravo page")
}

func TestRun_UnopenablePDFSkippedBatchContinues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.pdf", "this is not a pdf")
	writeFile(t, dir, "good.txt", "fine")

	store := &captureStore{}
	p := New(store, Config{}, log.NewNop())

	msg, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "Successfully ingested 1 chunks from 2 files.", msg)
	require.Len(t, store.docs, 1)
	assert.Equal(t, "good.txt_0", store.docs[0].ID)
}
