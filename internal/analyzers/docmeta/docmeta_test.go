// internal/analyzers/docmeta/docmeta_test.go
package docmeta

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"rastro/internal/core/domain/intel"
	"rastro/internal/platform/logx"
	"rastro/internal/testutil"
)

const coreXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
 xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">
 <dc:title>Quarterly Report</dc:title>
 <dc:creator>Jane Smith</dc:creator>
 <cp:lastModifiedBy>John Doe</cp:lastModifiedBy>
 <dcterms:created>2024-01-15T09:30:00Z</dcterms:created>
 <dcterms:modified>2024-02-01T14:00:00Z</dcterms:modified>
</cp:coreProperties>`

const appXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">
 <Company>ACME Corp</Company>
</Properties>`

func writeTestDocx(t *testing.T, withCore bool) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if withCore {
		w, err := zw.Create("docProps/core.xml")
		testutil.AssertNoError(t, err, "create core.xml")
		_, err = w.Write([]byte(coreXML))
		testutil.AssertNoError(t, err, "write core.xml")
	}
	w, err := zw.Create("docProps/app.xml")
	testutil.AssertNoError(t, err, "create app.xml")
	_, err = w.Write([]byte(appXML))
	testutil.AssertNoError(t, err, "write app.xml")
	testutil.AssertNoError(t, zw.Close(), "close zip")

	path := filepath.Join(t.TempDir(), "report.docx")
	testutil.AssertNoError(t, os.WriteFile(path, buf.Bytes(), 0o644), "write docx")
	return path
}

func TestAnalyzeDocx(t *testing.T) {
	path := writeTestDocx(t, true)

	finding, err := New(logx.NewSilent()).Analyze(context.Background(), path)
	testutil.AssertNoError(t, err, "analyze should not error")
	testutil.AssertTrue(t, finding.Success, "properties extracted")

	info, ok := intel.As[*intel.DocumentInfo](finding.Data)
	testutil.AssertTrue(t, ok, "payload is DocumentInfo")
	testutil.AssertEqual(t, info.Format, "docx", "format from extension")
	testutil.AssertEqual(t, info.Title, "Quarterly Report", "title")
	testutil.AssertEqual(t, info.Author, "Jane Smith", "creator")
	testutil.AssertEqual(t, info.LastEditedBy, "John Doe", "last modified by")
	testutil.AssertEqual(t, info.Company, "ACME Corp", "company from app.xml")
}

func TestAnalyzeDocxWithoutCoreProperties(t *testing.T) {
	path := writeTestDocx(t, false)

	finding, err := New(logx.NewSilent()).Analyze(context.Background(), path)
	testutil.AssertNoError(t, err, "missing properties is a finding, not an error")
	testutil.AssertFalse(t, finding.Success, "no core properties")
}

func TestAnalyzeNonZipFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	testutil.AssertNoError(t, os.WriteFile(path, []byte("just text"), 0o644), "write file")

	finding, err := New(logx.NewSilent()).Analyze(context.Background(), path)
	testutil.AssertNoError(t, err, "unsupported format is a finding, not an error")
	testutil.AssertFalse(t, finding.Success, "not OOXML")
}
