package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Winder2006/COBALT/internal/models"
	"github.com/xuri/excelize/v2"
)

// stubFetcher serves fixed payloads by URL and counts fetches.
type stubFetcher struct {
	payloads map[string][]byte
	calls    map[string]int
}

func (s *stubFetcher) Fetch(_ context.Context, doc models.DocumentRef) ([]byte, error) {
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[doc.DownloadURL]++
	b, ok := s.payloads[doc.DownloadURL]
	if !ok {
		return nil, errors.New("404")
	}
	return b, nil
}

// stubRunner returns fixed output for any command.
type stubRunner struct {
	out   []byte
	err   error
	calls int
	name  string
}

func (r *stubRunner) Run(_ context.Context, name string, _ ...string) ([]byte, []byte, error) {
	r.calls++
	r.name = name
	return r.out, nil, r.err
}

type memCache map[string]string

func (m memCache) GetText(_ context.Context, url string) (string, bool, error) {
	t, ok := m[url]
	return t, ok, nil
}

func (m memCache) PutText(_ context.Context, url, text string) error {
	m[url] = text
	return nil
}

// minimalDocx returns .docx bytes whose document part holds one paragraph per entry.
func minimalDocx(paragraphs ...string) []byte {
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p w:rsidR="00AB12"><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  a\t\t b  ", "a b"},
		{"a\n\n\n\nb", "a\n\nb"},
		{"a   \nb", "a\nb"},
		{"a\x00b", "ab"},
		{"a\n \n \n \nb", "a\n\nb"},
		{"\n\n  line  \n\n", "line"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtract_plain(t *testing.T) {
	e := NewExtractor()
	got := e.Extract(context.Background(), []byte("Case closed.\n\n\n\nNo further action."))
	if got != "Case closed.\n\nNo further action." {
		t.Errorf("got %q", got)
	}
}

func TestExtract_empty(t *testing.T) {
	if got := NewExtractor().Extract(context.Background(), nil); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_htmlErrorPage(t *testing.T) {
	got := NewExtractor().Extract(context.Background(), []byte("<!DOCTYPE html><html><body>Session expired</body></html>"))
	if got != "" {
		t.Errorf("markup should not be treated as a document, got %q", got)
	}
}

func TestExtract_docx(t *testing.T) {
	e := NewExtractor()
	got := e.Extract(context.Background(), minimalDocx("Closure Letter", "Groundwater monitoring complete."))
	if got != "Closure Letter\nGroundwater monitoring complete." {
		t.Errorf("got %q", got)
	}
}

func TestExtract_docxWithContentTypes(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/word/document2.xml"/>
</Types>`))
	fw, _ := w.Create("word/document2.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Site investigation</w:t><w:tab/><w:t>report</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()

	got := NewExtractor().Extract(context.Background(), buf.Bytes())
	if got != "Site investigation report" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Analyte")
	f.SetCellValue("Sheet1", "B1", "Result")
	f.SetCellValue("Sheet1", "A2", "Benzene")
	f.SetCellValue("Sheet1", "B2", "12 ug/L")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got := NewExtractor().Extract(context.Background(), buf.Bytes())
	if got != "[Sheet: Sheet1]\nAnalyte Result\nBenzene 12 ug/L" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_pdfFallsBackToPdftotext(t *testing.T) {
	r := &stubRunner{out: []byte("Page one\fPage two")}
	e := NewExtractor(WithPdftotext("pdftotext", r))
	got := e.Extract(context.Background(), []byte("%PDF-1.4\nthis is not a readable pdf body"))
	if got != "Page one\nPage two" {
		t.Errorf("got %q", got)
	}
	if r.calls != 1 || r.name != "pdftotext" {
		t.Errorf("runner calls = %d name = %q", r.calls, r.name)
	}
}

func TestExtract_pdfAllBackendsFail(t *testing.T) {
	r := &stubRunner{err: errors.New("exit status 1")}
	e := NewExtractor(WithPdftotext("pdftotext", r))
	if got := e.Extract(context.Background(), []byte("%PDF-1.7 broken")); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestTry_recoversPanic(t *testing.T) {
	e := NewExtractor()
	chain := []backend{
		{"panics", func(context.Context, []byte) (string, error) { panic("corrupt xref") }},
		{"blank", func(context.Context, []byte) (string, error) { return "   \n\t", nil }},
		{"works", func(context.Context, []byte) (string, error) { return "Remedial action plan", nil }},
	}
	if got := e.run(context.Background(), chain, []byte("x")); got != "Remedial action plan" {
		t.Errorf("got %q", got)
	}
}

func TestContentStreamText(t *testing.T) {
	stream := []byte("BT /F1 12 Tf 72 720 Td (Case Closure) Tj 0 -14 Td [(Ground) -20 (water)] TJ T* (a \\(note\\)) Tj ET")
	got := Clean(contentStreamText(stream))
	if got != "Case Closure\nGroundwater\na (note)" {
		t.Errorf("got %q", got)
	}
}

func TestExtractAll_perDocumentIsolation(t *testing.T) {
	f := &stubFetcher{payloads: map[string][]byte{
		"https://x/doc?docSeqNo=1": []byte("Benzene detected in MW-1."),
		"https://x/doc?docSeqNo=3": []byte("\x89PNG\r\n\x1a\nbinary"),
	}}
	e := NewExtractor(WithFetcher(f))
	docs := []models.DocumentRef{
		{ID: 0, Name: "Report", Date: "2019-04-02", DownloadURL: "https://x/doc?docSeqNo=1"},
		{ID: 1, Name: "Missing link"},
		{ID: 2, Name: "Gone", DownloadURL: "https://x/doc?docSeqNo=2"},
		{ID: 3, Name: "Photo", DownloadURL: "https://x/doc?docSeqNo=3"},
	}
	results, combined := e.ExtractAll(context.Background(), docs, 0)
	if len(results) != 4 {
		t.Fatalf("len(results) = %d", len(results))
	}
	want := []string{models.ExtractionSuccess, models.ExtractionNoURL, models.ExtractionDownloadFailed, models.ExtractionFailed}
	for i, w := range want {
		if results[i].ExtractionStatus != w {
			t.Errorf("results[%d].ExtractionStatus = %q, want %q", i, results[i].ExtractionStatus, w)
		}
		if results[i].Name != docs[i].Name || results[i].DownloadURL != docs[i].DownloadURL {
			t.Errorf("results[%d] identity changed", i)
		}
		if w != models.ExtractionSuccess && results[i].ExtractedText != "" {
			t.Errorf("results[%d] has text on failure", i)
		}
	}
	if combined != "=== Document 1: Report (2019-04-02) ===\nBenzene detected in MW-1." {
		t.Errorf("combined = %q", combined)
	}
	if results[0].TextLength != len("Benzene detected in MW-1.") {
		t.Errorf("TextLength = %d", results[0].TextLength)
	}
	s := Summarize(results)
	if s.Total != 4 || s.Successful != 1 || s.Failed != 3 {
		t.Errorf("summary = %+v", s)
	}
}

func TestExtractAll_limit(t *testing.T) {
	f := &stubFetcher{payloads: map[string][]byte{
		"u1": []byte("one"), "u2": []byte("two"), "u3": []byte("three"),
	}}
	e := NewExtractor(WithFetcher(f))
	docs := []models.DocumentRef{
		{Name: "A", DownloadURL: "u1"}, {Name: "B", DownloadURL: "u2"}, {Name: "C", DownloadURL: "u3"},
	}
	results, combined := e.ExtractAll(context.Background(), docs, 2)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if f.calls["u3"] != 0 {
		t.Error("document beyond limit was fetched")
	}
	want := "=== Document 1: A (No date) ===\none\n\n=== Document 2: B (No date) ===\ntwo"
	if combined != want {
		t.Errorf("combined = %q", combined)
	}
}

func TestDocumentHeader(t *testing.T) {
	tests := []struct {
		name string
		doc  models.DocumentRef
		want string
	}{
		{"named and dated", models.DocumentRef{Name: "Closure Letter", Date: "2001-03-09"}, "=== Document 1: Closure Letter (2001-03-09) ===\n"},
		{"no date", models.DocumentRef{Name: "GIS Packet"}, "=== Document 1: GIS Packet (No date) ===\n"},
		{"no name", models.DocumentRef{Date: "2001-03-09"}, "=== Document 1: Unknown (2001-03-09) ===\n"},
		{"blank name", models.DocumentRef{Name: "  "}, "=== Document 1: Unknown (No date) ===\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DocumentHeader(0, tt.doc); got != tt.want {
				t.Errorf("DocumentHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractDocument_cache(t *testing.T) {
	f := &stubFetcher{payloads: map[string][]byte{"u1": []byte("Vapor intrusion assessment")}}
	cache := memCache{}
	e := NewExtractor(WithFetcher(f), WithCache(cache))
	doc := models.DocumentRef{Name: "VI", DownloadURL: "u1"}

	first := e.ExtractDocument(context.Background(), doc)
	second := e.ExtractDocument(context.Background(), doc)
	if !first.Succeeded() || !second.Succeeded() {
		t.Fatalf("statuses %q %q", first.ExtractionStatus, second.ExtractionStatus)
	}
	if f.calls["u1"] != 1 {
		t.Errorf("fetch calls = %d, want 1", f.calls["u1"])
	}
	if cache["u1"] != "Vapor intrusion assessment" {
		t.Errorf("cache = %v", cache)
	}
}

func TestExtractDocument_noFetcher(t *testing.T) {
	got := NewExtractor().ExtractDocument(context.Background(), models.DocumentRef{DownloadURL: "https://x/d"})
	if got.ExtractionStatus != models.ExtractionDownloadFailed {
		t.Errorf("status = %q", got.ExtractionStatus)
	}
}
