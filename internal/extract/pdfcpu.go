package extract

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDFContent is the secondary PDF backend. pdfcpu writes each page's decoded content
// stream to a file; text is recovered from the string operands of the text-showing operators.
func extractPDFContent(_ context.Context, content []byte) (string, error) {
	dir, err := os.MkdirTemp("", "cobalt-pdfcpu-*")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ExtractContent(bytes.NewReader(content), dir, "doc", nil, conf); err != nil {
		return "", fmt.Errorf("pdfcpu extract content: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return "", err
	}
	sort.Slice(files, func(i, j int) bool { return pageOrder(files[i]) < pageOrder(files[j]) })

	var b strings.Builder
	for _, f := range files {
		stream, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		b.WriteString(contentStreamText(stream))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// pageOrder parses the trailing page number from names like doc_Content_page_12.txt.
func pageOrder(name string) int {
	base := strings.TrimSuffix(filepath.Base(name), ".txt")
	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	n, _ := strconv.Atoi(base[i:])
	return n
}

// contentStreamText walks a PDF content stream and collects string operands shown by
// Tj, TJ, ' and ". Text positioning operators start a new line.
func contentStreamText(stream []byte) string {
	var (
		out     strings.Builder
		pending []string
	)
	flush := func(sep string) {
		for _, s := range pending {
			out.WriteString(s)
		}
		pending = pending[:0]
		out.WriteString(sep)
	}
	for i := 0; i < len(stream); {
		c := stream[i]
		switch {
		case c == '(':
			s, next := readLiteral(stream, i)
			pending = append(pending, s)
			i = next
		case c == '<' && i+1 < len(stream) && stream[i+1] != '<':
			end := bytes.IndexByte(stream[i:], '>')
			if end < 0 {
				return out.String()
			}
			pending = append(pending, decodeHexString(stream[i+1:i+end]))
			i += end + 1
		case c == '%':
			for i < len(stream) && stream[i] != '\n' && stream[i] != '\r' {
				i++
			}
		case isDelimiterOrSpace(c):
			i++
		default:
			start := i
			for i < len(stream) && !isDelimiterOrSpace(stream[i]) && stream[i] != '(' && stream[i] != '<' {
				i++
			}
			if i == start {
				i++
				continue
			}
			switch string(stream[start:i]) {
			case "Tj", "TJ":
				flush("")
			case "'", "\"":
				flush("\n")
			case "Td", "TD", "T*", "ET":
				if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
					out.WriteByte('\n')
				}
				pending = pending[:0]
			}
		}
	}
	return out.String()
}

func isDelimiterOrSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '[', ']', '{', '}', '/', ')', '>':
		return true
	}
	return false
}

// readLiteral reads a balanced literal string starting at stream[start] == '('.
func readLiteral(stream []byte, start int) (string, int) {
	var b strings.Builder
	depth := 0
	i := start
	for i < len(stream) {
		c := stream[i]
		switch {
		case c == '\\' && i+1 < len(stream):
			i++
			switch e := stream[i]; e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
			default:
				if e >= '0' && e <= '7' {
					v := 0
					j := 0
					for ; j < 3 && i+j < len(stream) && stream[i+j] >= '0' && stream[i+j] <= '7'; j++ {
						v = v*8 + int(stream[i+j]-'0')
					}
					b.WriteByte(byte(v))
					i += j - 1
				} else {
					b.WriteByte(e)
				}
			}
		case c == '(':
			if depth > 0 {
				b.WriteByte(c)
			}
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return b.String(), i + 1
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
		i++
	}
	return b.String(), i
}

// decodeHexString decodes a <...> operand, keeping only printable single-byte text.
func decodeHexString(h []byte) string {
	clean := bytes.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') {
			return r
		}
		return -1
	}, h)
	if len(clean)%2 == 1 {
		clean = append(clean, '0')
	}
	raw := make([]byte, hex.DecodedLen(len(clean)))
	n, err := hex.Decode(raw, clean)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, c := range raw[:n] {
		if c >= 0x20 && c < 0x7f {
			b.WriteByte(c)
		}
	}
	return b.String()
}
