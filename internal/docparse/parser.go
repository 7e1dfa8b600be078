package docparse

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	appErr "github.com/senseops/diagd/internal/pkg/errors"
)

// Page holds the extracted text of one source page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// ExtractPages extracts text page by page. A failure to read a single page
// degrades to empty text for that page; only content that cannot be parsed
// as the expected format at all yields ErrIngestion.
func ExtractPages(ctx context.Context, content []byte, filename string) ([]Page, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return []Page{{Number: 1, Text: flattenMarkdown(content)}}, nil
	case ".txt":
		return []Page{{Number: 1, Text: string(content)}}, nil
	default:
		return extractPDF(ctx, content)
	}
}

func extractPDF(ctx context.Context, content []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrIngestion, err)
	}
	total := reader.NumPage()
	pages := make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := Page{Number: i}
		p := reader.Page(i)
		if !p.V.IsNull() {
			fonts := make(map[string]*pdf.Font)
			content, err := p.GetPlainText(fonts)
			if err != nil {
				logutil.GetLogger(ctx).Warn("page extraction failed", zap.Int("page", i), zap.Error(err))
			} else {
				page.Text = content
			}
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func flattenMarkdown(content []byte) string {
	md := goldmark.New()
	reader := text.NewReader(content)
	doc := md.Parser().Parse(reader)
	var sb strings.Builder
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Text:
			sb.Write(n.Segment.Value(content))
			if n.HardLineBreak() || n.SoftLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.Heading, *ast.Paragraph, *ast.ListItem, *ast.Blockquote:
			sb.WriteString("\n\n")
		case *ast.FencedCodeBlock:
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				sb.Write(line.Value(content))
			}
			sb.WriteString("\n\n")
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
