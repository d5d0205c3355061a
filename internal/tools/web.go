package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pdfx "github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"github.com/example/natural-agent/internal/llm"
	"github.com/example/natural-agent/internal/models"
	"github.com/example/natural-agent/internal/workspace"
)

const (
	webMaxBytes   = 2 << 20
	webUserAgent  = "natural-agent/0.1"
	webMaxPDFPage = 20
	chunkSize     = 8000
	chunkOverlap  = 200
)

// WebTool fetches a URL, extracts readable text (HTML, PDF, or plain), and
// summarizes it into outputs/web_summary.md.
type WebTool struct {
	Dirs   Dirs
	Client llm.Client
	// HTTPClient may be replaced in tests; nil means a default client whose
	// timeout the caller bounds through the run context.
	HTTPClient *http.Client
}

func (t *WebTool) Category() models.ToolCategory { return models.CategoryWeb }

func (t *WebTool) Run(ctx context.Context, req Request, dryRun bool, timeout time.Duration) models.ToolResult {
	if req.URL == "" {
		return failure(errors.New("web: missing url"), 1)
	}
	if dryRun {
		return models.ToolResult{OK: true, ExitCode: 0, Extra: map[string]string{"planned_url": req.URL}}
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, contentType, err := t.fetch(runCtx, req.URL)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return failure(fmt.Errorf("web: fetch timed out after %s", timeout), models.TimeoutExitCode)
		}
		return failure(err, 1)
	}

	rawPath, err := workspace.WriteFile(t.Dirs.Outputs+"/download_"+stamp()+rawExt(body, contentType), t.Dirs.Root, body)
	if err != nil {
		return failure(err, 1)
	}

	text, kind, err := t.extractText(body, contentType)
	if err != nil {
		return failure(err, 1)
	}
	if strings.TrimSpace(text) == "" {
		return failure(errors.New("web: no extractable text"), 1)
	}
	if t.Client == nil {
		return models.ToolResult{OK: true, ExitCode: 0, Stdout: "fetched " + req.URL,
			ArtifactPath: rawPath, Extra: map[string]string{"kind": kind}}
	}

	chunks := workspace.ChunkText(text, chunkSize, chunkOverlap)
	summary, err := t.Client.SummarizeChunks(runCtx,
		"Summarize the content into concise bullet points with key changes or highlights.", chunks)
	if err != nil {
		return failure(fmt.Errorf("web: summarize: %w", err), 1)
	}
	sumPath, err := workspace.WriteFile(t.Dirs.Outputs+"/web_summary.md", t.Dirs.Root, []byte(summary))
	if err != nil {
		return failure(err, 1)
	}
	return models.ToolResult{
		OK:           true,
		ExitCode:     0,
		Stdout:       summary,
		ArtifactPath: sumPath,
		Extra:        map[string]string{"download_path": rawPath, "kind": kind, "chunks": fmt.Sprint(len(chunks))},
	}
}

func (t *WebTool) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", webUserAgent)
	client := t.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("web: GET %s: status %d", url, resp.StatusCode)
	}
	lr := io.LimitedReader{R: resp.Body, N: webMaxBytes}
	body, err := io.ReadAll(&lr)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// extractText sniffs the payload (magic bytes first, content type second) and
// converts PDF and HTML to plain text; anything text-like passes through.
func (t *WebTool) extractText(body []byte, contentType string) (string, string, error) {
	switch {
	case strings.HasPrefix(string(body), "%PDF-") || strings.Contains(contentType, "pdf"):
		text, err := t.pdfToText(body)
		return text, "pdf", err
	case looksHTML(body, contentType):
		text, err := htmlToText(string(body))
		return text, "html", err
	case contentType == "" || strings.Contains(contentType, "text/") ||
		strings.Contains(contentType, "json") || strings.Contains(contentType, "csv") ||
		strings.Contains(contentType, "yaml") || strings.Contains(contentType, "xml"):
		return string(body), "plain", nil
	}
	return "", "", fmt.Errorf("web: unsupported content type %q", contentType)
}

func looksHTML(body []byte, contentType string) bool {
	if strings.Contains(contentType, "html") {
		return true
	}
	s := strings.ToLower(string(body[:min(len(body), 2048)]))
	return strings.Contains(s, "<html") || strings.Contains(s, "<!doctype html") || strings.Contains(s, "<body")
}

func rawExt(body []byte, contentType string) string {
	switch {
	case strings.HasPrefix(string(body), "%PDF-") || strings.Contains(contentType, "pdf"):
		return ".pdf"
	case looksHTML(body, contentType):
		return ".html"
	}
	return ".txt"
}

// htmlToText walks the parse tree, skipping script/style/noscript and
// inserting line breaks at block boundaries.
func htmlToText(htmlStr string) (string, error) {
	node, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	walkHTML(node, &b, false)
	return compactWhitespace(b.String()), nil
}

func walkHTML(n *html.Node, b *strings.Builder, hidden bool) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript":
			hidden = true
		case "br", "p", "div", "li", "tr", "h1", "h2", "h3":
			b.WriteString("\n")
		}
	}
	if !hidden && n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(c, b, hidden)
	}
}

func compactWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	var out []string
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}

// pdfToText extracts page text; the pdf library wants a file path, so the
// payload lands in workspace/tmp first.
func (t *WebTool) pdfToText(body []byte) (string, error) {
	path, err := workspace.WriteFile(t.Dirs.Tmp+"/download_"+stamp()+".pdf", t.Dirs.Root, body)
	if err != nil {
		return "", err
	}
	f, r, err := pdfx.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	pages := r.NumPage()
	if pages > webMaxPDFPage {
		pages = webMaxPDFPage
	}
	var out strings.Builder
	for i := 1; i <= pages; i++ {
		txt, _ := r.Page(i).GetPlainText(nil)
		if s := strings.TrimSpace(txt); s != "" {
			out.WriteString(s)
			out.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(out.String()), nil
}
