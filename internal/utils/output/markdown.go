package output

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/labscrape/internal/utils/url"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SnapshotName turns a page URL into a file name for its snapshot
func SnapshotName(pageURL string) string {
	name := pageURL
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}
	name = strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
	if len(name) > 120 {
		name = name[:120]
	}
	if name == "" {
		name = "page"
	}
	return name + ".md"
}

// ToMarkdown converts a page to GitHub-flavored Markdown with absolute links
func ToMarkdown(htmlContent, pageURL string) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			href, exists := selec.Attr("href")
			if !exists {
				return nil
			}
			str := fmt.Sprintf("[%s](%s)", strings.TrimSpace(selec.Text()), urlutil.ResolveURL(pageURL, href))
			return &str
		},
	})

	cleaned, err := CleanHTML(htmlContent)
	if err != nil {
		return "", err
	}
	return converter.ConvertString(cleaned)
}

// SaveMarkdown writes a Markdown snapshot of a page into dir and returns the
// file path
func SaveMarkdown(dir, htmlContent, pageURL string) (string, error) {
	mdStr, err := ToMarkdown(htmlContent, pageURL)
	if err != nil {
		return "", fmt.Errorf("convert snapshot: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, SnapshotName(pageURL))
	header := fmt.Sprintf("<!-- %s -->\n\n", pageURL)
	if err := os.WriteFile(path, []byte(header+mdStr), 0644); err != nil {
		return "", err
	}
	return path, nil
}
