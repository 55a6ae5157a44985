package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/keyframe-audio/pianissimo/logging"
)

// The University of Iowa Electronic Music Studios publishes free piano note
// recordings; the index page links the sample files directly.
const (
	uiowaBase = "https://theremin.music.uiowa.edu"
	uiowaPage = uiowaBase + "/MISpiano.html"
)

// Downloader fetches piano note samples into a local folder
type Downloader struct {
	client  *http.Client
	pageURL string
	logger  logging.Logger
}

// NewDownloader creates a downloader against the UIOWA piano index
func NewDownloader() *Downloader {
	return &Downloader{
		client:  &http.Client{Timeout: 60 * time.Second},
		pageURL: uiowaPage,
		logger: logging.WithFields(logging.Fields{
			"component": "uiowa_downloader",
		}),
	}
}

// NewDownloaderForPage creates a downloader against an arbitrary index page,
// used by tests against a local server
func NewDownloaderForPage(pageURL string, client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Downloader{
		client:  client,
		pageURL: pageURL,
		logger: logging.WithFields(logging.Fields{
			"component": "uiowa_downloader",
		}),
	}
}

// DiscoverLinks scrapes the index page for .aiff/.wav sample links,
// absolutized, deduplicated and sorted
func (d *Downloader) DiscoverLinks(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.pageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch index page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch index page: status %s", resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse index page: %w", err)
	}

	base, err := url.Parse(d.pageURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var links []string

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || attr.Val == "" {
					continue
				}
				lower := strings.ToLower(attr.Val)
				if !strings.HasSuffix(lower, ".aiff") && !strings.HasSuffix(lower, ".wav") {
					continue
				}
				ref, err := url.Parse(attr.Val)
				if err != nil {
					continue
				}
				abs := base.ResolveReference(ref).String()
				if !seen[abs] {
					seen[abs] = true
					links = append(links, abs)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)

	sort.Strings(links)
	return links, nil
}

// Download discovers sample links and fetches at most limit of them into
// outDir. Existing non-empty files are skipped so reruns resume cheaply.
func (d *Downloader) Download(ctx context.Context, outDir string, limit int) (int, error) {
	urls, err := d.DiscoverLinks(ctx)
	if err != nil {
		return 0, err
	}

	if len(urls) == 0 {
		return 0, fmt.Errorf("no sample links discovered from %s", d.pageURL)
	}

	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, err
	}

	d.logger.Info("downloading samples", logging.Fields{
		"count": len(urls),
		"out":   outDir,
	})

	downloaded := 0
	for i, sampleURL := range urls {
		name := filepath.Base(sampleURL)
		target := filepath.Join(outDir, name)

		if info, err := os.Stat(target); err == nil && info.Size() > 0 {
			d.logger.Debug("sample already present", logging.Fields{
				"index": i + 1,
				"name":  name,
			})
			continue
		}

		if err := d.fetchFile(ctx, sampleURL, target); err != nil {
			return downloaded, fmt.Errorf("download %s: %w", sampleURL, err)
		}
		downloaded++

		d.logger.Debug("sample downloaded", logging.Fields{
			"index": i + 1,
			"total": len(urls),
			"name":  name,
		})
	}

	return downloaded, nil
}

// fetchFile streams one URL to disk through a temp file
func (d *Downloader) fetchFile(ctx context.Context, sampleURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sampleURL, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %s", resp.Status)
	}

	tmp := target + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, target)
}
