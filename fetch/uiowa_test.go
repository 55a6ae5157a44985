package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const indexHTML = `<html><body>
<a href="sounds/Piano.ff.C4.aiff">C4</a>
<a href="sounds/Piano.ff.D4.aiff">D4</a>
<a href="/sounds/Piano.ff.E4.wav">E4</a>
<a href="sounds/Piano.ff.C4.aiff">C4 again</a>
<a href="scores.pdf">score</a>
<a href="MIS.html">other page</a>
</body></html>`

func sampleServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(indexHTML))
	})
	mux.HandleFunc("/sounds/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio bytes for " + r.URL.Path))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscoverLinks(t *testing.T) {
	srv := sampleServer(t)
	d := NewDownloaderForPage(srv.URL+"/index.html", srv.Client())

	links, err := d.DiscoverLinks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(links) != 3 {
		t.Fatalf("expected 3 unique sample links, got %d: %v", len(links), links)
	}

	for _, link := range links {
		if !strings.HasPrefix(link, srv.URL) {
			t.Errorf("link not absolutized: %s", link)
		}
		lower := strings.ToLower(link)
		if !strings.HasSuffix(lower, ".aiff") && !strings.HasSuffix(lower, ".wav") {
			t.Errorf("non-sample link discovered: %s", link)
		}
	}

	for i := 1; i < len(links); i++ {
		if links[i-1] >= links[i] {
			t.Errorf("links not sorted: %s before %s", links[i-1], links[i])
		}
	}
}

func TestDiscoverLinksBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	d := NewDownloaderForPage(srv.URL+"/index.html", srv.Client())
	if _, err := d.DiscoverLinks(context.Background()); err == nil {
		t.Error("expected error for non-200 index page")
	}
}

func TestDownload(t *testing.T) {
	srv := sampleServer(t)
	d := NewDownloaderForPage(srv.URL+"/index.html", srv.Client())
	outDir := filepath.Join(t.TempDir(), "piano")

	n, err := d.Download(context.Background(), outDir, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 downloads, got %d", n)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 files on disk, got %d", len(entries))
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
		info, err := e.Info()
		if err != nil {
			t.Fatal(err)
		}
		if info.Size() == 0 {
			t.Errorf("empty download: %s", e.Name())
		}
	}
}

func TestDownloadLimit(t *testing.T) {
	srv := sampleServer(t)
	d := NewDownloaderForPage(srv.URL+"/index.html", srv.Client())
	outDir := t.TempDir()

	n, err := d.Download(context.Background(), outDir, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 downloads under limit, got %d", n)
	}
}

func TestDownloadResumes(t *testing.T) {
	srv := sampleServer(t)
	d := NewDownloaderForPage(srv.URL+"/index.html", srv.Client())
	outDir := t.TempDir()

	if _, err := d.Download(context.Background(), outDir, 0); err != nil {
		t.Fatalf("first run: %v", err)
	}

	n, err := d.Download(context.Background(), outDir, 0)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if n != 0 {
		t.Errorf("rerun should skip existing files, downloaded %d", n)
	}
}

func TestDownloadFailedSample(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="sounds/a.wav">a</a>`))
	})
	mux.HandleFunc("/sounds/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	d := NewDownloaderForPage(srv.URL+"/index.html", srv.Client())
	if _, err := d.Download(context.Background(), t.TempDir(), 0); err == nil {
		t.Error("expected error when a sample fetch fails")
	}
}
