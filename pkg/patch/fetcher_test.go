package patch

import (
	"context"
	"fmt"
	"hash/crc32"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const demoProgram = "10 PRINT \"HELLO\"\n20 GOTO 10\n"

func newTestServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPlainProgram(t *testing.T) {
	srv := newTestServer(t, map[string]string{"/demo.bas": demoProgram})
	f := NewFetcher()
	got, err := f.Fetch(context.Background(), srv.URL+"/demo.bas")
	if err != nil {
		t.Fatal(err)
	}
	if got != demoProgram {
		t.Errorf("Fetch = %q, want %q", got, demoProgram)
	}
}

func TestFetchAppliesPatchFile(t *testing.T) {
	patchBody := "' curated fix\n" +
		"\"/demo.bas\"\n" +
		"20 END\n" +
		"30 REM ADDED\n"
	srv := newTestServer(t, map[string]string{
		"/demo.bas": demoProgram,
	})
	// The patch references the source relative to the same server.
	patchBody = strings.Replace(patchBody, "/demo.bas", srv.URL+"/demo.bas", 1)
	files := map[string]string{
		"/demo.bas": demoProgram,
		"/demo.bpf": patchBody,
	}
	srv2 := newTestServer(t, files)

	f := NewFetcher()
	got, err := f.Fetch(context.Background(), srv2.URL+"/demo.bpf")
	if err != nil {
		t.Fatal(err)
	}
	want := "10 PRINT \"HELLO\"\n20 END\n30 REM ADDED\n"
	if got != want {
		t.Errorf("patched program = %q, want %q", got, want)
	}
}

func TestFetchPatchDeletesLines(t *testing.T) {
	srv := newTestServer(t, map[string]string{"/demo.bas": demoProgram})
	patchBody := fmt.Sprintf("\"%s/demo.bas\"\n20\n", srv.URL)
	files := map[string]string{"/fix.bpf": patchBody, "/demo.bas": demoProgram}
	srv2 := newTestServer(t, files)

	f := NewFetcher()
	got, err := f.Fetch(context.Background(), srv2.URL+"/fix.bpf")
	if err != nil {
		t.Fatal(err)
	}
	if got != "10 PRINT \"HELLO\"\n" {
		t.Errorf("got %q", got)
	}
}

func TestFetchVerifiesChecksum(t *testing.T) {
	srv := newTestServer(t, map[string]string{"/demo.bas": demoProgram})
	good := crc32.ChecksumIEEE([]byte(demoProgram))

	okPatch := fmt.Sprintf("\"%s/demo.bas\" %08X\n20 END\n", srv.URL, good)
	badPatch := fmt.Sprintf("\"%s/demo.bas\" %08X\n20 END\n", srv.URL, good^0xFFFF)
	srv2 := newTestServer(t, map[string]string{"/ok.bpf": okPatch, "/bad.bpf": badPatch})

	f := NewFetcher()
	if _, err := f.Fetch(context.Background(), srv2.URL+"/ok.bpf"); err != nil {
		t.Errorf("matching checksum rejected: %v", err)
	}
	if _, err := f.Fetch(context.Background(), srv2.URL+"/bad.bpf"); err == nil {
		t.Error("checksum mismatch accepted")
	} else if !strings.Contains(err.Error(), "checksum") {
		t.Errorf("error does not mention checksum: %v", err)
	}
}

func TestFetchRejectsMissingDocument(t *testing.T) {
	srv := newTestServer(t, nil)
	f := NewFetcher()
	if _, err := f.Fetch(context.Background(), srv.URL+"/absent.bas"); err == nil {
		t.Error("404 must fail")
	}
}

func TestFetchRejectsBadScheme(t *testing.T) {
	f := NewFetcher()
	if _, err := f.Fetch(context.Background(), "ftp://example.test/x"); err == nil {
		t.Error("ftp scheme must be rejected")
	}
}

func TestIsPatchFile(t *testing.T) {
	if isPatchFile(demoProgram) {
		t.Error("plain program misdetected as patch file")
	}
	if !isPatchFile("\n  \"http://example.test/x.bas\"\n10 END\n") {
		t.Error("patch file not detected")
	}
}
