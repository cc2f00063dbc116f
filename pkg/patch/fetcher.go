package patch

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/antibyte/basic64/pkg/configuration"
	"github.com/antibyte/basic64/pkg/logger"
)

// Fetcher retrieves program text over HTTP for LOAD with a URL argument.
// The retrieved document is either a plain numbered program, returned as-is,
// or a patch file: a quoted source URL with an optional CRC32 checksum,
// followed by numbered replacement lines applied on top of the source
// program. Patch files let a curator fix up historic listings without
// rehosting them.
type Fetcher struct {
	client  *http.Client
	baseURL string
	maxSize int64
}

// NewFetcher builds a Fetcher from the [Network] configuration section.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: configuration.GetDuration("Network", "fetch_timeout", 15*time.Second),
		},
		baseURL: configuration.GetString("Network", "patch_base_url", ""),
		maxSize: int64(configuration.GetInt("Network", "max_fetch_size", 256*1024)),
	}
}

// Fetch resolves location against the configured base URL, downloads it and
// applies patch-file processing when the document is a patch file.
func (f *Fetcher) Fetch(ctx context.Context, location string) (string, error) {
	resolved, err := f.resolve(location)
	if err != nil {
		return "", err
	}
	body, err := f.download(ctx, resolved)
	if err != nil {
		return "", err
	}
	if !isPatchFile(body) {
		return body, nil
	}
	return f.applyPatchFile(ctx, resolved, body)
}

func (f *Fetcher) resolve(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("bad location %q: %w", location, err)
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
		}
		return location, nil
	}
	if f.baseURL == "" {
		return "", fmt.Errorf("relative location %q without a configured base URL", location)
	}
	base, err := url.Parse(f.baseURL)
	if err != nil {
		return "", fmt.Errorf("bad base URL %q: %w", f.baseURL, err)
	}
	return base.ResolveReference(u).String(), nil
}

func (f *Fetcher) download(ctx context.Context, loc string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		logger.NetworkWarn("fetch %s failed: %v", loc, err)
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.NetworkWarn("fetch %s: status %d", loc, resp.StatusCode)
		return "", fmt.Errorf("fetch %s: %s", loc, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > f.maxSize {
		return "", fmt.Errorf("fetch %s: document exceeds %d bytes", loc, f.maxSize)
	}
	logger.Debug(logger.AreaNetwork, "fetched %s (%d bytes)", loc, len(data))
	return string(data), nil
}

// isPatchFile reports whether the first non-blank line is a quoted source
// reference.
func isPatchFile(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.HasPrefix(line, `"`)
	}
	return false
}

// applyPatchFile fetches the quoted source program, verifies its checksum
// when one is declared, and overlays the patch's numbered lines. A patch
// line with a bare number deletes that program line. Lines starting with an
// apostrophe are curator comments.
func (f *Fetcher) applyPatchFile(ctx context.Context, patchLoc, body string) (string, error) {
	var srcURL string
	var wantCRC uint32
	var hasCRC bool
	var patches []patchLine

	for n, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(strings.TrimRight(raw, "\r"))
		switch {
		case line == "" || strings.HasPrefix(line, "'"):
			continue
		case strings.HasPrefix(line, `"`):
			if srcURL != "" {
				return "", fmt.Errorf("patch line %d: duplicate source reference", n+1)
			}
			var err error
			srcURL, wantCRC, hasCRC, err = parseSourceRef(line)
			if err != nil {
				return "", fmt.Errorf("patch line %d: %w", n+1, err)
			}
		default:
			pl, err := parsePatchLine(line)
			if err != nil {
				return "", fmt.Errorf("patch line %d: %w", n+1, err)
			}
			patches = append(patches, pl)
		}
	}
	if srcURL == "" {
		return "", fmt.Errorf("patch file %s has no source reference", patchLoc)
	}

	resolved, err := f.resolve(srcURL)
	if err != nil {
		return "", err
	}
	source, err := f.download(ctx, resolved)
	if err != nil {
		return "", err
	}
	if hasCRC {
		if got := crc32.ChecksumIEEE([]byte(source)); got != wantCRC {
			return "", fmt.Errorf("source %s checksum mismatch: have %08X, want %08X", resolved, got, wantCRC)
		}
	}
	return overlay(source, patches), nil
}

type patchLine struct {
	number int
	text   string // empty means delete the line
}

// parseSourceRef parses `"URL" [CRC32]` or the unterminated `"URL [CRC32]`
// form found in historic patch files.
func parseSourceRef(line string) (string, uint32, bool, error) {
	rest := line[1:]
	if end := strings.IndexByte(rest, '"'); end >= 0 {
		rest = rest[:end] + " " + strings.TrimSpace(rest[end+1:])
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", 0, false, fmt.Errorf("empty source reference")
	}
	if len(fields) == 1 {
		return fields[0], 0, false, nil
	}
	crc, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 32)
	if err != nil {
		return "", 0, false, fmt.Errorf("bad checksum %q", fields[1])
	}
	return fields[0], uint32(crc), true, nil
}

func parsePatchLine(line string) (patchLine, error) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 {
		return patchLine{}, fmt.Errorf("expected a line number, got %q", line)
	}
	number, err := strconv.Atoi(line[:i])
	if err != nil {
		return patchLine{}, err
	}
	return patchLine{number: number, text: strings.TrimSpace(line[i:])}, nil
}

// overlay applies the patch lines to a numbered program text and returns the
// merged listing in line order. Source lines that do not carry a number are
// preserved in place ahead of the numbered merge.
func overlay(source string, patches []patchLine) string {
	lines := map[int]string{}
	var prefix []string
	for _, raw := range strings.Split(source, "\n") {
		raw = strings.TrimRight(raw, "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		pl, err := parsePatchLine(strings.TrimSpace(raw))
		if err != nil {
			prefix = append(prefix, raw)
			continue
		}
		lines[pl.number] = strings.TrimSpace(raw)
	}
	for _, p := range patches {
		if p.text == "" {
			delete(lines, p.number)
			continue
		}
		lines[p.number] = fmt.Sprintf("%d %s", p.number, p.text)
	}
	numbers := make([]int, 0, len(lines))
	for n := range lines {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	out := make([]string, 0, len(prefix)+len(numbers))
	out = append(out, prefix...)
	for _, n := range numbers {
		out = append(out, lines[n])
	}
	return strings.Join(out, "\n") + "\n"
}
