package cookies

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/chromium"
	_ "github.com/browserutils/kooky/browser/edge"
	_ "github.com/browserutils/kooky/browser/firefox"
	_ "github.com/browserutils/kooky/browser/opera"
)

// DefaultExtractDomain is where the YouTube login cookies live
const DefaultExtractDomain = "youtube.com"

// SupportedBrowsers returns a list of supported browser names
func SupportedBrowsers() []string {
	return []string{"chrome", "chromium", "firefox", "edge", "opera"}
}

// ExtractOptions contains options for browser cookie extraction
type ExtractOptions struct {
	Browser    string // empty means any browser
	Domain     string // defaults to youtube.com
	OutputPath string // Netscape file to write, optional
}

// BrowserExtractor reads cookies from local browser profiles
type BrowserExtractor struct {
	read func(ctx context.Context, filters ...kooky.Filter) ([]*kooky.Cookie, error)
}

// NewBrowserExtractor creates a new browser cookie extractor
func NewBrowserExtractor() *BrowserExtractor {
	return &BrowserExtractor{read: func(ctx context.Context, filters ...kooky.Filter) ([]*kooky.Cookie, error) {
		return kooky.ReadCookies(ctx, filters...)
	}}
}

// Extract reads the cookies for a domain and optionally saves them in Netscape format
func (e *BrowserExtractor) Extract(ctx context.Context, opts ExtractOptions) ([]NetscapeCookie, error) {
	browser := strings.ToLower(opts.Browser)
	domainName := opts.Domain
	if domainName == "" {
		domainName = DefaultExtractDomain
	}

	cookies, err := e.read(ctx, kooky.DomainHasSuffix(domainName))
	if err != nil && len(cookies) == 0 {
		return nil, fmt.Errorf("read cookies from browser: %w", err)
	}

	netscape := make([]NetscapeCookie, 0, len(cookies))
	for _, cookie := range cookies {
		if browser != "" {
			if cookie.Browser == nil || !strings.Contains(strings.ToLower(cookie.Browser.Browser()), browser) {
				continue
			}
		}
		netscape = append(netscape, fromKooky(cookie))
	}

	if len(netscape) == 0 {
		return nil, fmt.Errorf("no cookies found for browser '%s' and domain '%s'", opts.Browser, domainName)
	}

	if opts.OutputPath != "" {
		if err := WriteNetscape(opts.OutputPath, netscape); err != nil {
			return nil, fmt.Errorf("save cookies: %w", err)
		}
	}

	return netscape, nil
}

func fromKooky(cookie *kooky.Cookie) NetscapeCookie {
	d := cookie.Domain
	if d != "" && !strings.HasPrefix(d, ".") {
		d = "." + d
	}

	expiration := cookie.Expires.Unix()
	if cookie.Expires.IsZero() || expiration < 0 {
		expiration = 0
	}

	return NetscapeCookie{
		Domain:     d,
		Flag:       "TRUE",
		Path:       cookie.Path,
		Secure:     cookie.Secure,
		Expiration: expiration,
		Name:       cookie.Name,
		Value:      cookie.Value,
	}
}

// WriteNetscape writes cookies in the format yt-dlp and curl read
func WriteNetscape(path string, cookies []NetscapeCookie) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintln(w, "# Netscape HTTP Cookie File")

	for _, cookie := range cookies {
		secure := "FALSE"
		if cookie.Secure {
			secure = "TRUE"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			cookie.Domain, cookie.Flag, cookie.Path, secure, cookie.Expiration, cookie.Name, cookie.Value)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write cookies: %w", err)
	}
	return file.Close()
}
