package cookies

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/elsanchez/tubefetch/internal/domain"
)

// ErrNoCookies is returned when a file holds no usable cookie lines
var ErrNoCookies = errors.New("no valid cookies found")

// NetscapeCookie represents a single cookie from Netscape format
type NetscapeCookie struct {
	Domain     string
	Flag       string
	Path       string
	Secure     bool
	Expiration int64 // Unix timestamp, 0 for session cookies
	Name       string
	Value      string
}

// Expired reports whether the cookie expired before now. Session cookies never do.
func (c NetscapeCookie) Expired(now time.Time) bool {
	return c.Expiration > 0 && c.Expiration < now.Unix()
}

// HTTPCookie converts to a net/http cookie. ok is false when net/http would reject the value.
func (c NetscapeCookie) HTTPCookie() (*http.Cookie, bool) {
	if strings.ContainsAny(c.Value, "\\\"") {
		return nil, false
	}

	cookie := &http.Cookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: strings.TrimPrefix(c.Domain, "."),
		Path:   c.Path,
		Secure: c.Secure,
	}
	if c.Expiration > 0 {
		cookie.Expires = time.Unix(c.Expiration, 0)
	}
	return cookie, true
}

// CookieParser handles parsing of Netscape cookie format files
type CookieParser struct{}

// NewCookieParser creates a new cookie parser
func NewCookieParser() *CookieParser {
	return &CookieParser{}
}

// ParseFile parses a Netscape format cookie file
func (p *CookieParser) ParseFile(path string) ([]NetscapeCookie, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cookie file: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// Parse reads cookies in the format: domain flag path secure expiration name value
func (p *CookieParser) Parse(r io.Reader) ([]NetscapeCookie, error) {
	var cookies []NetscapeCookie
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		// curl writes HttpOnly cookies with this prefix
		line = strings.TrimPrefix(line, "#HttpOnly_")

		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			fields = strings.Fields(line)
			if len(fields) < 7 {
				return nil, fmt.Errorf("line %d: invalid format (expected 7 fields, got %d)", lineNum, len(fields))
			}
		}

		expiration, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid expiration timestamp: %w", lineNum, err)
		}

		value := fields[6]
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		cookies = append(cookies, NetscapeCookie{
			Domain:     fields[0],
			Flag:       fields[1],
			Path:       fields[2],
			Secure:     strings.EqualFold(fields[3], "TRUE"),
			Expiration: expiration,
			Name:       fields[5],
			Value:      value,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}

	if len(cookies) == 0 {
		return nil, ErrNoCookies
	}

	return cookies, nil
}

// FindEarliestExpiration returns the earliest expiration among persistent cookies
func (p *CookieParser) FindEarliestExpiration(cookies []NetscapeCookie) time.Time {
	var earliest int64
	for _, cookie := range cookies {
		if cookie.Expiration <= 0 {
			continue
		}
		if earliest == 0 || cookie.Expiration < earliest {
			earliest = cookie.Expiration
		}
	}

	if earliest == 0 {
		return time.Time{}
	}
	return time.Unix(earliest, 0)
}

// DetectPlatform returns "youtube" when the cookies belong to a YouTube/Google login
func (p *CookieParser) DetectPlatform(cookies []NetscapeCookie) string {
	for _, cookie := range cookies {
		if isYouTubeDomain(cookie.Domain) {
			return domain.PlatformYouTube
		}
	}
	return ""
}

// GetDomains returns a list of unique domains in the cookies
func (p *CookieParser) GetDomains(cookies []NetscapeCookie) []string {
	seen := make(map[string]bool)
	var domains []string
	for _, cookie := range cookies {
		d := strings.TrimPrefix(cookie.Domain, ".")
		if !seen[d] {
			seen[d] = true
			domains = append(domains, d)
		}
	}
	return domains
}

// LoadJar builds a cookie jar from a Netscape cookie file
func LoadJar(path string) (http.CookieJar, error) {
	cookies, err := NewCookieParser().ParseFile(path)
	if err != nil {
		return nil, err
	}
	return NewJar(cookies)
}

// NewJar groups cookies by host and loads them into a fresh jar.
// Cookies net/http would reject are skipped.
func NewJar(cookies []NetscapeCookie) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	byHost := make(map[string][]*http.Cookie)
	for _, c := range cookies {
		cookie, ok := c.HTTPCookie()
		if !ok || cookie.Domain == "" {
			continue
		}
		byHost[cookie.Domain] = append(byHost[cookie.Domain], cookie)
	}

	for host, list := range byHost {
		jar.SetCookies(&url.URL{Scheme: "https", Host: host, Path: "/"}, list)
	}

	return jar, nil
}

func isYouTubeDomain(d string) bool {
	d = strings.ToLower(strings.TrimPrefix(d, "."))
	for _, suffix := range []string{"youtube.com", "youtu.be", "google.com"} {
		if d == suffix || strings.HasSuffix(d, "."+suffix) {
			return true
		}
	}
	return false
}
