package cookies

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/browserutils/kooky"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elsanchez/tubefetch/internal/domain"
	"github.com/elsanchez/tubefetch/internal/repository/sqlite"
)

func future() string { return strconv.FormatInt(time.Now().Add(24*time.Hour).Unix(), 10) }
func past() string   { return strconv.FormatInt(time.Now().Add(-24*time.Hour).Unix(), 10) }

func writeCookieFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.txt")
	content := "# Netscape HTTP Cookie File\n" + strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"",
		".youtube.com\tTRUE\t/\tTRUE\t" + future() + "\tSID\tabc",
		"#HttpOnly_.youtube.com\tTRUE\t/\tTRUE\t0\tHSID\t\"quoted\"",
	}, "\n")

	cookies, err := NewCookieParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, ".youtube.com", cookies[0].Domain)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, "SID", cookies[0].Name)
	assert.Equal(t, "quoted", cookies[1].Value)
	assert.Equal(t, int64(0), cookies[1].Expiration)
}

func TestParse_Errors(t *testing.T) {
	_, err := NewCookieParser().Parse(strings.NewReader("# only comments\n"))
	assert.ErrorIs(t, err, ErrNoCookies)

	_, err = NewCookieParser().Parse(strings.NewReader("a\tb\tc\n"))
	assert.ErrorContains(t, err, "line 1")

	_, err = NewCookieParser().Parse(strings.NewReader(".youtube.com\tTRUE\t/\tTRUE\tsoon\tSID\tabc\n"))
	assert.ErrorContains(t, err, "expiration")
}

func TestDetectPlatform(t *testing.T) {
	p := NewCookieParser()

	assert.Equal(t, domain.PlatformYouTube, p.DetectPlatform([]NetscapeCookie{{Domain: ".google.com"}}))
	assert.Equal(t, domain.PlatformYouTube, p.DetectPlatform([]NetscapeCookie{{Domain: "www.youtube.com"}}))
	assert.Empty(t, p.DetectPlatform([]NetscapeCookie{{Domain: ".notyoutube.org"}}))
}

func TestLoadJar(t *testing.T) {
	path := writeCookieFile(t,
		".youtube.com\tTRUE\t/\tTRUE\t"+future()+"\tSID\tabc",
		".youtube.com\tTRUE\t/\tTRUE\t"+future()+"\tBAD\tva\"lue",
		".youtube.com\tTRUE\t/\tTRUE\t"+past()+"\tOLD\tgone",
	)

	jar, err := LoadJar(path)
	require.NoError(t, err)

	got := jar.Cookies(&url.URL{Scheme: "https", Host: "www.youtube.com", Path: "/watch"})
	require.Len(t, got, 1)
	assert.Equal(t, "SID", got[0].Name)
	assert.Equal(t, "abc", got[0].Value)
}

func TestValidateExpiration(t *testing.T) {
	v := NewCookieValidator()

	valid := v.ValidateExpiration([]NetscapeCookie{{Expiration: time.Now().Add(time.Hour).Unix()}, {Expiration: 0}})
	assert.True(t, valid.IsValid)
	assert.Equal(t, domain.ValidationValid, valid.Status)
	require.NotNil(t, valid.ExpiresAt)

	partial := v.ValidateExpiration([]NetscapeCookie{{Expiration: 1}, {Expiration: time.Now().Add(time.Hour).Unix()}})
	assert.False(t, partial.IsValid)
	assert.Equal(t, domain.ValidationExpired, partial.Status)
	assert.Contains(t, partial.Message, "1 of 2")

	empty := v.ValidateExpiration(nil)
	assert.Equal(t, domain.ValidationInvalid, empty.Status)
}

func TestValidateHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("SID"); err == nil && c.Value == "good" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	v := NewCookieValidator().WithEndpoint(server.URL, server.Client())

	good := writeCookieFile(t, ".youtube.com\tTRUE\t/\tTRUE\t"+future()+"\tSID\tgood")
	result, err := v.ValidateHTTP(context.Background(), good)
	require.NoError(t, err)
	assert.True(t, result.IsValid)

	bad := writeCookieFile(t, ".youtube.com\tTRUE\t/\tTRUE\t"+future()+"\tSID\tstale")
	result, err = v.ValidateHTTP(context.Background(), bad)
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationInvalid, result.Status)
}

func TestImporter(t *testing.T) {
	db, err := sqlite.NewDatabase(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	cookieDir := filepath.Join(t.TempDir(), "cookies")
	importer := NewCookieImporter(db.AccountRepo, cookieDir)

	src := writeCookieFile(t, ".youtube.com\tTRUE\t/\tTRUE\t"+future()+"\tSID\tabc")

	acc, err := importer.Import(ctx, ImportOptions{FilePath: src, Activate: true, Validate: true})
	require.NoError(t, err)
	assert.Equal(t, "account", acc.Name)
	assert.Equal(t, domain.ValidationValid, acc.ValidationStatus)
	assert.FileExists(t, filepath.Join(cookieDir, "youtube_account.txt"))

	active, err := db.AccountRepo.GetActive(ctx, domain.PlatformYouTube)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, acc.ID, active.ID)

	second, err := importer.Import(ctx, ImportOptions{FilePath: src})
	require.NoError(t, err)
	assert.Equal(t, "account_2", second.Name)

	_, err = importer.Import(ctx, ImportOptions{FilePath: src, Name: "account"})
	assert.ErrorContains(t, err, "already exists")

	_, err = importer.Import(ctx, ImportOptions{FilePath: src, Name: "account", Force: true})
	assert.NoError(t, err)

	other := writeCookieFile(t, ".example.org\tTRUE\t/\tTRUE\t"+future()+"\tSID\tabc")
	_, err = importer.Import(ctx, ImportOptions{FilePath: other})
	assert.Error(t, err)
}

func TestExtract(t *testing.T) {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	e := &BrowserExtractor{read: func(ctx context.Context, filters ...kooky.Filter) ([]*kooky.Cookie, error) {
		c := &kooky.Cookie{}
		c.Name = "SID"
		c.Value = "abc"
		c.Domain = "youtube.com"
		c.Path = "/"
		c.Secure = true
		c.Expires = expires
		return []*kooky.Cookie{c}, nil
	}}

	out := filepath.Join(t.TempDir(), "yt.txt")
	cookies, err := e.Extract(context.Background(), ExtractOptions{OutputPath: out})
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, ".youtube.com", cookies[0].Domain)

	parsed, err := NewCookieParser().ParseFile(out)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, expires.Unix(), parsed[0].Expiration)

	failing := &BrowserExtractor{read: func(ctx context.Context, filters ...kooky.Filter) ([]*kooky.Cookie, error) {
		return nil, errors.New("no profiles")
	}}
	_, err = failing.Extract(context.Background(), ExtractOptions{})
	assert.Error(t, err)
}
