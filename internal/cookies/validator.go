package cookies

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elsanchez/tubefetch/internal/domain"
)

// DefaultValidationEndpoint requires a signed-in session; anonymous requests get redirected to login
const DefaultValidationEndpoint = "https://www.youtube.com/account"

// ValidationResult contains the result of cookie validation
type ValidationResult struct {
	IsValid   bool
	Status    domain.ValidationStatus
	Message   string
	ExpiresAt *time.Time
}

// CookieValidator handles validation of cookies
type CookieValidator struct {
	parser     *CookieParser
	httpClient *http.Client
	endpoint   string
	now        func() time.Time
}

// NewCookieValidator creates a new cookie validator
func NewCookieValidator() *CookieValidator {
	return &CookieValidator{
		parser:     NewCookieParser(),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   DefaultValidationEndpoint,
		now:        time.Now,
	}
}

// WithEndpoint overrides the URL used for HTTP validation
func (v *CookieValidator) WithEndpoint(endpoint string, client *http.Client) *CookieValidator {
	v.endpoint = endpoint
	if client != nil {
		v.httpClient = client
	}
	return v
}

// ValidateFile validates a cookie file by checking expiration timestamps
func (v *CookieValidator) ValidateFile(path string) *ValidationResult {
	cookies, err := v.parser.ParseFile(path)
	if err != nil {
		return &ValidationResult{
			Status:  domain.ValidationInvalid,
			Message: fmt.Sprintf("failed to parse cookie file: %v", err),
		}
	}

	return v.ValidateExpiration(cookies)
}

// ValidateExpiration checks if cookies are expired
func (v *CookieValidator) ValidateExpiration(cookies []NetscapeCookie) *ValidationResult {
	if len(cookies) == 0 {
		return &ValidationResult{
			Status:  domain.ValidationInvalid,
			Message: "no cookies found",
		}
	}

	now := v.now()
	expiredCount := 0
	for _, cookie := range cookies {
		if cookie.Expired(now) {
			expiredCount++
		}
	}

	var expiresAt *time.Time
	if earliest := v.parser.FindEarliestExpiration(cookies); !earliest.IsZero() {
		expiresAt = &earliest
	}

	switch {
	case expiredCount == len(cookies):
		return &ValidationResult{
			Status:    domain.ValidationExpired,
			Message:   fmt.Sprintf("all %d cookies expired", len(cookies)),
			ExpiresAt: expiresAt,
		}
	case expiredCount > 0:
		return &ValidationResult{
			Status:    domain.ValidationExpired,
			Message:   fmt.Sprintf("%d of %d cookies expired", expiredCount, len(cookies)),
			ExpiresAt: expiresAt,
		}
	}

	msg := fmt.Sprintf("all %d cookies valid", len(cookies))
	if expiresAt != nil {
		msg += ", expires " + expiresAt.Format("2006-01-02")
	}
	return &ValidationResult{
		IsValid:   true,
		Status:    domain.ValidationValid,
		Message:   msg,
		ExpiresAt: expiresAt,
	}
}

// ValidateHTTP sends the cookies to a page that needs a session.
// Non-critical cookies may expire while the login ones stay valid, so this
// runs regardless of expiration.
func (v *CookieValidator) ValidateHTTP(ctx context.Context, cookiePath string) (*ValidationResult, error) {
	cookies, err := v.parser.ParseFile(cookiePath)
	if err != nil {
		return &ValidationResult{
			Status:  domain.ValidationInvalid,
			Message: fmt.Sprintf("failed to load cookies: %v", err),
		}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for _, c := range cookies {
		if !isYouTubeDomain(c.Domain) || c.Expired(v.now()) {
			continue
		}
		if cookie, ok := c.HTTPCookie(); ok {
			req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
		}
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return &ValidationResult{
			Status:  domain.ValidationUnknown,
			Message: fmt.Sprintf("HTTP request failed: %v", err),
		}, nil
	}
	defer resp.Body.Close()

	// Sesión inválida: YouTube redirige a la página de login
	if resp.Request != nil && strings.Contains(resp.Request.URL.Host, "accounts.google.com") {
		return &ValidationResult{
			Status:  domain.ValidationInvalid,
			Message: "session rejected (redirected to login)",
		}, nil
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return &ValidationResult{
			IsValid: true,
			Status:  domain.ValidationValid,
			Message: "HTTP validation successful",
		}, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ValidationResult{
			Status:  domain.ValidationInvalid,
			Message: fmt.Sprintf("authentication failed (HTTP %d)", resp.StatusCode),
		}, nil
	}

	return &ValidationResult{
		Status:  domain.ValidationUnknown,
		Message: fmt.Sprintf("unexpected HTTP status: %d", resp.StatusCode),
	}, nil
}

// ValidateAccount validates an account's cookies by expiration, or over HTTP when useHTTP is set
func (v *CookieValidator) ValidateAccount(ctx context.Context, account *domain.Account, useHTTP bool) (*ValidationResult, error) {
	if useHTTP {
		return v.ValidateHTTP(ctx, account.CookiePath)
	}
	return v.ValidateFile(account.CookiePath), nil
}
