package cookies

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/elsanchez/tubefetch/internal/domain"
	"github.com/elsanchez/tubefetch/internal/repository"
)

// ImportOptions contains options for importing a cookie file
type ImportOptions struct {
	FilePath string
	Name     string
	Activate bool
	Validate bool
	Force    bool // Overwrite existing account
}

// CookieImporter orchestrates the cookie import workflow
type CookieImporter struct {
	parser      *CookieParser
	validator   *CookieValidator
	accountRepo repository.AccountRepository
	cookieDir   string
}

// NewCookieImporter creates a new cookie importer that stores copies under cookieDir
func NewCookieImporter(accountRepo repository.AccountRepository, cookieDir string) *CookieImporter {
	return &CookieImporter{
		parser:      NewCookieParser(),
		validator:   NewCookieValidator(),
		accountRepo: accountRepo,
		cookieDir:   cookieDir,
	}
}

// Import copies a cookie file into the cookie directory and registers the account
func (i *CookieImporter) Import(ctx context.Context, opts ImportOptions) (*domain.Account, error) {
	if _, err := os.Stat(opts.FilePath); err != nil {
		return nil, fmt.Errorf("cookie file not found: %s", opts.FilePath)
	}

	cookies, err := i.parser.ParseFile(opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("parse cookie file: %w", err)
	}

	platform := i.parser.DetectPlatform(cookies)
	if platform == "" {
		return nil, errors.New("cookie file has no youtube.com or google.com cookies")
	}

	name := opts.Name
	if name == "" {
		name, err = i.generateUniqueName(ctx, platform, "account")
		if err != nil {
			return nil, fmt.Errorf("generate account name: %w", err)
		}
	}

	existing, err := i.accountRepo.GetByName(ctx, platform, name)
	if err == nil && existing != nil {
		if !opts.Force {
			return nil, fmt.Errorf("account already exists: %s/%s (use --force to overwrite)", platform, name)
		}
		if err := i.accountRepo.Delete(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("delete existing account: %w", err)
		}
	}

	if err := os.MkdirAll(i.cookieDir, 0700); err != nil {
		return nil, fmt.Errorf("create cookie directory: %w", err)
	}

	cookiePath := filepath.Join(i.cookieDir, fmt.Sprintf("%s_%s.txt", platform, name))

	absFilePath, _ := filepath.Abs(opts.FilePath)
	absCookiePath, _ := filepath.Abs(cookiePath)
	if absFilePath != absCookiePath {
		data, err := os.ReadFile(opts.FilePath)
		if err != nil {
			return nil, fmt.Errorf("read source cookie file: %w", err)
		}
		if err := os.WriteFile(cookiePath, data, 0600); err != nil {
			return nil, fmt.Errorf("write cookie file: %w", err)
		}
	}

	account := &domain.Account{
		Platform:         platform,
		Name:             name,
		CookiePath:       cookiePath,
		ValidationStatus: domain.ValidationUnknown,
	}

	id, err := i.accountRepo.Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	account.ID = id

	if opts.Validate {
		result := i.validator.ValidateExpiration(cookies)
		account.ValidationStatus = result.Status
		if !result.IsValid {
			account.ValidationError = result.Message
		}
		if err := i.accountRepo.UpdateValidation(ctx, id, account.ValidationStatus, account.ValidationError); err != nil {
			return nil, fmt.Errorf("update validation: %w", err)
		}
	}

	if opts.Activate {
		if err := i.accountRepo.SetActive(ctx, platform, name); err != nil {
			return nil, fmt.Errorf("set active: %w", err)
		}
		account.IsActive = true
	}

	return account, nil
}

// generateUniqueName generates a unique account name
func (i *CookieImporter) generateUniqueName(ctx context.Context, platform string, baseName string) (string, error) {
	existing, err := i.accountRepo.GetAll(ctx, platform)
	if err != nil {
		return "", err
	}

	existingNames := make(map[string]bool)
	for _, acc := range existing {
		existingNames[acc.Name] = true
	}

	if !existingNames[baseName] {
		return baseName, nil
	}

	for n := 2; n < 1000; n++ {
		name := fmt.Sprintf("%s_%d", baseName, n)
		if !existingNames[name] {
			return name, nil
		}
	}

	return "", fmt.Errorf("could not generate unique name after 1000 attempts")
}
