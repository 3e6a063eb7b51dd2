package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/elsanchez/tubefetch/internal/cookies"
	"github.com/elsanchez/tubefetch/internal/domain"
	"github.com/elsanchez/tubefetch/internal/repository/sqlite"
)

// Gestión de cuentas con cookies de YouTube (videos con restricción de edad o privados)

var (
	accName       string
	accActivate   bool
	accNoValidate bool
	accForce      bool
	accBrowser    string
	accHTTP       bool
)

var accountsCmd = &cobra.Command{
	Use:     "accounts",
	Aliases: []string{"account"},
	Short:   "Manage YouTube cookie accounts",
}

var accountsImportCmd = &cobra.Command{
	Use:     "import <cookies.txt>",
	Short:   "Import a Netscape cookie file",
	Example: `  tubefetch accounts import ~/cookies.txt --name personal --activate`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sqlite.NewDatabase(cfg.Paths.DataDir)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer db.Close()

		importer := cookies.NewCookieImporter(db.AccountRepo, cfg.Paths.CookiesDir)
		acc, err := importer.Import(cmd.Context(), cookies.ImportOptions{
			FilePath: args[0],
			Name:     accName,
			Activate: accActivate,
			Validate: !accNoValidate,
			Force:    accForce,
		})
		if err != nil {
			return err
		}

		printImported(acc)
		return nil
	},
}

var accountsExtractCmd = &cobra.Command{
	Use:     "extract",
	Short:   "Import YouTube cookies straight from a local browser",
	Example: `  tubefetch accounts extract --browser firefox --activate`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tmpDir, err := os.MkdirTemp("", "tubefetch-cookies-")
		if err != nil {
			return fmt.Errorf("create temp dir: %w", err)
		}
		defer os.RemoveAll(tmpDir)

		tmpFile := filepath.Join(tmpDir, "cookies.txt")
		extracted, err := cookies.NewBrowserExtractor().Extract(cmd.Context(), cookies.ExtractOptions{
			Browser:    accBrowser,
			OutputPath: tmpFile,
		})
		if err != nil {
			return err
		}
		domains := cookies.NewCookieParser().GetDomains(extracted)
		fmt.Printf("✓ Extracted %d cookies (%s)\n", len(extracted), strings.Join(domains, ", "))

		db, err := sqlite.NewDatabase(cfg.Paths.DataDir)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer db.Close()

		name := accName
		if name == "" && accBrowser != "" {
			name = strings.ToLower(accBrowser)
		}

		acc, err := cookies.NewCookieImporter(db.AccountRepo, cfg.Paths.CookiesDir).Import(cmd.Context(), cookies.ImportOptions{
			FilePath: tmpFile,
			Name:     name,
			Activate: accActivate,
			Validate: !accNoValidate,
			Force:    accForce,
		})
		if err != nil {
			return err
		}

		printImported(acc)
		return nil
	},
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List imported accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sqlite.NewDatabase(cfg.Paths.DataDir)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer db.Close()

		accounts, err := db.AccountRepo.GetAll(cmd.Context(), domain.PlatformYouTube)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Println("No accounts found")
			return nil
		}

		for _, acc := range accounts {
			marker := " "
			if acc.IsActive {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, acc.Name)
			fmt.Printf("    Cookies:    %s\n", acc.CookiePath)
			fmt.Printf("    Validation: %s", acc.ValidationStatus)
			if acc.LastValidated != nil {
				fmt.Printf(" (%s)", humanize.Time(*acc.LastValidated))
			}
			fmt.Println()
			if acc.ValidationError != "" {
				fmt.Printf("    Message:    %s\n", acc.ValidationError)
			}
			if acc.LastUsed != nil {
				fmt.Printf("    Last used:  %s\n", humanize.Time(*acc.LastUsed))
			}
		}
		return nil
	},
}

var accountsUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the account used for downloads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sqlite.NewDatabase(cfg.Paths.DataDir)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer db.Close()

		if err := db.AccountRepo.SetActive(cmd.Context(), domain.PlatformYouTube, args[0]); err != nil {
			return fmt.Errorf("set active account: %w", err)
		}
		fmt.Printf("✓ Active account: %s\n", args[0])
		return nil
	},
}

var accountsValidateCmd = &cobra.Command{
	Use:   "validate [name]",
	Short: "Check whether account cookies are still valid",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sqlite.NewDatabase(cfg.Paths.DataDir)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer db.Close()

		ctx := cmd.Context()
		var accounts []*domain.Account
		if len(args) == 1 {
			acc, err := db.AccountRepo.GetByName(ctx, domain.PlatformYouTube, args[0])
			if err != nil {
				return fmt.Errorf("get account: %w", err)
			}
			accounts = append(accounts, acc)
		} else {
			accounts, err = db.AccountRepo.GetAll(ctx, domain.PlatformYouTube)
			if err != nil {
				return err
			}
		}

		validator := cookies.NewCookieValidator()
		for _, acc := range accounts {
			result, err := validator.ValidateAccount(ctx, acc, accHTTP)
			if err != nil {
				fmt.Printf("✗ %s: %v\n", acc.Name, err)
				continue
			}
			if err := db.AccountRepo.UpdateValidation(ctx, acc.ID, result.Status, result.Message); err != nil {
				return fmt.Errorf("update validation: %w", err)
			}

			mark := "✓"
			if !result.IsValid {
				mark = "✗"
			}
			fmt.Printf("%s %s: %s", mark, acc.Name, result.Status)
			if result.Message != "" {
				fmt.Printf(" (%s)", result.Message)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{accountsImportCmd, accountsExtractCmd} {
		c.Flags().StringVarP(&accName, "name", "n", "", "account name (default: generated)")
		c.Flags().BoolVarP(&accActivate, "activate", "a", false, "make this the active account")
		c.Flags().BoolVar(&accNoValidate, "no-validate", false, "skip the expiration check")
		c.Flags().BoolVarP(&accForce, "force", "f", false, "overwrite an account with the same name")
	}
	accountsExtractCmd.Flags().StringVarP(&accBrowser, "browser", "b", "", "browser to read from: "+strings.Join(cookies.SupportedBrowsers(), ", ")+" (default: any)")
	accountsValidateCmd.Flags().BoolVar(&accHTTP, "http", false, "check the session against youtube.com instead of expiration dates")

	accountsCmd.AddCommand(accountsImportCmd, accountsExtractCmd, accountsListCmd, accountsUseCmd, accountsValidateCmd)
	rootCmd.AddCommand(accountsCmd)
}

func printImported(acc *domain.Account) {
	fmt.Printf("✓ Account imported: %s\n", acc.Name)
	fmt.Printf("  Cookies:    %s\n", acc.CookiePath)
	fmt.Printf("  Validation: %s\n", acc.ValidationStatus)
	if acc.IsActive {
		fmt.Println("  Active:     yes")
	}
}
