package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/elsanchez/tubefetch/pkg/client"
)

// Comandos que hablan con tubefetchd por el socket

var (
	addQuality  string
	addOutput   string
	addWait     bool
	waitTimeout time.Duration
)

var addCmd = &cobra.Command{
	Use:     "add <url>",
	Short:   "Queue a download on the daemon",
	Example: `  tubefetch add https://youtu.be/dQw4w9WgXcQ -q 480p --wait`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(cfg.Paths.Socket)

		res, err := c.AddDownload(args[0], addQuality, addOutput)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Download added with ID: %d\n", res.ID)
		fmt.Printf("  URL:     %s\n", args[0])
		fmt.Printf("  Quality: %s\n", res.Quality)
		fmt.Printf("  Status:  %s\n", res.Status)

		if !addWait {
			return nil
		}
		fmt.Println()
		return waitAndPrint(c, res.ID, waitTimeout)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show the status of a download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		dl, err := client.NewClient(cfg.Paths.Socket).GetDownload(id)
		if err != nil {
			return err
		}
		printDownload(dl)
		return nil
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait <id>",
	Short: "Wait until a download finishes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return waitAndPrint(client.NewClient(cfg.Paths.Socket), id, waitTimeout)
	},
}

var listCmd = &cobra.Command{
	Use:   "list [limit]",
	Short: "List recent downloads (default: 50)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := 50
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid limit: %s", args[0])
			}
			limit = n
		}

		downloads, err := client.NewClient(cfg.Paths.Socket).ListRecentDownloads(limit)
		if err != nil {
			return err
		}

		if len(downloads) == 0 {
			fmt.Println("No downloads found")
			return nil
		}

		fmt.Printf("Recent downloads (%d):\n\n", len(downloads))
		for i := range downloads {
			printDownload(&downloads[i])
			fmt.Println()
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show queue statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := client.NewClient(cfg.Paths.Socket).Stats()
		if err != nil {
			return err
		}

		fmt.Println("Queue Statistics:")
		fmt.Println()
		fmt.Printf("  Pending:      %d\n", stats["pending"])
		fmt.Printf("  Downloading:  %d\n", stats["downloading"])
		fmt.Printf("  Processing:   %d\n", stats["processing"])
		fmt.Printf("  Completed:    %d\n", stats["completed"])
		fmt.Printf("  Failed:       %d\n", stats["failed"])
		fmt.Println()
		fmt.Printf("  Queued:       %d\n", stats["queued"])
		fmt.Printf("  Workers:      %d / %d busy\n", stats["workers_busy"], stats["workers_total"])
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the daemon is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.NewClient(cfg.Paths.Socket).Ping(); err != nil {
			return err
		}
		fmt.Println("✓ tubefetchd is running")
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addQuality, "quality", "q", "", "quality tier (default from daemon config)")
	addCmd.Flags().StringVarP(&addOutput, "output", "o", "", "output directory (default from daemon config)")
	addCmd.Flags().BoolVarP(&addWait, "wait", "w", false, "wait for the download to finish")

	for _, c := range []*cobra.Command{addCmd, waitCmd} {
		c.Flags().DurationVar(&waitTimeout, "timeout", 0, "give up waiting after this long (0 = no limit)")
	}

	rootCmd.AddCommand(addCmd, statusCmd, waitCmd, listCmd, statsCmd, pingCmd)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID: %s", s)
	}
	return id, nil
}

// waitAndPrint espera el resultado y retorna error si la descarga falló
func waitAndPrint(c *client.Client, id int64, timeout time.Duration) error {
	dl, err := c.WaitDownload(id, timeout)
	if err != nil {
		return err
	}
	printDownload(dl)

	if !dl.Finished() {
		return fmt.Errorf("download %d still %s", id, dl.Status)
	}
	if dl.Status == "failed" {
		return fmt.Errorf("download failed: %s", dl.ErrorKind)
	}
	return nil
}

func printDownload(dl *client.Download) {
	fmt.Printf("ID: %d\n", dl.ID)
	fmt.Printf("  URL:     %s\n", dl.URL)
	fmt.Printf("  Status:  %s\n", dl.Status)
	fmt.Printf("  Quality: %s", dl.Quality)
	if dl.ResolvedQuality != "" && dl.ResolvedQuality != dl.Quality {
		fmt.Printf(" → %s", dl.ResolvedQuality)
	}
	if dl.Plan != "" {
		fmt.Printf(" (%s)", dl.Plan)
	}
	fmt.Println()

	if dl.OutputPath != "" {
		fmt.Printf("  Output:  %s\n", dl.OutputPath)
	}
	if dl.Bytes > 0 {
		fmt.Printf("  Size:    %s\n", humanize.Bytes(uint64(dl.Bytes)))
	}
	if dl.UserMessage != "" {
		fmt.Printf("  Error:   %s\n", dl.UserMessage)
	}
	if dl.ErrorMessage != "" && dl.ErrorKind == "unknown_failure" {
		fmt.Printf("  Details: %s\n", dl.ErrorMessage)
	}
	fmt.Printf("  Added:   %s\n", humanize.Time(dl.CreatedAt))
}
