package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/diogo/pplx-search-go/internal/auth"
	"github.com/diogo/pplx-search-go/internal/config"
	"github.com/diogo/pplx-search-go/internal/history"
	"github.com/diogo/pplx-search-go/internal/ui"
	"github.com/diogo/pplx-search-go/pkg/client"
	"github.com/diogo/pplx-search-go/pkg/models"
	"github.com/spf13/cobra"
)

var (
	// Flags
	flagRecency    string
	flagOutputFile string
	flagJSON       bool
	flagNoHistory  bool
	flagTokenFile  string
	flagVerbose    bool

	// Global config
	cfg    *config.Config
	cfgMgr *config.Manager
	render *ui.Renderer
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "pplx [query]",
	Short: "Synchronous AI web search from your terminal",
	Long: `pplx turns the streaming Perplexity search API into a single
synchronous call and renders a fixed Answer / Sources / Meta report.

Examples:
  pplx "What is the capital of France?"
  pplx "Latest Go release notes" --recency week
  pplx "Summarize this week in AI" --json`,
	Args: cobra.ArbitraryArgs,
	RunE: runQuery,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().StringVarP(&flagRecency, "recency", "r", "", "Recency filter (day, week, month, year)")
	rootCmd.Flags().StringVarP(&flagOutputFile, "output", "o", "", "Save the answer to a file")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the raw result as JSON")
	rootCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "Don't save this query to history")
	rootCmd.Flags().StringVar(&flagTokenFile, "token-file", "", "Path to the token file")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error

	cfgMgr, err = config.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}

	cfg, err = cfgMgr.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	render, err = ui.NewRenderer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing renderer: %v\n", err)
		os.Exit(1)
	}
}

// tokenStore resolves the token store from flag and config.
func tokenStore() *auth.Store {
	path := cfg.TokenFile
	if flagTokenFile != "" {
		path = flagTokenFile
	}
	return auth.NewStore(path)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	query := strings.Join(args, " ")

	tok, err := tokenStore().Load()
	if err != nil {
		if errors.Is(err, auth.ErrNoToken) {
			render.RenderWarning("Not logged in")
			render.RenderInfo("Run 'pplx login' to sign in, or 'pplx login --from-app' to import from the desktop app")
			return errors.New("no stored token")
		}
		render.RenderError(err)
		return err
	}
	if tok.Expired(time.Now()) {
		render.RenderWarning("Stored token has expired")
		render.RenderInfo("Run 'pplx login' to sign in again")
		return errors.New("token expired")
	}

	opts := buildSearchOptions(query)
	if !models.IsValidRecency(opts.Recency) {
		return fmt.Errorf("invalid recency filter: %s", opts.Recency)
	}

	cli, err := client.New(client.Config{
		Token:    tok.Token,
		Language: cfg.DefaultLanguage,
		Timezone: cfg.Timezone,
	})
	if err != nil {
		render.RenderError(fmt.Errorf("failed to create client: %v", err))
		return err
	}
	defer cli.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if flagVerbose {
		render.RenderInfo(fmt.Sprintf("Query: %s", query))
		if opts.Recency != models.RecencyNone {
			render.RenderInfo(fmt.Sprintf("Recency: %s", opts.Recency))
		}
		render.NewLine()
	}

	result, err := cli.Search(ctx, opts)
	if err != nil {
		return reportSearchError(err)
	}

	if flagJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else if err := render.RenderReport(result); err != nil {
		render.RenderError(err)
		return err
	}

	if flagOutputFile != "" {
		if err := os.WriteFile(flagOutputFile, []byte(result.Answer), 0644); err != nil {
			render.RenderError(fmt.Errorf("failed to save output: %v", err))
		} else {
			render.RenderSuccess(fmt.Sprintf("Saved to %s", flagOutputFile))
		}
	}

	if cfg.SaveHistory && !flagNoHistory {
		hw, err := history.NewWriter(cfg.HistoryFile)
		if err == nil {
			hw.Append(models.HistoryEntry{
				Query:       query,
				Recency:     string(opts.Recency),
				Answer:      truncateAnswer(result.Answer, 500),
				BackendUUID: result.BackendUUID,
			})
		}
	}

	return nil
}

// reportSearchError renders a classified failure with a kind-appropriate
// hint and returns it.
func reportSearchError(err error) error {
	switch client.KindOf(err) {
	case client.ErrorKindCancelled:
		render.NewLine()
		render.RenderWarning("Search cancelled")
		return nil
	case client.ErrorKindAuth:
		render.RenderError(err)
		render.RenderInfo("Your session may have expired. Run 'pplx login' to sign in again.")
	case client.ErrorKindRateLimit:
		render.RenderError(err)
		render.RenderInfo("You are being rate limited. Wait a bit before retrying.")
	case client.ErrorKindEmpty:
		render.RenderWarning("No results for this query")
		return nil
	default:
		render.RenderError(err)
	}
	return err
}

func buildSearchOptions(query string) models.SearchOptions {
	opts := models.DefaultSearchOptions(query)

	opts.Recency = cfg.DefaultRecency
	opts.Language = cfg.DefaultLanguage
	opts.Timezone = cfg.Timezone

	if flagRecency != "" {
		opts.Recency = models.RecencyFilter(flagRecency)
	}

	return opts
}

func truncateAnswer(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
