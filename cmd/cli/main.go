package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vpnda/bling-margin/db"
	"github.com/vpnda/bling-margin/pkg/config"
	"github.com/vpnda/bling-margin/pkg/http/bling"
	"github.com/vpnda/bling-margin/pkg/models"
	"github.com/vpnda/bling-margin/pkg/services"
	"github.com/vpnda/bling-margin/pkg/utils"
)

var (
	dbPath     string
	configPath string
	verbose    bool
	rootCmd    *cobra.Command
)

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "bling-margin",
		Short: "Monthly contribution margin from Bling ERP",
		Long: `A CLI tool that pulls paid bills and sales invoices from up to two Bling ERP
accounts, computes the contribution margin per product and the operational
result of the month, and stores it in a SQLite database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive REPL",
		Long:  `Start an interactive REPL for executing commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()
			app.runREPL(cmd.Context())
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show the current configuration",
		Long:  `Show the current configuration loaded from config.yaml and the environment.`,
		Run: func(cmd *cobra.Command, args []string) {
			showConfig()
		},
	}

	rootCmd.AddCommand(replCmd, configCmd, newBillsCmd(), newProductsCmd(), newCalculateCmd(), newServeCmd(), newAuthCmd())

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// setup loads .env and the configuration file before any command runs.
func setup() error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := config.LoadEnv(".env", ".env.local"); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env")
	}

	// Only print a warning if the file doesn't exist, as GetConfig will create it later
	if err := config.InitGlobalConfig(configPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Msg("Failed to load configuration")
			log.Warn().Msg("A default configuration will be used")
		}
	}
	return nil
}

func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "bling-margin.db"
	}
	return filepath.Join(homeDir, ".bling-margin", "margin.db")
}

// app wires the database, the token manager and the Bling fetcher together.
type app struct {
	cfg     *config.Config
	db      db.DBInterface
	tokens  *services.TokenManager
	fetcher *bling.Fetcher
	syncer  *services.MonthlySyncer
}

func newApp() (*app, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	path := dbPath
	if path == "" {
		path = cfg.DatabasePath
	}
	if path == "" {
		path = defaultDBPath()
	}
	database, err := db.New(path)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := database.Initialize(); err != nil {
		database.Close()
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	httpClient := http.DefaultClient
	if cfg.Bling.DebugHTTP {
		httpClient = &http.Client{Transport: utils.DebugRoundTripper()}
	}

	tokens := services.NewTokenManager(database, credentials(cfg), cfg.Bling.RedirectURI,
		services.WithOAuthHTTPClient(httpClient))
	fetcher := bling.NewFetcher(tokens, bling.FetcherConfig{
		BaseURL:      cfg.Bling.BaseURL,
		GateInterval: cfg.Bling.GateInterval(),
		RetryDelays:  cfg.Bling.RetryDelays(),
		Timeout:      cfg.Bling.RequestTimeout(),
		HTTPClient:   httpClient,
	})

	return &app{
		cfg:     cfg,
		db:      database,
		tokens:  tokens,
		fetcher: fetcher,
		syncer:  services.NewMonthlySyncer(fetcher, tokens, database),
	}, nil
}

func credentials(cfg *config.Config) map[models.AccountID]services.AccountCredentials {
	creds := map[models.AccountID]services.AccountCredentials{}
	for account, opts := range map[models.AccountID]config.BlingAccountOptions{
		models.Account1: cfg.Bling.Account1,
		models.Account2: cfg.Bling.Account2,
	} {
		if opts.ClientID == "" {
			continue
		}
		creds[account] = services.AccountCredentials{ClientID: opts.ClientID, ClientSecret: opts.ClientSecret}
	}
	return creds
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing database")
	}
}

func (a *app) runREPL(ctx context.Context) {
	fmt.Println("Welcome to the bling-margin REPL!")
	fmt.Println("Type 'exit' or 'quit' to exit.")
	fmt.Println("Type 'help' to list the commands.")
	fmt.Println()

	// Start REPL
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")

		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "exit", "quit":
			return
		case "help":
			printHelp()
		case "config":
			showConfig()
		case "status":
			a.printStatus()
		case "bills", "products", "calculate":
			period, err := parsePeriodArgs(parts[1:])
			if err != nil {
				fmt.Println(err)
				fmt.Printf("Usage: %s <month> <year>\n", parts[0])
				continue
			}
			switch parts[0] {
			case "bills":
				err = a.printBills(ctx, os.Stdout, period)
			case "products":
				err = a.printProducts(ctx, os.Stdout, period)
			default:
				err = a.printCalculation(ctx, os.Stdout, period)
			}
			if err != nil {
				log.Error().Err(err).Msg("Command failed")
			}
		default:
			fmt.Println("Unknown command. Type 'help' for the list of commands.")
		}
	}

	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("Error reading input")
	}
}

func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  help                      - Show this help message")
	fmt.Println("  config                    - Show the current configuration")
	fmt.Println("  status                    - Show which Bling accounts are connected")
	fmt.Println("  bills <month> <year>      - List the paid bills of the month")
	fmt.Println("  products <month> <year>   - List the consolidated sales of the month")
	fmt.Println("  calculate <month> <year>  - Compute and store the monthly result")
	fmt.Println("  exit, quit                - Exit the REPL")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  The application uses a config.yaml file in the current directory.")
	fmt.Println("  Client secrets can be set in .env as BLING_CLIENT_SECRET_1 and BLING_CLIENT_SECRET_2.")
}

func maskSecret(secret string) string {
	if secret == "" {
		return "Not set"
	}
	// Show only the first 4 and last 4 characters
	if len(secret) > 8 {
		return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
	}
	return strings.Repeat("*", len(secret))
}

// showConfig displays the current configuration
func showConfig() {
	cfg, err := config.GetConfig()
	if err != nil {
		log.Error().Err(err).Msg("Error loading configuration")
		return
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("Database:        %s\n", orNotSet(cfg.DatabasePath))
	fmt.Printf("Bling API:       %s\n", cfg.Bling.BaseURL)
	fmt.Printf("Redirect URI:    %s\n", cfg.Bling.RedirectURI)
	fmt.Printf("Gate interval:   %s\n", cfg.Bling.GateInterval())
	fmt.Printf("Retry delays:    %v\n", cfg.Bling.RetryDelays())
	fmt.Printf("Server address:  %s\n", cfg.Server.Addr)
	for i, acc := range []config.BlingAccountOptions{cfg.Bling.Account1, cfg.Bling.Account2} {
		fmt.Printf("Account %d:       client id %s, secret %s\n", i+1, orNotSet(acc.ClientID), maskSecret(acc.ClientSecret))
	}

	if cfg.Bling.Account1.ClientID == "" && cfg.Bling.Account2.ClientID == "" {
		fmt.Println("\nNo Bling app is configured. Set bling.account1.clientId in config.yaml")
		fmt.Println("or BLING_CLIENT_ID_1 in the environment.")
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "Not set"
	}
	return s
}
