package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metamendmarketing/reportbuilderv3/internal/server"
	"github.com/metamendmarketing/reportbuilderv3/internal/server/ratelimit"
)

var (
	serveCommon commonFlags
	servePort   int
	serveChrome string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the report pipeline. Run history endpoints are
enabled when DATABASE_URL (or --db-url) points at a reachable PostgreSQL database.`,
	RunE: runServe,
}

func init() {
	serveCommon.bind(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveChrome, "chrome", "", "Path to the Chrome binary used for PDF export")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := serveCommon.resolve(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("log-mode") && cfg.LogMode == "quiet" {
		cfg.LogMode = "prod"
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	srvCfg := server.Config{
		Port:   servePort,
		Client: client,
		Defaults: server.Defaults{
			From:            cfg.FromEmail,
			To:              cfg.ToEmail,
			Sender:          senderFrom(cfg),
			TemplatePath:    cfg.Template,
			Limits:          limitsFrom(cfg),
			StrictGrounding: cfg.StrictGrounding,
		},
		Logger:    logger,
		RateLimit: ratelimit.LoadConfig(),
	}
	srvCfg.Defaults.PDFOptions.ExecPath = serveChrome
	srvCfg.Defaults.PDFOptions.Logger = logger
	if database := openArchive(ctx, cfg, logger); database != nil {
		defer database.Close()
		srvCfg.Store = database
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting server", "port", servePort, "archive", srvCfg.Store != nil)
	return srv.Start()
}
