package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/metamendmarketing/reportbuilderv3/internal/config"
	"github.com/metamendmarketing/reportbuilderv3/internal/db"
	"github.com/metamendmarketing/reportbuilderv3/internal/ingestion"
	"github.com/metamendmarketing/reportbuilderv3/internal/llm"
	"github.com/metamendmarketing/reportbuilderv3/internal/logging"
	"github.com/metamendmarketing/reportbuilderv3/internal/rendering"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

// commonFlags are shared by every command that builds an email
type commonFlags struct {
	configPath  string
	apiKey      string
	model       string
	from        string
	to          string
	senderName  string
	senderTitle string
	template    string
	outDir      string
	logMode     string
	databaseURL string
	verbose     bool
}

func (f *commonFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	cmd.Flags().StringVar(&f.model, "model", "", "Override the drafting model (defaults to REPORT_BUILDER_MODEL)")
	cmd.Flags().StringVar(&f.from, "from", "", "From address (defaults to DEFAULT_FROM_EMAIL)")
	cmd.Flags().StringVar(&f.to, "to", "", "To address(es), comma separated")
	cmd.Flags().StringVar(&f.senderName, "sender-name", "", "Name in the email signature")
	cmd.Flags().StringVar(&f.senderTitle, "sender-title", "", "Title in the email signature")
	cmd.Flags().StringVarP(&f.template, "template", "t", "", "Path to an HTML email template (built-in template when empty)")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "", "Output directory (default \"out\")")
	cmd.Flags().StringVar(&f.logMode, "log-mode", "", "Log mode: dev, prod or quiet")
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL URL for the run archive (defaults to DATABASE_URL)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print evidence and draft summaries")
}

// resolve merges flags over the config file over the environment.
func (f *commonFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	changed := cmd.Flags().Changed
	if changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if changed("model") {
		cfg.Model = f.model
	}
	if changed("from") {
		cfg.FromEmail = f.from
	}
	if changed("to") {
		cfg.ToEmail = f.to
	}
	if changed("sender-name") {
		cfg.SenderName = f.senderName
	}
	if changed("sender-title") {
		cfg.SenderTitle = f.senderTitle
	}
	if changed("template") {
		cfg.Template = f.template
	}
	if changed("out") {
		cfg.OutputDir = f.outDir
	}
	if changed("log-mode") {
		cfg.LogMode = f.logMode
	}
	if changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}

	merged := cfg.MergeWithDefaults(config.FromEnv())
	if merged.LogMode == "" {
		merged.LogMode = "quiet"
		if f.verbose {
			merged.LogMode = "dev"
		}
	}
	if err := merged.Validate(); err != nil {
		return merged, err
	}
	return merged, nil
}

func newLogger(cfg config.Config) (*logging.Logger, error) {
	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func newClient(ctx context.Context, cfg config.Config) (llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required (set --api-key or %s)", config.EnvAPIKey)
	}
	return llm.NewClient(ctx, llm.DefaultConfig().WithOverride(cfg.Model), cfg.APIKey)
}

// openArchive connects to the run archive. A failure is logged and the run
// continues without persistence.
func openArchive(ctx context.Context, cfg config.Config, logger *logging.Logger) *db.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("run archive unavailable", "error", err)
		return nil
	}
	if err := database.Migrate(ctx); err != nil {
		logger.Warn("run archive migration failed", "error", err)
		database.Close()
		return nil
	}
	return database
}

func senderFrom(cfg config.Config) rendering.Sender {
	return rendering.Sender{Name: cfg.SenderName, Title: cfg.SenderTitle, Email: cfg.FromEmail}
}

func limitsFrom(cfg config.Config) ingestion.Limits {
	return ingestion.Limits{MaxCharsPerFile: cfg.MaxCharsPerFile, MaxTotalChars: cfg.MaxTotalChars}
}

// reportFlags are the client and period fields of one report
type reportFlags struct {
	client      string
	website     string
	month       string
	periodStart string
	periodEnd   string
	dashboard   string
	contact     string
	tier        string
}

func (f *reportFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.client, "client", "", "Client name")
	cmd.Flags().StringVar(&f.website, "website", "", "Client website URL")
	cmd.Flags().StringVar(&f.month, "month", "", "Month label (default: current month, e.g. \"January 2026\")")
	cmd.Flags().StringVar(&f.periodStart, "period-start", "", "Reporting period start, YYYY-MM-DD (default: first of the month)")
	cmd.Flags().StringVar(&f.periodEnd, "period-end", "", "Reporting period end, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&f.dashboard, "dashboard-url", "", "DashThis dashboard URL")
	cmd.Flags().StringVar(&f.contact, "contact", "", "Client contact name for the greeting")
	cmd.Flags().StringVar(&f.tier, "tier", "", "Verbosity tier: quick, standard or deep (default quick)")
}

func (f *reportFlags) request(cfg config.Config) (types.ReportRequest, error) {
	tier := f.tier
	if tier == "" {
		tier = cfg.Verbosity
	}
	if tier != "" && !types.IsTier(tier) {
		return types.ReportRequest{}, fmt.Errorf("unknown tier %q (want quick, standard or deep)", tier)
	}

	req := types.ReportRequest{
		ClientName:   f.client,
		Website:      f.website,
		MonthLabel:   f.month,
		DashboardURL: f.dashboard,
		ContactName:  f.contact,
		Tier:         types.ParseTier(tier),
	}
	var err error
	if req.PeriodStart, err = parseDateFlag("period-start", f.periodStart); err != nil {
		return req, err
	}
	if req.PeriodEnd, err = parseDateFlag("period-end", f.periodEnd); err != nil {
		return req, err
	}
	return req, nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return t, nil
}

// readUploads loads files from disk in the order given.
func readUploads(paths []string) ([]types.Upload, error) {
	uploads := make([]types.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", p, err)
		}
		uploads = append(uploads, types.Upload{Name: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

// parseAssignments parses repeated key=value flags. Later keys win.
func parseAssignments(flag string, values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("--%s expects file=value, got %q", flag, v)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

// parsePlacements parses --place file=section flags.
func parsePlacements(values []string) (map[string]types.SectionName, error) {
	raw, err := parseAssignments("place", values)
	if err != nil {
		return nil, err
	}
	out := make(map[string]types.SectionName, len(raw))
	for file, section := range raw {
		if !types.IsSection(section) {
			return nil, fmt.Errorf("--place %s: unknown section %q", file, section)
		}
		out[file] = types.SectionName(section)
	}
	return out, nil
}
