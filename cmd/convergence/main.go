// Command convergence is the batch driver: it ingests source fixtures (or,
// for SEC EDGAR, live upstream data) into the event log, aggregates chains,
// applies the convergence engine, emits alerts, ranks opportunities, and
// prints an observability snapshot. It is not a server — one invocation is
// one batch run (spec §5 notes parallel invocations are not supported).
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
	"gopkg.in/yaml.v3"

	"github.com/fieldsignal/convergence/pkg/adapters/alaskapermits"
	"github.com/fieldsignal/convergence/pkg/adapters/alaskawells"
	"github.com/fieldsignal/convergence/pkg/adapters/canonical"
	"github.com/fieldsignal/convergence/pkg/adapters/fedregister"
	"github.com/fieldsignal/convergence/pkg/adapters/nprm"
	"github.com/fieldsignal/convergence/pkg/adapters/reeuranium"
	"github.com/fieldsignal/convergence/pkg/adapters/secedgar"
	"github.com/fieldsignal/convergence/pkg/adapters/texasrrc"
	"github.com/fieldsignal/convergence/pkg/alertgen"
	"github.com/fieldsignal/convergence/pkg/chain"
	"github.com/fieldsignal/convergence/pkg/convergence"
	"github.com/fieldsignal/convergence/pkg/event"
	"github.com/fieldsignal/convergence/pkg/evidencearchive"
	"github.com/fieldsignal/convergence/pkg/httpfetch"
	"github.com/fieldsignal/convergence/pkg/observability"
	"github.com/fieldsignal/convergence/pkg/ranker"
	"github.com/fieldsignal/convergence/pkg/regimecontext"
	"github.com/fieldsignal/convergence/pkg/storage"
	"github.com/fieldsignal/convergence/pkg/universe"

	"github.com/fieldsignal/convergence/internal/config"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the testable entrypoint: args mirrors os.Args, stdout/stderr let
// tests capture output without touching the process streams.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stdout)
		return 2
	}

	switch args[1] {
	case "run":
		return runBatch(args[2:], stdout, stderr)
	case "health":
		return runHealthCmd(stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, event.SchemaVersion)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "convergence — oil/gas, SEC, and REE/uranium event pipeline")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  convergence <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")
	fmt.Fprintln(w, "  run       Ingest fixtures, score chains, emit alerts (--fixtures, --universe)")
	fmt.Fprintln(w, "  health    Check DB connectivity")
	fmt.Fprintln(w, "  version   Print the event schema version")
	fmt.Fprintln(w, "  help      Show this help")
	fmt.Fprintln(w, "")
}

func runHealthCmd(out, errOut io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return 1
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(errOut, "open: %v\n", err)
		return 1
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(context.Background()); err != nil {
		fmt.Fprintf(errOut, "ping: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "OK")
	return 0
}

// fixtureAdapter is the shape every JSON-lines source-fixture adapter
// shares; sourceSystem also doubles as the fixture file's base name
// ("<fixtures>/<source_system>.jsonl").
type fixtureAdapter struct {
	sourceSystem string
	ingest       func(ctx context.Context, u universe.Universe, repo canonical.Repo, r io.Reader) (canonical.BatchResult, error)
}

var fixtureAdapters = []fixtureAdapter{
	{alaskapermits.SourceSystem, alaskapermits.IngestFixture},
	{alaskawells.SourceSystem, alaskawells.IngestFixture},
	{texasrrc.SourceSystem, texasrrc.IngestFixture},
	{secedgar.SourceSystem, secedgar.IngestFixture},
	{fedregister.SourceSystem, fedregister.IngestFixture},
	{nprm.SourceSystem, nprm.IngestFixture},
	{reeuranium.SourceSystem, reeuranium.IngestFixture},
}

func runBatch(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("run", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		fixturesDir  string
		universePath string
		dialectFlag  string
		sqlitePath   string
		topN         int
		tickers      string
	)
	cmd.StringVar(&fixturesDir, "fixtures", "", "Directory of <source_system>.jsonl fixture files (REQUIRED)")
	cmd.StringVar(&universePath, "universe", "", "Path to the entity registry YAML file (REQUIRED)")
	cmd.StringVar(&dialectFlag, "dialect", "sqlite", "Storage backend: sqlite or postgres")
	cmd.StringVar(&sqlitePath, "sqlite-path", ":memory:", "SQLite database file (sqlite dialect only)")
	cmd.IntVar(&topN, "top", 20, "Number of ranked opportunities to print")
	cmd.StringVar(&tickers, "sec-tickers", "", "Comma-separated tickers to fetch live from SEC EDGAR (optional)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if fixturesDir == "" || universePath == "" {
		fmt.Fprintln(stderr, "Error: --fixtures and --universe are required")
		cmd.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil && dialectFlag != "sqlite" {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}

	runID := uuid.NewString()
	logger := slog.Default().With("component", "convergence-run", "run_id", runID)
	ctx := context.Background()

	u, err := loadUniverse(universePath)
	if err != nil {
		fmt.Fprintf(stderr, "universe: %v\n", err)
		return 2
	}

	db, dialect, err := openStore(dialectFlag, sqlitePath, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "storage: %v\n", err)
		return 2
	}
	defer func() { _ = db.Close() }()

	repo := storage.New(db, dialect)

	totalProcessed, totalInserted := 0, 0
	for _, fa := range fixtureAdapters {
		path := filepath.Join(fixturesDir, fa.sourceSystem+".jsonl")
		f, ferr := os.Open(path)
		if ferr != nil {
			logger.Info("skipping source, no fixture present", "source_system", fa.sourceSystem, "path", path)
			continue
		}
		result, ierr := fa.ingest(ctx, u, repo, f)
		_ = f.Close()
		if ierr != nil {
			logger.Warn("ingest failed", "source_system", fa.sourceSystem, "error", ierr)
			continue
		}
		totalProcessed += result.Processed
		totalInserted += result.Inserted
		logger.Info("ingested fixture", "source_system", fa.sourceSystem, "processed", result.Processed, "inserted", result.Inserted)
	}

	if tickers != "" && cfg != nil {
		fetcher := httpfetch.New(
			httpfetch.WithUserAgent(cfg.SECUserAgent),
			httpfetch.WithMaxRetries(cfg.HTTPMaxRetries),
			httpfetch.WithBackoffBase(time.Duration(cfg.HTTPBackoffBaseSeconds*float64(time.Second))),
			httpfetch.WithRequestDelay(time.Duration(cfg.HTTPRequestDelaySeconds*float64(time.Second))),
		)
		lf := secedgar.NewLiveFetcher(fetcher, runCache(cfg, logger))
		result, lerr := secedgar.IngestLive(ctx, u, repo, lf, splitCSV(tickers))
		if lerr != nil {
			logger.Warn("live SEC EDGAR ingest failed", "error", lerr)
		} else {
			totalProcessed += result.Processed
			totalInserted += result.Inserted
			logger.Info("ingested live SEC EDGAR data", "processed", result.Processed, "inserted", result.Inserted)
		}
	}

	since := time.Now().AddDate(-2, 0, 0)
	events, err := repo.LoadRecentEvents(ctx, since, "")
	if err != nil {
		fmt.Fprintf(stderr, "load events: %v\n", err)
		return 1
	}

	window := 30 * 24 * time.Hour
	if cfg != nil {
		window = cfg.ConvergenceWindow
	}

	var scorer *chain.CELScorer
	if cfg != nil && cfg.ScoringWeightsCEL != "" {
		s, serr := chain.NewCELScorer(cfg.ScoringWeightsCEL)
		if serr != nil {
			logger.Warn("invalid SCORING_WEIGHTS_CEL, falling back to staged weights", "error", serr)
		} else {
			scorer = s
		}
	}
	rows, err := chain.AggregateWithScorer(events, scorer)
	if err != nil {
		fmt.Fprintf(stderr, "aggregate chains: %v\n", err)
		return 1
	}
	converged := convergence.Apply(rows, events, window)

	archiveStore, archiveErr := openEvidenceArchive(ctx, cfg, logger)
	if archiveErr != nil {
		logger.Warn("evidence archive unavailable, continuing without it", "error", archiveErr)
	}
	archivePassphrase := ""
	if cfg != nil {
		archivePassphrase = cfg.EvidenceArchivePassphrase
	}

	var regimeCtx map[string]any
	if cfg != nil {
		snap := regimecontext.Snapshot{
			OilPriceUSD:     cfg.RegimeOilPriceUSD,
			HasOilPrice:     cfg.HasRegimeOilPrice,
			UraniumPriceUSD: cfg.RegimeUraniumPriceUSD,
			HasUraniumPrice: cfg.HasRegimeUraniumPrice,
			UraniumTrend:    cfg.RegimeUraniumTrend,
		}
		regimeCtx = regimecontext.Context(snap, regimecontext.DefaultThresholds)
	}

	now := time.Now().UTC()
	alerts := make([]event.Alert, 0, len(converged))
	for _, row := range converged {
		alert, outcome := alertgen.Build(row, row.CompanyID, now)
		if outcome != event.OutcomeEmitted {
			continue
		}
		alert = alertgen.WithRegimeContext(alert, regimeCtx)
		if _, inserted, aerr := repo.InsertAlert(ctx, alert); aerr != nil {
			logger.Warn("alert persistence failed", "alert_id", alert.AlertID, "error", aerr)
			continue
		} else if !inserted {
			continue
		}
		alerts = append(alerts, alert)

		bundle := evidencearchive.Bundle{
			AlertID:        alert.AlertID,
			CanonicalDocID: alert.CanonicalDocID,
			Row:            row,
			Events:         lineageEvents(events, row.LineageID),
		}
		if aerr := evidencearchive.ArchiveBundle(ctx, archiveStore, archivePassphrase, bundle); aerr != nil {
			logger.Warn("evidence archival failed", "alert_id", alert.AlertID, "error", aerr)
		}
	}

	opportunities := ranker.Rank(alerts, u, now, topN)
	snapshot := observability.Build(runID, events, converged, alerts)

	report := map[string]any{
		"events_processed": totalProcessed,
		"events_inserted":  totalInserted,
		"alerts_emitted":   len(alerts),
		"opportunities":    opportunities,
		"snapshot":         snapshot,
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(stderr, "encode report: %v\n", err)
		return 1
	}
	return 0
}

func loadUniverse(path string) (universe.Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return universe.Universe{}, fmt.Errorf("read %s: %w", path, err)
	}
	var u universe.Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return universe.Universe{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return u, nil
}

func openStore(dialectFlag, sqlitePath string, cfg *config.Config) (*sql.DB, storage.Dialect, error) {
	switch dialectFlag {
	case "sqlite":
		db, err := sql.Open("sqlite", sqlitePath)
		if err != nil {
			return nil, storage.SQLite, fmt.Errorf("open sqlite: %w", err)
		}
		if _, err := db.Exec(storage.SQLiteSchema); err != nil {
			return nil, storage.SQLite, fmt.Errorf("sqlite schema: %w", err)
		}
		return db, storage.SQLite, nil
	case "postgres":
		if cfg == nil {
			return nil, storage.Postgres, fmt.Errorf("postgres dialect requires DATABASE_URL")
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, storage.Postgres, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(context.Background()); err != nil {
			return nil, storage.Postgres, fmt.Errorf("ping postgres: %w", err)
		}
		if _, err := db.Exec(storage.PostgresSchema); err != nil {
			return nil, storage.Postgres, fmt.Errorf("postgres schema: %w", err)
		}
		return db, storage.Postgres, nil
	default:
		return nil, storage.SQLite, fmt.Errorf("unknown dialect %q", dialectFlag)
	}
}

// jsonCodec is the RedisCodec that lets the ticker→CIK map (the only value
// the live SEC adapter memoizes) survive a round trip through Redis.
type jsonCodec struct{}

func (jsonCodec) Encode(value any) ([]byte, error) { return json.Marshal(value) }
func (jsonCodec) Decode(data []byte) (any, error) {
	var v map[string]string
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// runCache picks the Redis-backed cache when RUN_CACHE_REDIS_URL is
// configured, falling back to the default in-process map otherwise (spec
// SPEC_FULL §11.9).
func runCache(cfg *config.Config, logger *slog.Logger) httpfetch.RunCache {
	if cfg == nil || cfg.RunCacheRedisURL == "" {
		return httpfetch.NewInProcessCache()
	}
	opts, err := redis.ParseURL(cfg.RunCacheRedisURL)
	if err != nil {
		logger.Warn("invalid RUN_CACHE_REDIS_URL, falling back to in-process cache", "error", err)
		return httpfetch.NewInProcessCache()
	}
	return httpfetch.NewRedisCache(redis.NewClient(opts), jsonCodec{}, time.Hour)
}

// openEvidenceArchive opens the configured evidence store, or (nil, nil)
// when archival isn't configured. Only "s3://" URIs open a store: a "gs://"
// URI is logged as unsupported and archival is skipped, whatever build tags
// the binary carries (this driver never calls evidencearchive.NewGCSStore).
func openEvidenceArchive(ctx context.Context, cfg *config.Config, logger *slog.Logger) (evidencearchive.Store, error) {
	if cfg == nil || cfg.EvidenceArchiveURI == "" {
		return nil, nil
	}
	switch {
	case strings.HasPrefix(cfg.EvidenceArchiveURI, "s3://"):
		bucket, prefix := splitBucketURI(cfg.EvidenceArchiveURI, "s3://")
		return evidencearchive.NewS3Store(ctx, evidencearchive.S3StoreConfig{Bucket: bucket, Prefix: prefix})
	case strings.HasPrefix(cfg.EvidenceArchiveURI, "gs://"):
		logger.Warn("gs:// evidence archive configured but this driver opens only s3:// archives")
		return nil, nil
	default:
		return nil, fmt.Errorf("unrecognized EVIDENCE_ARCHIVE_URI scheme: %s", cfg.EvidenceArchiveURI)
	}
}

func splitBucketURI(uri, scheme string) (bucket, prefix string) {
	rest := strings.TrimPrefix(uri, scheme)
	parts := strings.SplitN(rest, "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		prefix = parts[1]
	}
	return bucket, prefix
}

// lineageEvents filters events down to the ones contributing to lineageID,
// for inclusion in an archived evidence bundle.
func lineageEvents(events []event.RawEvent, lineageID string) []map[string]any {
	var out []map[string]any
	for _, ev := range events {
		if id, _ := ev.PayloadJSON["lineage_id"].(string); id == lineageID {
			out = append(out, ev.PayloadJSON)
		}
	}
	return out
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
