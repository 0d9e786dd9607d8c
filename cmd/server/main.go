package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/api"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/config"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/database"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/monitoring"
	"github.com/urfave/cli/v2"
)

// @title           Pontos de Doação API
// @version         1.0.0
// @description     Directory of donation points with an urgent needs ranking and aggregate statistics.
// @BasePath        /

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitErr, ok := err.(cli.ExitCoder); ok {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

// appState carries state shared by the commands of one invocation
type appState struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
}

func newApp(stdout, stderr io.Writer) *cli.App {
	rt := &appState{stdout: stdout, stderr: stderr}

	return &cli.App{
		Name:      "pontos-doacao",
		Usage:     "donation point directory API",
		Version:   api.Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "optional dotenv file"},
			&cli.StringFlag{Name: "port", Usage: "HTTP port (PORT)"},
			&cli.StringFlag{Name: "data-dir", Usage: "SQLite data directory (DATA_DIR)"},
			&cli.StringFlag{Name: "db-driver", Usage: "sqlite3 or pgx (DB_DRIVER)"},
			&cli.StringFlag{Name: "database-url", Usage: "PostgreSQL DSN (DATABASE_URL)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (LOG_LEVEL)"},
		},
		Before: rt.loadConfig,
		// Running without a command serves the API
		Action: rt.serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the geocoding scheduler",
				Action: rt.serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or upgrade the database schema",
				Action: rt.migrate,
			},
			{
				Name:      "seed",
				Usage:     "import donation points from a JSON array",
				ArgsUsage: "<file.json>",
				Action:    rt.seed,
			},
			{
				Name:   "stats",
				Usage:  "print statistics and the needs ranking as JSON",
				Action: rt.stats,
			},
			{
				Name:  "backfill",
				Usage: "geocode points that are missing coordinates",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "maximum points to geocode (GEOCODE_BATCH_SIZE)"},
				},
				Action: rt.backfill,
			},
		},
		// Exit codes are handled in main so tests can run the app in-process
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// loadConfig reads the environment, then applies explicit flags on top
func (rt *appState) loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return cli.Exit(describeError(err), 2)
	}

	if c.IsSet("port") {
		cfg.Port = c.String("port")
	}
	if c.IsSet("data-dir") {
		cfg.Database.DataDir = c.String("data-dir")
	}
	if c.IsSet("db-driver") {
		cfg.Database.Driver = c.String("db-driver")
	}
	if c.IsSet("database-url") {
		cfg.Database.DSN = c.String("database-url")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return cli.Exit("invalid configuration: "+describeError(err), 2)
	}

	rt.cfg = cfg
	return nil
}

// logger writes to w at the configured level
func (rt *appState) logger(w io.Writer) *monitoring.Logger {
	return monitoring.NewLoggerWithLevel(w, monitoring.ParseLevel(rt.cfg.LogLevel))
}

func (rt *appState) openDB(logger *monitoring.Logger) (*database.DB, error) {
	db, err := database.NewDB(rt.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logger.Info("Database ready", "driver", db.Driver())
	return db, nil
}
