package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/aggregation"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/api"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/database"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/encoding"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/errors"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/geocode"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/monitoring"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/types"
	"github.com/urfave/cli/v2"
)

// Report is the output of the stats command
type Report struct {
	Statistics aggregation.StatisticsSummary `json:"estatisticas"`
	Needs      []aggregation.NeedRanking     `json:"necessidades"`
}

// SeedSummary is the output of the seed command
type SeedSummary struct {
	Created int           `json:"created"`
	Skipped []SeedSkipped `json:"skipped"`
}

// SeedSkipped explains why one seed entry was not imported
type SeedSkipped struct {
	Index  int    `json:"index"`
	Name   string `json:"nome"`
	Reason string `json:"reason"`
}

func (rt *appState) migrate(c *cli.Context) error {
	logger := rt.logger(rt.stderr)

	// NewDB applies pending migrations before returning
	db, err := rt.openDB(logger)
	if err != nil {
		return err
	}
	defer errors.SafeClose(db, "database")

	fmt.Fprintf(rt.stdout, "database schema is up to date (%s)\n", db.Driver())
	return nil
}

func (rt *appState) seed(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: seed <file.json>", 2)
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var inputs []types.PointInput
	if err := encoding.UnmarshalJSON(data, &inputs); err != nil {
		return fmt.Errorf("seed file must contain a JSON array of donation points: %w", err)
	}

	logger := rt.logger(rt.stderr)
	service, db, err := rt.pointService(logger)
	if err != nil {
		return err
	}
	defer errors.SafeClose(db, "database")

	summary := SeedSummary{Skipped: []SeedSkipped{}}
	for i, in := range inputs {
		if err := api.ValidateInput(in); err != nil {
			summary.Skipped = append(summary.Skipped, SeedSkipped{Index: i, Name: in.Name, Reason: describeError(err)})
			continue
		}

		if _, err := service.Create(c.Context, in); err != nil {
			return fmt.Errorf("failed to import entry %d: %w", i, err)
		}
		summary.Created++
	}

	logger.Info("Seed finished", "created", summary.Created, "skipped", len(summary.Skipped))
	return rt.printJSON(summary)
}

func (rt *appState) stats(c *cli.Context) error {
	logger := rt.logger(rt.stderr)
	service, db, err := rt.pointService(logger)
	if err != nil {
		return err
	}
	defer errors.SafeClose(db, "database")

	report, err := buildReport(c.Context, service)
	if err != nil {
		return err
	}
	return rt.printJSON(report)
}

func (rt *appState) backfill(c *cli.Context) error {
	logger := rt.logger(rt.stderr)
	service, db, err := rt.pointService(logger)
	if err != nil {
		return err
	}
	defer errors.SafeClose(db, "database")

	limit := rt.cfg.GeocodeBatchSize
	if c.IsSet("limit") {
		limit = c.Int("limit")
	}

	result, err := service.BackfillCoordinates(c.Context, limit)
	if stderrors.Is(err, database.ErrGeocodingDisabled) {
		return cli.Exit("GOOGLE_MAPS_API_KEY is not set, nothing to backfill", 1)
	}
	if err != nil {
		return err
	}
	return rt.printJSON(result)
}

// pointService opens the database and builds the service the API uses
func (rt *appState) pointService(logger *monitoring.Logger) (*database.PointService, *database.DB, error) {
	db, err := rt.openDB(logger)
	if err != nil {
		return nil, nil, err
	}

	var geocoder geocode.Geocoder
	if rt.cfg.GeocodingEnabled() {
		g, err := geocode.NewGoogleGeocoder(geocode.DefaultConfig(rt.cfg.GoogleMapsAPIKey), nil, logger)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to initialize geocoder: %w", err)
		}
		geocoder = g
	}

	return database.NewPointService(database.NewRepository(db), geocoder, nil, logger), db, nil
}

// buildReport computes both views from one snapshot so they cannot disagree
func buildReport(ctx context.Context, store api.PointStore) (Report, error) {
	points, err := store.List(ctx, "")
	if err != nil {
		return Report{}, fmt.Errorf("failed to load donation points: %w", err)
	}

	return Report{
		Statistics: aggregation.ComputeStatistics(points),
		Needs:      aggregation.ComputeNeedsRanking(points),
	}, nil
}

func (rt *appState) printJSON(v interface{}) error {
	data, err := encoding.MarshalIndentJSON(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	_, err = fmt.Fprintln(rt.stdout, string(data))
	return err
}

// describeError renders an AppError with its field details
func describeError(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		body := appErr.Body()
		if body.Details != nil {
			return fmt.Sprintf("%s: %v", body.Error, body.Details)
		}
		return body.Error
	}
	return err.Error()
}
