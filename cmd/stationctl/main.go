package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"stationdesk-server/internal/config"
	"stationdesk-server/internal/db"
	"stationdesk-server/internal/migrate"
	"stationdesk-server/internal/mqtt"
)

const usage = `usage: stationctl <command> [flags]
  migrate           apply pending schema migrations
  status            list applied and pending migrations
  seed -f FILE      upsert stations and users from a TOML file
  publish [flags]   send one sensor reading to the MQTT ingest topic
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "stationctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("missing command\n%s", usage)
	}
	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	switch args[0] {
	case "migrate":
		return withDB(cfg, func(conn *sql.DB) error {
			if err := migrate.Run(conn); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(out, "migrations applied")
			return nil
		})
	case "status":
		return withDB(cfg, func(conn *sql.DB) error {
			return printStatus(conn, out)
		})
	case "seed":
		fs := flag.NewFlagSet("seed", flag.ContinueOnError)
		file := fs.String("f", "seed.toml", "seed file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		seed, err := loadSeedFile(*file)
		if err != nil {
			return err
		}
		return withDB(cfg, func(conn *sql.DB) error {
			if err := migrate.Run(conn); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			stations, users, err := applySeed(context.Background(), conn, seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "seeded %d stations, %d users\n", stations, users)
			return nil
		})
	case "publish":
		t, err := parsePublishFlags(args[1:])
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		publisher := mqtt.NewPublisher(cfg, "stationctl-"+uuid.NewString()[:8], slog.Default())
		defer publisher.Disconnect()
		if err := publisher.Connect(ctx); err != nil {
			return err
		}
		if err := publisher.Publish(t); err != nil {
			return err
		}
		fmt.Fprintf(out, "published %s reading for station %s to %s\n", t.Kind, t.StationNo, cfg.MQTTTopic)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func withDB(cfg config.Config, fn func(*sql.DB) error) error {
	conn, err := db.Open(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()
	return fn(conn)
}

func printStatus(conn *sql.DB, out io.Writer) error {
	all, err := migrate.List(conn)
	if err != nil {
		return err
	}
	for _, m := range all {
		state := "pending"
		if m.Applied {
			state = "applied"
		}
		fmt.Fprintf(out, "%s  %-8s %s\n", m.Version, state, m.Name)
	}
	return nil
}

func parsePublishFlags(args []string) (mqtt.Telemetry, error) {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	stationNo := fs.String("station", "", "station number")
	kind := fs.String("kind", mqtt.KindSunshine, "sunshine or soil_moisture")
	date := fs.String("date", "", "sunshine date YYYY-MM-DD (default: UTC date of the reading)")
	hours := fs.Float64("hours", -1, "sunshine hours")
	depth := fs.Int("depth", 0, "soil depth in cm")
	pct := fs.Float64("pct", -1, "soil moisture percent")
	if err := fs.Parse(args); err != nil {
		return mqtt.Telemetry{}, err
	}

	t := mqtt.Telemetry{StationNo: *stationNo, Kind: *kind, Date: *date}
	switch *kind {
	case mqtt.KindSunshine:
		t.Hours = hours
	case mqtt.KindSoilMoisture:
		t.DepthCM = depth
		t.MoisturePct = pct
	}
	return t, nil
}
