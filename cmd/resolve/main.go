package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/r3labs/diff/v3"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	media_archiver "github.com/alanbriolat/media-archiver"
	"github.com/alanbriolat/media-archiver/async"
	"github.com/alanbriolat/media-archiver/database"
	"github.com/alanbriolat/media-archiver/internal/boltdb"
	"github.com/alanbriolat/media-archiver/provider/soundcloud"
	"github.com/alanbriolat/media-archiver/provider/zdf"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = media_archiver.WithLogger(ctx, logger)

	app := &cli.App{
		Name:  "resolve",
		Usage: "resolve media URLs to ranked format candidates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "archive",
				Usage: "record resolved items in the sqlite database at `PATH`",
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "use the bolt database at `PATH` as a read-through item cache",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print resolved records as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			a := resolveApp{ctx: ctx, printJSON: c.Bool("json")}
			if path := c.String("archive"); path != "" {
				db, err := database.NewDatabase(path)
				if err != nil {
					return fmt.Errorf("failed to open archive: %w", err)
				}
				defer db.Close()
				if err := db.Migrate(); err != nil {
					return fmt.Errorf("failed to migrate archive: %w", err)
				}
				a.archive = db
			}
			if path := c.String("cache"); path != "" {
				cache, err := boltdb.New(path)
				if err != nil {
					return fmt.Errorf("failed to open cache: %w", err)
				}
				defer cache.Close()
				a.cache = cache
			}
			for _, target := range c.Args().Slice() {
				if err := a.resolve(target); err != nil {
					return err
				}
			}
			return nil
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.Run(os.Args) })

	select {
	case err = <-result:
		if err != nil {
			logger.Fatal(err.Error())
		}
	case <-ctx.Done():
		logger.Error(ctx.Err().Error())
		stop()
	}
}

type resolveApp struct {
	ctx       context.Context
	archive   *database.Database
	cache     boltdb.Cache
	printJSON bool
}

func (a *resolveApp) resolve(target string) error {
	logger := media_archiver.Logger(a.ctx).Sugar()
	logger.Infof("Resolving %s", target)

	bar := progressbar.Default(-1, "resolving")
	defer bar.Close()
	registry := newRegistry(&barReporter{bar: bar, log: logger})
	resolver := &media_archiver.Resolver{Registry: registry}

	if a.cache != nil {
		if record, err := a.cache.GetItem(target); err != nil {
			return fmt.Errorf("cache read failed: %w", err)
		} else if record != nil {
			logger.Infof("Using cached resolution of %s", target)
			return a.emit("", record)
		}
	}

	match, err := registry.Match(target)
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}
	result, err := resolver.Resolve(a.ctx, target)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	switch record := result.(type) {
	case *media_archiver.ItemRecord:
		if a.cache != nil {
			if err := a.cache.PutItem(target, record); err != nil {
				return fmt.Errorf("cache write failed: %w", err)
			}
		}
		return a.emit(match.ProviderName, record)
	case *media_archiver.CollectionRecord:
		logger.Infof("Resolved %v", record)
		if a.archive != nil {
			if _, err := a.archive.InsertCollection(match.ProviderName, record); err != nil {
				return fmt.Errorf("archive failed: %w", err)
			}
		}
		if a.printJSON {
			return printJSON(record)
		}
		for _, entry := range record.Entries {
			logger.Infof("  %v (%d formats)", entry, len(entry.Formats))
		}
		return nil
	default:
		return fmt.Errorf("unexpected resolution result %v", result)
	}
}

// emit logs one resolved item, archives it, and reports any differences from the previous
// resolution of the same source.
func (a *resolveApp) emit(providerName string, record *media_archiver.ItemRecord) error {
	logger := media_archiver.Logger(a.ctx).Sugar()
	logger.Infof("Resolved %v (%d formats)", record, len(record.Formats))

	if a.archive != nil && providerName != "" {
		previous, err := a.archive.GetItemBySource(providerName, record.ID)
		if err != nil {
			return fmt.Errorf("archive lookup failed: %w", err)
		}
		if previous != nil {
			if oldRecord, err := previous.Record(); err == nil {
				if changes, err := diff.Diff(oldRecord, record); err == nil {
					for _, change := range changes {
						logger.Infof("changed since %v: %v %v -> %v",
							previous.ResolvedAt, change.Path, change.From, change.To)
					}
				}
			}
		}
		item, err := database.NewItem(providerName, record)
		if err != nil {
			return fmt.Errorf("archive failed: %w", err)
		}
		if err := a.archive.ReplaceItem(item); err != nil {
			return fmt.Errorf("archive failed: %w", err)
		}
	}

	if a.printJSON {
		return printJSON(record)
	}
	for _, f := range record.Formats {
		logger.Infof("  format %s: %s %s", f.FormatID, f.Ext, f.Note)
	}
	return nil
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// newRegistry builds a registry whose providers report through the given Reporter instead of the
// defaults baked into the package init registrations.
func newRegistry(reporter media_archiver.Reporter) *media_archiver.ProviderRegistry {
	registry := &media_archiver.ProviderRegistry{}
	scConfig := soundcloud.NewConfig()
	scConfig.Reporter = reporter
	for _, p := range scConfig.Providers() {
		registry.MustAdd(p)
	}
	zdfConfig := zdf.NewConfig()
	zdfConfig.Reporter = reporter
	registry.MustAdd(zdfConfig.Provider())
	return registry
}

// A barReporter drives the progress bar from resolution stages and sends per-entry failures to the
// log.
type barReporter struct {
	bar *progressbar.ProgressBar
	log *zap.SugaredLogger
}

func (r *barReporter) Error(msg string) {
	r.log.Error(msg)
}

func (r *barReporter) Progress(label string, stage string) {
	r.bar.Describe(fmt.Sprintf("%s: %s", label, stage))
	_ = r.bar.Add(1)
}
