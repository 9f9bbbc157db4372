package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/orderlink/importer/internal/cache"
	"github.com/orderlink/importer/internal/config"
	"github.com/orderlink/importer/internal/docstore/postgres"
	"github.com/orderlink/importer/internal/importer"
	"github.com/orderlink/importer/internal/source"
	"github.com/orderlink/importer/internal/storage"
	"github.com/orderlink/importer/pkg/logger"
)

func newBrandFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "brand",
		Usage:    "Brand key to import (must exist in the brands file)",
		Required: true,
		EnvVars:  []string{"IMPORT_BRAND"},
	}
}

// runtime holds everything a command needs, built once in Before.
type runtime struct {
	store   *postgres.Store
	service *importer.Service
}

var rt runtime

func setup(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Log.Level)

	store, err := postgres.NewStore(&cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	var drive *source.Drive
	if cfg.Drive.CredentialsFile != "" {
		creds, err := os.ReadFile(cfg.Drive.CredentialsFile)
		if err != nil {
			store.Close()
			return fmt.Errorf("read drive credentials: %w", err)
		}
		drive, err = source.NewDrive(c.Context, creds)
		if err != nil {
			store.Close()
			return err
		}
	}

	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		archive, err = storage.NewMinioClient(cfg.Archive)
		if err != nil {
			store.Close()
			return err
		}
	}

	docCache, err := cache.New(cfg.Cache)
	if err != nil {
		store.Close()
		return fmt.Errorf("connect cache: %w", err)
	}

	rt = runtime{
		store:   store,
		service: importer.NewService(store, cfg, source.NewFetcher(drive), archive, docCache),
	}
	return nil
}

func teardown(c *cli.Context) error {
	if rt.store != nil {
		return rt.store.Close()
	}
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "importer",
		Usage: "Reconcile brand spreadsheet exports into the document store",
		Commands: []*cli.Command{
			{
				Name:   "import-products",
				Usage:  "Import one brand's product export",
				Flags:  []cli.Flag{newBrandFlag()},
				Before: setup,
				After:  teardown,
				Action: func(c *cli.Context) error {
					res, err := rt.service.ImportProducts(c.Context, c.String("brand"))
					printResult(res)
					return err
				},
			},
			{
				Name:   "import-customers",
				Usage:  "Import one brand's customer export",
				Flags:  []cli.Flag{newBrandFlag()},
				Before: setup,
				After:  teardown,
				Action: func(c *cli.Context) error {
					res, err := rt.service.ImportCustomers(c.Context, c.String("brand"))
					printResult(res)
					return err
				},
			},
			{
				Name:   "rebuild-salesmen",
				Usage:  "Rebuild one brand's derived salesman directory from its customers",
				Flags:  []cli.Flag{newBrandFlag()},
				Before: setup,
				After:  teardown,
				Action: func(c *cli.Context) error {
					deleted, res, err := rt.service.RebuildSalesmen(c.Context, c.String("brand"))
					fmt.Printf("{\"deleted\": %d, \"processed\": %d, \"skipped\": %d}\n",
						deleted, res.Processed, res.Skipped)
					return err
				},
			},
			{
				Name:  "delete-collection",
				Usage: "Delete every document in a collection",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "collection",
						Usage:    "Collection name to empty",
						Required: true,
					},
				},
				Before: setup,
				After:  teardown,
				Action: func(c *cli.Context) error {
					deleted, err := rt.service.DeleteCollection(c.Context, c.String("collection"))
					fmt.Printf("{\"deleted\": %d}\n", deleted)
					return err
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("importer failed")
	}
}

func printResult(res importer.Result) {
	fmt.Printf("{\"processed\": %d, \"skipped\": %d}\n", res.Processed, res.Skipped)
}
