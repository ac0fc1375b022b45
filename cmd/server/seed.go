package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"movieclub-api/internal/service"
)

func newSeedCmd(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <catalog.yaml>",
		Short: "Load movies and actors from a YAML catalog into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}

			catalog, err := readCatalog(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, err := openStores(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.close(ctx)

			res, err := service.NewCatalogService(st.catalog, service.PosterOptions{}).Seed(ctx, catalog)
			if err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}
			logger.Infof("seeded %d movies and %d actors", res.Movies, res.Actors)
			return nil
		},
	}
}
