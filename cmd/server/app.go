package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"movieclub-api/internal/config"
	"movieclub-api/internal/domain"
	"movieclub-api/internal/repository"
	"movieclub-api/internal/repository/mongo"
	"movieclub-api/internal/repository/sqlite"
	"movieclub-api/internal/storage"
)

// stores bundles the repositories for the configured driver and how to release them.
type stores struct {
	users   repository.UserRepository
	catalog repository.CatalogRepository
	close   func(ctx context.Context) error
}

func loadConfig(logger *logrus.Logger) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, keeping %s", cfg.Log.Level, logger.GetLevel())
	}
	return cfg, nil
}

func openStores(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*stores, error) {
	var s stores

	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, err := mongo.Connect(ctx, cfg.Database.URI)
		if err != nil {
			return nil, err
		}
		s.users = mongo.NewUserRepository(client)
		s.catalog = mongo.NewCatalogRepository(client)
		s.close = client.Close
		logger.Info("using mongo credential store")
	default:
		db, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		s.users = sqlite.NewUserRepository(db)
		s.catalog = sqlite.NewCatalogRepository(db)
		s.close = func(context.Context) error { return db.Close() }
		logger.Infof("using sqlite database %s", cfg.Database.Path)
	}

	if err := s.users.Init(ctx); err != nil {
		_ = s.close(ctx)
		return nil, fmt.Errorf("init user repository: %w", err)
	}
	if err := s.catalog.Init(ctx); err != nil {
		_ = s.close(ctx)
		return nil, fmt.Errorf("init catalog repository: %w", err)
	}
	return &s, nil
}

// buildStorage returns nil when no poster bucket is configured.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("no storage bucket configured, poster urls are served as stored")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}

func readCatalog(path string) (domain.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var catalog domain.Catalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return domain.Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return catalog, nil
}
