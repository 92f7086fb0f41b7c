package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-listings/pkg/config"
	"github.com/ekaya-inc/ekaya-listings/pkg/schema"
	"github.com/ekaya-inc/ekaya-listings/pkg/services"
)

// app holds the wired services shared by every command.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	stores      *datasource.StoreManager
	storeSet    *services.StoreSet
	search      services.SearchService
	diagnostics services.DiagnosticsService
	agencies    services.AgencyLookupService
}

// newApp loads configuration and wires stores and services. Stores are
// opened lazily on first use.
func newApp(path string) (*app, error) {
	cfg, err := config.Load(path, Version)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	bindings, specs, err := storeBindings(cfg)
	if err != nil {
		return nil, err
	}

	var keys *services.AgencyKeyDirectory
	if cfg.AgencyKeyFile != "" {
		keys, err = services.LoadAgencyKeyDirectory(cfg.AgencyKeyFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded agency key file", zap.Int("agencies", keys.Len()))
	}

	manager := datasource.NewStoreManager(datasource.NewRowReaderFactory(logger), specs, logger)
	stores := services.NewStoreSet(bindings, manager, schema.NewCache(schema.NewDetector(logger)))

	return &app{
		cfg:         cfg,
		logger:      logger,
		stores:      manager,
		storeSet:    stores,
		search:      services.NewSearchService(stores, cfg.Search.Concurrency, logger),
		diagnostics: services.NewDiagnosticsService(stores, logger),
		agencies:    services.NewAgencyLookupService(stores, keys, logger),
	}, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsLocal() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// storeBindings resolves each store's candidate layouts and adapter spec.
func storeBindings(cfg *config.Config) ([]services.StoreBinding, []datasource.StoreSpec, error) {
	all := schema.Candidates()
	if cfg.CandidatesFile != "" {
		loaded, err := schema.LoadCandidatesFile(cfg.CandidatesFile)
		if err != nil {
			return nil, nil, err
		}
		all = loaded
	}

	bindings := make([]services.StoreBinding, 0, len(cfg.Stores))
	specs := make([]datasource.StoreSpec, 0, len(cfg.Stores))
	for _, s := range cfg.Stores {
		if !datasource.IsRegistered(s.Type) {
			return nil, nil, fmt.Errorf("store %q: unknown type %q", s.Name, s.Type)
		}
		candidates, err := schema.Select(all, s.Candidates)
		if err != nil {
			return nil, nil, fmt.Errorf("store %q: %w", s.Name, err)
		}
		bindings = append(bindings, services.StoreBinding{Name: s.Name, Candidates: candidates, Feed: s.Feed})
		specs = append(specs, datasource.StoreSpec{Name: s.Name, Type: s.Type, Config: s.Config})
	}
	return bindings, specs, nil
}

// Close releases every opened store and flushes the logger.
func (a *app) Close() error {
	err := a.stores.Close()
	// Sync returns EINVAL when stderr is a terminal.
	_ = a.logger.Sync()
	return err
}
