package sqlite

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.StoreAdapterRegistration{
		Info: datasource.StoreAdapterInfo{
			Type:        "sqlite",
			DisplayName: "SQLite",
			Description: "Local SQLite file or offline snapshot",
		},
		Factory: func(ctx context.Context, config map[string]any, logger *zap.Logger) (datasource.RowReader, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewAdapter(ctx, cfg, logger)
		},
	})
}
