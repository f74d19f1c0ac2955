// Package store selects and constructs the storage backend at process
// start.
package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/erizov/notevault/internal/libs/config"
	"github.com/erizov/notevault/internal/note"
	"github.com/erizov/notevault/internal/store/cassandra"
	"github.com/erizov/notevault/internal/store/memory"
	"github.com/erizov/notevault/internal/store/mongo"
	"github.com/erizov/notevault/internal/store/neo4j"
	"github.com/erizov/notevault/internal/store/postgres"
	"github.com/erizov/notevault/internal/store/remote"
)

// Open constructs the adapter named by cfg.Backend. It is called once per
// process; the returned Store is shared by every caller for the process
// lifetime. An unknown name or an unreachable engine fails immediately so
// a misconfigured process never comes up half-working.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (note.Store, error) {
	var (
		s   note.Store
		err error
	)

	switch cfg.Backend {
	case config.BackendPostgres:
		s, err = postgres.Open(ctx, cfg.DatabaseURL)
	case config.BackendMongo:
		s, err = mongo.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	case config.BackendNeo4j:
		s, err = neo4j.Open(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	case config.BackendCassandra:
		s, err = cassandra.Open(cassandra.Config{
			Hosts:    cfg.CassandraHosts,
			Port:     cfg.CassandraPort,
			Keyspace: cfg.CassandraKeyspace,
			Username: cfg.CassandraUser,
			Password: cfg.CassandraPassword,
		})
	case config.BackendMemory:
		s = memory.New()
	case config.BackendRemote:
		s, err = remote.Open(ctx, cfg.RemoteBaseURL)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}

	logger.Info().Str("backend", s.Name()).Msg("storage backend selected")
	return s, nil
}
