package collectors

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

const postgresDefaultQuery = `
SELECT datname, numbackends, xact_commit, xact_rollback, blks_read, blks_hit,
       tup_returned, tup_fetched, tup_inserted, tup_updated, tup_deleted,
       conflicts, temp_files, temp_bytes, deadlocks, blk_read_time, blk_write_time
FROM pg_stat_database
WHERE datname IS NOT NULL AND datname NOT IN ('template0', 'template1')`

const postgresBgwriterQuery = `
SELECT checkpoints_timed, checkpoints_req, checkpoint_write_time, checkpoint_sync_time,
       buffers_checkpoint, buffers_clean, maxwritten_clean, buffers_backend,
       buffers_backend_fsync, buffers_alloc
FROM pg_stat_bgwriter`

// newPostgresCollector queries pg_stat_database and pg_stat_bgwriter once
// per cycle, grounded on inputs/postgres.py. It drops the source's
// replication-lag query and ad hoc named-query support, which no spec
// operation exercises; an unsupported scalar value is skipped rather than
// aborting the whole collection.
func newPostgresCollector(options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error) {
	host := stringOption(options, "host", "localhost")
	port := intOption(options, "port", 5432)
	user := stringOption(options, "user", "postgres")
	password := stringOption(options, "password", "")
	dbname := stringOption(options, "dbname", "postgres")
	collectBgwriter := boolOption(options, "collect_bgwriter", true)

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return telemetry.CollectorDescriptor{}, fmt.Errorf("opening postgres connection: %w", err)
	}

	return telemetry.CollectorDescriptor{
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			var batch telemetry.Batch
			batch = batch.Append(queryDatabaseStats(ctx, db, logger))
			if collectBgwriter {
				batch = batch.Append(queryBgwriterStats(ctx, db, logger))
			}
			return batch, nil
		},
	}, nil
}

func queryDatabaseStats(ctx context.Context, db *sql.DB, logger *logrus.Logger) telemetry.Batch {
	rows, err := db.QueryContext(ctx, postgresDefaultQuery)
	if err != nil {
		logger.WithError(err).Warn("postgres collector failed to query pg_stat_database")
		return telemetry.Batch{}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return telemetry.Batch{}
	}

	var batch telemetry.Batch
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			continue
		}

		dbname, ok := values[0].(string)
		if !ok || dbname == "" {
			continue
		}
		labels := map[string]string{"source": "postgres", "database": dbname}
		for i := 1; i < len(columns); i++ {
			value, ok := toFloat(values[i])
			if !ok {
				continue
			}
			m, err := telemetry.NewMetric("postgres_"+columns[i], value, 0, labels)
			if err != nil {
				continue
			}
			batch.Metrics = append(batch.Metrics, m)
		}
	}
	return batch
}

func queryBgwriterStats(ctx context.Context, db *sql.DB, logger *logrus.Logger) telemetry.Batch {
	rows, err := db.QueryContext(ctx, postgresBgwriterQuery)
	if err != nil {
		logger.WithError(err).Warn("postgres collector failed to query pg_stat_bgwriter")
		return telemetry.Batch{}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return telemetry.Batch{}
	}

	var batch telemetry.Batch
	if !rows.Next() {
		return batch
	}
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := rows.Scan(pointers...); err != nil {
		return batch
	}

	labels := map[string]string{"source": "postgres", "type": "bgwriter"}
	for i, col := range columns {
		value, ok := toFloat(values[i])
		if !ok {
			continue
		}
		m, err := telemetry.NewMetric("postgres_bgwriter_"+col, value, 0, labels)
		if err != nil {
			continue
		}
		batch.Metrics = append(batch.Metrics, m)
	}
	return batch
}
