package collectors

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

var mariadbDefaultMetrics = []string{"Threads_connected", "Connections", "Uptime", "Questions"}

// newMariaDBCollector runs SHOW GLOBAL STATUS and reports the configured
// subset of counters, grounded on inputs/mariadb.py.
func newMariaDBCollector(options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error) {
	host := stringOption(options, "host", "")
	port := intOption(options, "port", 3306)
	user := stringOption(options, "user", "")
	password := stringOption(options, "password", "")
	hostname := stringOption(options, "hostname", "")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}

	wantedNames := stringSliceOption(options, "metrics")
	if len(wantedNames) == 0 {
		wantedNames = mariadbDefaultMetrics
	}
	wanted := make(map[string]bool, len(wantedNames))
	for _, name := range wantedNames {
		wanted[name] = true
	}

	if host == "" || user == "" {
		return telemetry.CollectorDescriptor{}, fmt.Errorf("mariadb collector requires host and user")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/?timeout=5s", user, password, host, port)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return telemetry.CollectorDescriptor{}, fmt.Errorf("opening mariadb connection: %w", err)
	}

	return telemetry.CollectorDescriptor{
		Invoke: func(ctx context.Context) (telemetry.Batch, error) {
			rows, err := db.QueryContext(ctx, "SHOW GLOBAL STATUS")
			if err != nil {
				logger.WithError(err).Warn("mariadb collector failed to query status")
				return telemetry.Batch{}, nil
			}
			defer rows.Close()

			var batch telemetry.Batch
			for rows.Next() {
				var key, value string
				if err := rows.Scan(&key, &value); err != nil {
					continue
				}
				if !wanted[key] {
					continue
				}
				parsed, ok := toFloat(value)
				if !ok {
					continue
				}
				lowerKey := strings.ToLower(key)
				labels := map[string]string{"host": hostname, "metric": lowerKey}
				m, err := telemetry.NewMetric("mariadb_"+lowerKey, parsed, 0, labels)
				if err != nil {
					continue
				}
				batch.Metrics = append(batch.Metrics, m)
			}
			return batch, nil
		},
	}, nil
}
