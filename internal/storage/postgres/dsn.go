package postgres

import (
	"fmt"

	"github.com/GoSim-25-26J-441/issue-tracker/config"
)

// DSN renders a lib/pq keyword/value connection string.
func DSN(cfg *config.DatabaseConfig) string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Name,
	)
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password='%s'", escapeValue(cfg.Password))
	}
	return dsn
}

func escapeValue(v string) string {
	out := make([]rune, 0, len(v))
	for _, r := range v {
		if r == '\'' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
