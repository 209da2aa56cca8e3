package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/supportdesk/internal/config"
)

// applicationName identifies archive sessions in pg_stat_activity.
const applicationName = "supportdesk"

// BuildConnString renders cfg as a postgres:// URL for pgxpool. Credentials
// are escaped as URL userinfo and IPv6 hosts are bracketed. An empty
// SSLMode means "prefer".
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
		RawQuery: url.Values{
			"sslmode":          {sslMode},
			"application_name": {applicationName},
		}.Encode(),
	}
	return u.String()
}
