package cmd

import (
	"os"
	"strconv"

	"github.com/austin-smith/fusion-bridge/connector"
	"github.com/austin-smith/fusion-bridge/db"
	"github.com/austin-smith/fusion-bridge/yolink"
	"github.com/rs/zerolog/log"
)

// defaultCallsPerSecond paces outbound YoLink API calls. Single commands are
// unaffected (the first call is free); bulk operations like a with-state
// device sync stay under the platform's rate limit (code 010301).
const defaultCallsPerSecond = 5

// buildService wires the connector service to the database and the platform
// client. The client's OnConfigUpdated hook points back at the service so
// refreshed tokens are persisted as soon as they are issued.
func buildService() *connector.Service {
	client := yolink.NewClient()
	client.Limiter = yolink.NewRateLimiter(apiRateFromEnv())
	svc := connector.NewService(
		db.NewConnectorRepository(db.GetDB()),
		db.NewDeviceRepository(db.GetDB()),
		db.NewEventRepository(db.GetDB()),
		client,
	)
	client.OnConfigUpdated = svc.PersistConfig
	return svc
}

// apiRateFromEnv reads the FUSION_API_RATE environment variable (calls per
// second, fractional values allowed). Unset or unparsable values fall back
// to the default; zero or negative disables pacing.
func apiRateFromEnv() float64 {
	raw := os.Getenv("FUSION_API_RATE")
	if raw == "" {
		return defaultCallsPerSecond
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warn().Str("value", raw).Msg("Invalid FUSION_API_RATE, using the default rate")
		return defaultCallsPerSecond
	}
	return rate
}
