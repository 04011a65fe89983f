package main

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/meridianhq/meridian/internal/config"
	"github.com/meridianhq/meridian/internal/fetch"
	applog "github.com/meridianhq/meridian/internal/log"
	"github.com/meridianhq/meridian/internal/persistence"
	"github.com/meridianhq/meridian/internal/persistence/postgres"
)

// app bundles the wiring every database-backed command shares.
type app struct {
	settings *config.Settings
	db       *sqlx.DB
}

// loadSettings reads configuration and applies the log level. Commands
// that never touch the database use this directly.
func loadSettings() (*config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	applog.Setup(settings.LogLevel)
	return settings, nil
}

func newApp() (*app, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	db, err := postgres.Open(settings.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &app{settings: settings, db: db}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
}

// fetchClient builds the outbound HTTP client, with the redis response
// cache attached when a TTL is given and redis is configured.
func (a *app) fetchClient(cacheTTL time.Duration) *fetch.Client {
	var opts []fetch.Option
	if cacheTTL > 0 && a.settings.RedisURL != "" {
		opts = append(opts, fetch.WithCache(fetch.NewCache(a.settings.RedisURL, cacheTTL)))
	}
	return fetch.NewClient(opts...)
}

func (a *app) events() persistence.EventsRepo {
	return postgres.NewEventsRepo(a.db, postgres.DefaultTimeout)
}

func (a *app) cases() persistence.CasesRepo {
	return postgres.NewCasesRepo(a.db, postgres.DefaultTimeout)
}

func (a *app) metals() persistence.MetalsRepo {
	return postgres.NewMetalsRepo(a.db, postgres.DefaultTimeout)
}

func (a *app) comms() persistence.CommsRepo {
	return postgres.NewCommsRepo(a.db, postgres.DefaultTimeout)
}

func (a *app) calendar() persistence.CalendarRepo {
	return postgres.NewCalendarRepo(a.db, postgres.DefaultTimeout)
}

func (a *app) prices() persistence.PricesRepo {
	return postgres.NewPricesRepo(a.db, postgres.DefaultTimeout)
}

func (a *app) contexts() persistence.ContextRepo {
	return postgres.NewContextRepo(a.db, postgres.DefaultTimeout)
}

func (a *app) digests() persistence.DigestsRepo {
	return postgres.NewDigestsRepo(a.db, postgres.DefaultTimeout)
}

func (a *app) theses() persistence.ThesesRepo {
	return postgres.NewThesesRepo(a.db, postgres.DefaultTimeout)
}
