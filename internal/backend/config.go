package backend

import (
	"errors"
	"fmt"
	"time"

	"smartspend/internal/config"
	"smartspend/internal/ledger/google"
)

// Config holds what the factory needs for every backend type.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	Sheets google.Config

	// Firestore specific
	FirestoreProjectID string

	// Memory specific
	DataDirectory string

	// SourceCacheTTL enables the read cache in front of remote sources.
	SourceCacheTTL time.Duration
}

// FromAppConfig converts the application config to a backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		Sheets: google.Config{
			SpreadsheetID: appConfig.GoogleSpreadsheetID,
			EarningsSheet: appConfig.GoogleEarningsSheet,
			SpendingSheet: appConfig.GoogleSpendingSheet,
			UsersSheet:    appConfig.GoogleUsersSheet,
		},

		FirestoreProjectID: appConfig.FirestoreProjectID,
		DataDirectory:      appConfig.MemorySeedDir,
		SourceCacheTTL:     appConfig.SourceCacheTTL,
	}, nil
}

// Validate checks the settings required by c.Type.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return c.validateFor(c.Type)
}

func (c Config) validateFor(t BackendType) error {
	switch t {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
	case FirestoreBackend:
		if c.FirestoreProjectID == "" {
			return errors.New("Firestore project ID is required for firestore backend")
		}
	}
	return nil
}

// GetBackendTypes returns all valid backend types.
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, SheetsBackend, FirestoreBackend}
}
