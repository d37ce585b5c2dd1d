package sessioncache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sqliteDialector "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrUnsupportedDialect indicates that no GORM dialector is available for the scheme.
	ErrUnsupportedDialect = errors.New("session_cache.unsupported_dialect")

	errEmptyDatabaseURL    = errors.New("session_cache.empty_database_url")
	errSQLiteEmptyPath     = errors.New("session_cache.sqlite.empty_path")
	errSQLiteInvalidURL    = errors.New("session_cache.sqlite.invalid_url")
	errUnsupportedNoScheme = errors.New("session_cache.unsupported_no_scheme")
)

// currentSessionKey keys the single persisted session of this app instance.
const currentSessionKey = "current"

// DatabaseStore persists the provider refresh token between runs using GORM,
// so a signed-in session survives an app restart.
type DatabaseStore struct {
	db          *gorm.DB
	driverLabel string
}

// Driver exposes the selected database driver label.
func (store *DatabaseStore) Driver() string {
	return store.driverLabel
}

type sessionRecord struct {
	CacheKey     string `gorm:"column:cache_key;primaryKey"`
	SubjectID    string `gorm:"column:subject_id;not null"`
	RefreshToken string `gorm:"column:refresh_token;not null"`
	SavedAtUnix  int64  `gorm:"column:saved_at_unix;not null"`
}

func (sessionRecord) TableName() string {
	return "session_cache"
}

// NewDatabaseStore constructs a GORM-backed store for the given URL
// (sqlite:// or postgres://).
func NewDatabaseStore(ctx context.Context, databaseURL string) (*DatabaseStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("session_cache.open: %w", errEmptyDatabaseURL)
	}
	dialector, driverLabel, err := resolveDialector(databaseURL)
	if err != nil {
		return nil, err
	}
	gormDB, openErr := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if openErr != nil {
		return nil, fmt.Errorf("session_cache.open.%s: %w", driverLabel, openErr)
	}
	if migrateErr := gormDB.WithContext(ctx).AutoMigrate(&sessionRecord{}); migrateErr != nil {
		return nil, fmt.Errorf("session_cache.migrate.%s: %w", driverLabel, migrateErr)
	}
	return &DatabaseStore{
		db:          gormDB,
		driverLabel: driverLabel,
	}, nil
}

// SaveSession upserts the persisted session row.
func (store *DatabaseStore) SaveSession(ctx context.Context, subjectID string, refreshToken string) error {
	record := sessionRecord{
		CacheKey:     currentSessionKey,
		SubjectID:    subjectID,
		RefreshToken: refreshToken,
		SavedAtUnix:  time.Now().UTC().Unix(),
	}
	result := store.db.WithContext(ctx).Model(&sessionRecord{}).
		Where("cache_key = ?", currentSessionKey).
		Updates(map[string]any{
			"subject_id":    record.SubjectID,
			"refresh_token": record.RefreshToken,
			"saved_at_unix": record.SavedAtUnix,
		})
	if result.Error != nil {
		return fmt.Errorf("session_cache.save.%s: %w", store.driverLabel, result.Error)
	}
	if result.RowsAffected == 0 {
		if createErr := store.db.WithContext(ctx).Create(&record).Error; createErr != nil {
			return fmt.Errorf("session_cache.save.%s: %w", store.driverLabel, createErr)
		}
	}
	return nil
}

// LoadSession reads the persisted session row, if any.
func (store *DatabaseStore) LoadSession(ctx context.Context) (string, string, bool, error) {
	var record sessionRecord
	err := store.db.WithContext(ctx).Where("cache_key = ?", currentSessionKey).Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", false, nil
		}
		return "", "", false, fmt.Errorf("session_cache.load.%s: %w", store.driverLabel, err)
	}
	return record.SubjectID, record.RefreshToken, true, nil
}

// ClearSession removes the persisted session row. Clearing an empty cache is
// not an error.
func (store *DatabaseStore) ClearSession(ctx context.Context) error {
	result := store.db.WithContext(ctx).Where("cache_key = ?", currentSessionKey).Delete(&sessionRecord{})
	if result.Error != nil {
		return fmt.Errorf("session_cache.clear.%s: %w", store.driverLabel, result.Error)
	}
	return nil
}

func resolveDialector(databaseURL string) (gorm.Dialector, string, error) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("session_cache.parse_url: %w", err)
	}
	if parsed.Scheme == "" {
		return nil, "", fmt.Errorf("session_cache.dialect: %w", errUnsupportedNoScheme)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "postgres", "postgresql":
		return postgres.Open(databaseURL), "postgres", nil
	case "sqlite", "sqlite3":
		dsn, dsnErr := buildSQLiteDSN(parsed)
		if dsnErr != nil {
			return nil, "", fmt.Errorf("session_cache.sqlite: %w", dsnErr)
		}
		return sqliteDialector.Open(dsn), "sqlite", nil
	default:
		return nil, "", fmt.Errorf("session_cache.dialect.%s: %w", strings.ToLower(parsed.Scheme), ErrUnsupportedDialect)
	}
}

func buildSQLiteDSN(parsed *url.URL) (string, error) {
	if parsed == nil {
		return "", errSQLiteInvalidURL
	}
	var builder strings.Builder
	switch {
	case parsed.Opaque != "":
		builder.WriteString(parsed.Opaque)
	case parsed.Host != "":
		builder.WriteString(parsed.Host)
		if parsed.Path != "" {
			if !strings.HasPrefix(parsed.Path, "/") {
				builder.WriteString("/")
			}
			builder.WriteString(parsed.Path)
		}
	default:
		builder.WriteString(parsed.Path)
	}
	if builder.Len() == 0 {
		return "", errSQLiteEmptyPath
	}
	if parsed.RawQuery != "" {
		builder.WriteString("?")
		builder.WriteString(parsed.RawQuery)
	}
	return builder.String(), nil
}
