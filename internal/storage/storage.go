package storage

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"collab_web/pkg/config"
)

// DB 包裝 gorm 連線，repository 都透過它存取資料庫
type DB struct {
	*gorm.DB
}

// Open 依照設定選擇資料庫驅動
func Open(cfg config.DBConfig, log *slog.Logger) (*DB, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgresDB(cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, log)
	case "sqlite":
		return NewSQLiteDB(cfg.Path, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func NewPostgresDB(host, user, password, dbname string, port int, log *slog.Logger) (*DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		host, user, password, dbname, port)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: db}, nil
}

// NewSQLiteDB 用於本機開發與測試，path 可以是 ":memory:"
func NewSQLiteDB(path string, log *slog.Logger) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// sqlite 同時只允許一個寫入者，記憶體資料庫也需要共用同一條連線
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return &DB{DB: db}, nil
}

func gormConfig(log *slog.Logger) *gorm.Config {
	cfg := &gorm.Config{TranslateError: true}
	if log != nil {
		cfg.Logger = logger.New(
			slog.NewLogLogger(log.Handler(), slog.LevelWarn),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		)
	}
	return cfg
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate 自動遷移資料庫結構
func (db *DB) AutoMigrate(models ...interface{}) error {
	return db.DB.AutoMigrate(models...)
}
