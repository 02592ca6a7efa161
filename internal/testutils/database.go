package testutils

import (
	"path/filepath"
	"testing"
	"time"

	"safc/internal/config"
	"safc/internal/db"

	"gorm.io/gorm"
)

// SetupTestDB 在临时目录中创建一个全新的 sqlite 数据库
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "test.sqlite"),
		LogLevel:     "silent",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		MaxLifetime:  time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close(gdb)
	})
	return gdb
}
