package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite" // 纯 Go SQLite 驱动
	_ "github.com/lib/pq"        // PostgreSQL 驱动，注册为 "postgres"
	"github.com/yuqie6/SkillForge/internal/schema"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options 数据库连接参数
type Options struct {
	Driver string // sqlite | postgres
	Path   string // sqlite 文件路径，":memory:" 为内存库
	DSN    string // postgres 连接串
}

// Database 数据库管理器
type Database struct {
	DB            *gorm.DB
	Driver        string
	SchemaVersion int
}

// NewDatabase 创建数据库连接并完成迁移
func NewDatabase(opts Options) (*Database, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		driver = DriverSQLite
	}

	dialector, err := openDialector(driver, opts)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	if driver == DriverSQLite {
		if err := configureSQLite(db); err != nil {
			return nil, fmt.Errorf("配置数据库失败: %w", err)
		}
	}

	d := &Database{DB: db, Driver: driver}
	if err := migrateWithVersion(db, d); err != nil {
		_ = d.Close()
		return nil, err
	}

	slog.Info("数据库初始化成功", "driver", driver, "schema_version", d.SchemaVersion)
	return d, nil
}

func openDialector(driver string, opts Options) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite:
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			return nil, fmt.Errorf("sqlite 路径不能为空")
		}
		if path != ":memory:" {
			// 确保目录存在
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("创建数据目录失败: %w", err)
			}
		}
		return sqlite.Open(path), nil
	case DriverPostgres:
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, fmt.Errorf("postgres DSN 不能为空")
		}
		return postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        opts.DSN,
		}), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}
}

// configureSQLite 配置 SQLite 参数。
// 连接池限制为单连接：SQLite 单写者，且 ":memory:" 库按连接隔离。
func configureSQLite(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",    // 级联删除依赖外键
		"PRAGMA journal_mode=WAL",   // 启用 WAL 模式
		"PRAGMA synchronous=NORMAL", // 平衡性能与安全
		"PRAGMA busy_timeout=5000",  // 锁等待 5s
		"PRAGMA temp_store=MEMORY",  // 临时表使用内存
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return fmt.Errorf("执行 %s 失败: %w", pragma, err)
		}
	}

	return nil
}

const latestSchemaVersion = 1

func migrateWithVersion(db *gorm.DB, out *Database) error {
	if db == nil {
		return fmt.Errorf("db 不能为空")
	}
	if out == nil {
		return fmt.Errorf("out 不能为空")
	}

	// 先确保 schema_meta 存在
	if err := db.AutoMigrate(&schema.SchemaMeta{}); err != nil {
		return fmt.Errorf("创建 schema_meta 失败: %w", err)
	}

	var meta schema.SchemaMeta
	err := db.First(&meta, 1).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			meta = schema.SchemaMeta{ID: 1, SchemaVersion: 0}
			if err := db.Create(&meta).Error; err != nil {
				return fmt.Errorf("初始化 schema_meta 失败: %w", err)
			}
		} else {
			return fmt.Errorf("读取 schema_meta 失败: %w", err)
		}
	}

	cur := meta.SchemaVersion
	out.SchemaVersion = cur

	if cur > latestSchemaVersion {
		return fmt.Errorf("数据库 schema_version=%d 高于当前程序支持的版本=%d", cur, latestSchemaVersion)
	}
	if cur == latestSchemaVersion {
		return nil
	}

	if err := db.AutoMigrate(schema.Models()...); err != nil {
		return fmt.Errorf("迁移数据库失败: %w", err)
	}

	meta.SchemaVersion = latestSchemaVersion
	if err := db.Save(&meta).Error; err != nil {
		return fmt.Errorf("写入 schema_meta 失败: %w", err)
	}
	out.SchemaVersion = latestSchemaVersion
	return nil
}

// Close 关闭数据库连接
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
