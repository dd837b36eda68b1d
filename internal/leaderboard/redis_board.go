package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yuqie6/SkillForge/internal/schema"
)

// RedisOptions Redis 连接参数
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	Key         string
	DialTimeout time.Duration
}

// RedisBoard 基于有序集合的排行榜：
// <key> 存 skill_id -> total_xp，<key>:names 存 skill_id -> name
type RedisBoard struct {
	rdb *redis.Client
	key string
}

// NewRedisBoard 连接 Redis 并校验可用
func NewRedisBoard(ctx context.Context, opts RedisOptions) (*RedisBoard, error) {
	if opts.Key == "" {
		opts.Key = "skillforge:leaderboard"
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	slog.Info("排行榜已连接 Redis", "addr", opts.Addr, "db", opts.DB, "key", opts.Key)
	return &RedisBoard{rdb: rdb, key: opts.Key}, nil
}

func (b *RedisBoard) namesKey() string {
	return b.key + ":names"
}

func member(skillID int64) string {
	return strconv.FormatInt(skillID, 10)
}

func (b *RedisBoard) Record(ctx context.Context, skillID int64, name string, totalXP int64) error {
	pipe := b.rdb.TxPipeline()
	pipe.ZAdd(ctx, b.key, redis.Z{Score: float64(totalXP), Member: member(skillID)})
	if name != "" {
		pipe.HSet(ctx, b.namesKey(), member(skillID), name)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入排行榜失败: %w", err)
	}
	return nil
}

func (b *RedisBoard) Remove(ctx context.Context, skillID int64) error {
	pipe := b.rdb.TxPipeline()
	pipe.ZRem(ctx, b.key, member(skillID))
	pipe.HDel(ctx, b.namesKey(), member(skillID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("移除排行榜条目失败: %w", err)
	}
	return nil
}

func (b *RedisBoard) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	zs, err := b.rdb.ZRevRangeWithScores(ctx, b.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("查询排行榜失败: %w", err)
	}
	if len(zs) == 0 {
		return []Entry{}, nil
	}

	ids := make([]string, 0, len(zs))
	for _, z := range zs {
		ids = append(ids, fmt.Sprint(z.Member))
	}
	names, err := b.rdb.HMGet(ctx, b.namesKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("查询排行榜名称失败: %w", err)
	}

	out := make([]Entry, 0, len(zs))
	for i, z := range zs {
		id, err := strconv.ParseInt(ids[i], 10, 64)
		if err != nil {
			continue
		}
		name, _ := names[i].(string)
		out = append(out, Entry{Rank: int64(i + 1), SkillID: id, Name: name, TotalXP: int64(z.Score)})
	}
	return out, nil
}

// Rebuild 用数据库中的技能重建排行榜（启动时调用）
func (b *RedisBoard) Rebuild(ctx context.Context, skills []schema.Skill) error {
	pipe := b.rdb.TxPipeline()
	pipe.Del(ctx, b.key, b.namesKey())
	for _, s := range skills {
		pipe.ZAdd(ctx, b.key, redis.Z{Score: float64(s.TotalXP), Member: member(s.ID)})
		pipe.HSet(ctx, b.namesKey(), member(s.ID), s.Name)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("重建排行榜失败: %w", err)
	}
	slog.Info("排行榜已重建", "skills", len(skills))
	return nil
}

func (b *RedisBoard) Close() error {
	return b.rdb.Close()
}
