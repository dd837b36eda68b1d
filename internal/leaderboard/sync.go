package leaderboard

import (
	"context"
	"log/slog"

	"github.com/yuqie6/SkillForge/internal/eventbus"
)

// Apply 把一个进度事件应用到排行榜
func Apply(ctx context.Context, board Board, evt eventbus.Event) error {
	id, ok := evt.SkillID()
	if !ok {
		return nil
	}
	switch evt.Type {
	case eventbus.TypeSkillCreated, eventbus.TypeSessionLogged:
		return board.Record(ctx, id, evt.SkillName(), evt.TotalXP())
	case eventbus.TypeSkillDeleted:
		return board.Remove(ctx, id)
	default:
		return nil
	}
}

// Sync 订阅事件总线并持续同步排行榜，直到 ctx 结束。
// ctx 结束后仍会处理完缓冲中的事件，返回的 channel 在退出时关闭。
func Sync(ctx context.Context, hub *eventbus.Hub, board Board) <-chan struct{} {
	done := make(chan struct{})
	sub := hub.Subscribe(ctx, 256)
	applyCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		for evt := range sub {
			if err := Apply(applyCtx, board, evt); err != nil {
				slog.Warn("同步排行榜失败", "event", evt.Type, "error", err)
			}
		}
	}()
	return done
}
