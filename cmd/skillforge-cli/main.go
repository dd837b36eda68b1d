package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/yuqie6/SkillForge/internal/bootstrap"
)

var (
	cfgFile string
	core    *bootstrap.Core
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "skillforge",
		Short:         "SkillForge - 技能成长记录",
		Long:          `SkillForge 记录每个技能的练习时长，按经验曲线计算等级。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")

	rootCmd.AddCommand(skillsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(leaderboardCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// withCore 需要数据库的子命令统一走这里，命令结束即释放
func withCore(fn func(ctx context.Context, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		c, err := bootstrap.NewCore(ctx, bootstrap.Options{ConfigPath: cfgFile})
		if err != nil {
			slog.Error("初始化失败", "error", err)
			return err
		}
		core = c
		defer func() {
			_ = core.Close()
			core = nil
		}()

		if err := fn(ctx, cmd, args); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "❌ %v\n", err)
			return err
		}
		return nil
	}
}
