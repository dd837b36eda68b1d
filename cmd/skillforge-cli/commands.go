package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yuqie6/SkillForge/internal/pkg/buildinfo"
	"github.com/yuqie6/SkillForge/internal/pkg/config"
	"github.com/yuqie6/SkillForge/internal/schema"
)

func skillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "管理技能",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "列出全部技能",
		Args:  cobra.NoArgs,
		RunE: withCore(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			skills, err := core.Services.Skills.ListSkills(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(skills) == 0 {
				fmt.Fprintln(out, "📚 还没有技能记录")
				fmt.Fprintln(out, "   使用 'skillforge skills create <name>' 创建一个")
				return nil
			}
			printSkills(out, skills)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "创建技能",
		Args:  cobra.ExactArgs(1),
		RunE: withCore(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			skill, err := core.Services.Skills.CreateSkill(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ 已创建技能 #%d %s\n", skill.ID, skill.Name)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "查看技能详情",
		Args:  cobra.ExactArgs(1),
		RunE: withCore(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseSkillID(args[0])
			if err != nil {
				return err
			}
			skill, err := core.Services.Skills.GetSkill(ctx, id)
			if err != nil {
				return err
			}
			printSkill(cmd.OutOrStdout(), skill)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "删除技能及其全部练习记录",
		Args:  cobra.ExactArgs(1),
		RunE: withCore(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseSkillID(args[0])
			if err != nil {
				return err
			}
			skill, err := core.Services.Skills.DeleteSkill(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🗑️  已删除技能 #%d %s\n", skill.ID, skill.Name)
			return nil
		}),
	})

	return cmd
}

func logCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log <skill-id> <minutes>",
		Short: "记录一次练习",
		Args:  cobra.ExactArgs(2),
		RunE: withCore(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseSkillID(args[0])
			if err != nil {
				return err
			}
			minutes, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("练习时长必须是整数分钟: %q", args[1])
			}

			before, err := core.Services.Skills.GetSkill(ctx, id)
			if err != nil {
				return err
			}
			skill, err := core.Services.Skills.LogSession(ctx, id, minutes)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✅ %s +%d XP\n", skill.Name, skill.TotalXP-before.TotalXP)
			if skill.CurrentLevel > before.CurrentLevel {
				fmt.Fprintf(out, "🎉 升级！Lv.%d → Lv.%d\n", before.CurrentLevel, skill.CurrentLevel)
			}
			printSkill(out, skill)
			return nil
		}),
	}
}

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <skill-id>",
		Short: "查看技能的练习记录",
		Args:  cobra.ExactArgs(1),
		RunE: withCore(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseSkillID(args[0])
			if err != nil {
				return err
			}
			sessions, err := core.Services.Skills.ListSessions(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "📚 还没有练习记录")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\t时间\t分钟\tXP")
			for _, s := range sessions {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.DurationMinutes, s.XPAwarded)
			}
			return tw.Flush()
		}),
	}
}

func leaderboardCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "按累计经验排名",
		Args:  cobra.NoArgs,
		RunE: withCore(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			entries, err := core.Board.Top(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "📚 排行榜为空")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "#\t技能\tXP")
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%d\n", e.Rank, e.Name, e.TotalXP)
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "显示条数")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "配置文件",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "写出默认配置",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				p, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("配置文件已存在: %s（使用 --force 覆盖）", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.WriteFile(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ 已写入 %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "覆盖已有文件")
	cmd.AddCommand(initCmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}

func parseSkillID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("非法的技能 ID: %q", raw)
	}
	return id, nil
}

func printSkills(out io.Writer, skills []schema.Skill) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t技能\t等级\t总 XP\t距下一级")
	for _, s := range skills {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", s.ID, s.Name, s.CurrentLevel, s.TotalXP, s.XPToNextLevel)
	}
	_ = tw.Flush()
}

func printSkill(out io.Writer, s schema.Skill) {
	fmt.Fprintf(out, "🎯 #%d %s\n", s.ID, s.Name)
	fmt.Fprintf(out, "   等级: Lv.%d\n", s.CurrentLevel)
	fmt.Fprintf(out, "   经验: %d（本级 %d，距下一级 %d）\n", s.TotalXP, s.ProgressXP, s.XPToNextLevel)
}
