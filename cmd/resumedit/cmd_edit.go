package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func newEditCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "edit",
		Short: "记录章节变更 (accept/reject/restore)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			client := NewAPIClient(cfg)

			original, err := readContent(mustGetString(cmd, "original"))
			if err != nil {
				return err
			}
			updated, err := readContent(mustGetString(cmd, "new"))
			if err != nil {
				return err
			}
			body := map[string]interface{}{
				"sectionId":       mustGetString(cmd, "section-id"),
				"sectionType":     mustGetString(cmd, "section-type"),
				"originalContent": original,
				"newContent":      updated,
				"action":          mustGetString(cmd, "action"),
			}
			if r := mustGetString(cmd, "rationale"); r != "" {
				body["rationale"] = r
			}

			resp, err := client.Request(http.MethodPost, "/api/v1/edit", body)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), cfg.Output, resp)
		},
	}
	c.Flags().String("section-id", "", "章节ID，如 experience_0（必选）")
	c.Flags().String("section-type", "", "章节类型: title/summary/experience/skills（必选）")
	c.Flags().String("original", "", "原内容，@file 表示从文件读取（必选）")
	c.Flags().String("new", "", "新内容，@file 表示从文件读取（必选）")
	c.Flags().String("action", "accept", "操作: accept/reject/restore")
	c.Flags().String("rationale", "", "变更理由（最多 500 字符）")
	_ = c.MarkFlagRequired("section-id")
	_ = c.MarkFlagRequired("section-type")
	_ = c.MarkFlagRequired("original")
	_ = c.MarkFlagRequired("new")
	return c
}

func newRestoreCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "restore",
		Short: "恢复到指定变更的内容",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			client := NewAPIClient(cfg)
			changeID := mustGetString(cmd, "change-id")
			resp, err := client.Request(http.MethodPost, "/api/v1/edit/restore/"+url.PathEscape(changeID), nil)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), cfg.Output, resp)
		},
	}
	c.Flags().String("change-id", "", "变更ID，如 chg_1a2b3c4d5e（必选）")
	_ = c.MarkFlagRequired("change-id")
	return c
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "章节变更历史",
	}
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryClearCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "列出章节最近的变更（新的在前）",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			client := NewAPIClient(cfg)
			path := "/api/v1/edit/history/" + url.PathEscape(mustGetString(cmd, "section-id"))
			if cmd.Flags().Changed("limit") {
				limit, _ := cmd.Flags().GetInt("limit")
				path += fmt.Sprintf("?limit=%d", limit)
			}
			resp, err := client.Get(path)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), cfg.Output, resp)
		},
	}
	c.Flags().String("section-id", "", "章节ID（必选）")
	c.Flags().Int("limit", 0, "最多返回条数 (默认全部)")
	_ = c.MarkFlagRequired("section-id")
	return c
}

func newHistoryClearCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "clear",
		Short: "清空章节历史，未指定 --section-id 时清空全部",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			client := NewAPIClient(cfg)
			path := "/api/v1/edit/history"
			if id := mustGetString(cmd, "section-id"); id != "" {
				path += "/" + url.PathEscape(id)
			}
			resp, err := client.Request(http.MethodDelete, path, nil)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), cfg.Output, resp)
		},
	}
	c.Flags().String("section-id", "", "章节ID（可选）")
	return c
}
