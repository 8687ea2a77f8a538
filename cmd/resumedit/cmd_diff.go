package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/houzhh15/resumedit/pkg/markupdiff"
)

func newDiffCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "diff",
		Short: "本地计算两个版本的差异（不访问服务端）",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)

			original, err := os.ReadFile(mustGetString(cmd, "original"))
			if err != nil {
				return fmt.Errorf("read original: %w", err)
			}
			current, err := os.ReadFile(mustGetString(cmd, "current"))
			if err != nil {
				return fmt.Errorf("read current: %w", err)
			}

			opts := markupdiff.Options{}
			opts.IgnoreCase, _ = cmd.Flags().GetBool("ignore-case")
			opts.IgnoreWhitespace, _ = cmd.Flags().GetBool("ignore-whitespace")
			showTokens, _ := cmd.Flags().GetBool("tokens")
			textMode, _ := cmd.Flags().GetBool("text")

			var tokens []markupdiff.DiffToken
			if textMode {
				tokens = markupdiff.DiffText(string(original), string(current), opts)
			} else {
				tokens = markupdiff.DiffMarkup(string(original), string(current), opts)
			}

			out := cmd.OutOrStdout()
			if cfg.Output == "json" {
				return printJSON(out, map[string]interface{}{
					"html":    markupdiff.Render(tokens),
					"tokens":  tokens,
					"summary": markupdiff.Summarize(tokens),
				})
			}
			if showTokens {
				for _, t := range tokens {
					fmt.Fprintf(out, "%-9s %q\n", t.Status, t.Text)
				}
				return nil
			}
			_, err = fmt.Fprintln(out, markupdiff.Render(tokens))
			return err
		},
	}
	c.Flags().String("original", "", "原始版本文件（必选）")
	c.Flags().String("current", "", "当前版本文件（必选）")
	c.Flags().Bool("ignore-case", false, "忽略大小写差异")
	c.Flags().Bool("ignore-whitespace", false, "忽略空白差异")
	c.Flags().Bool("tokens", false, "输出 token 序列而非渲染结果")
	c.Flags().Bool("text", false, "按纯文本比较，不识别标签")
	_ = c.MarkFlagRequired("original")
	_ = c.MarkFlagRequired("current")
	return c
}

// mustGetString 获取必选的字符串标志
func mustGetString(cmd *cobra.Command, flag string) string {
	v, _ := cmd.Flags().GetString(flag)
	return v
}
