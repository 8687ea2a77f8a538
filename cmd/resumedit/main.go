package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "resumedit",
		Short:         "resumedit CLI - 简历章节差异与版本历史",
		Long:          "本地计算简历章节差异，或调用 resumedit 服务端 HTTP API 记录、查询、恢复章节变更。",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// 添加全局标志
	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(newDiffCmd())
	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newRestoreCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
