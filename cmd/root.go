// Package cmd 命令行入口
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configDefault 内置默认配置内容，配置文件缺失时自动生成
var configDefault string

var rootCmd = &cobra.Command{
	Use:   "collab-note-service",
	Short: "Collab Note Service",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpTemplate()
		cmd.Help()
	},
}

func Execute(c string) {
	configDefault = c
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
