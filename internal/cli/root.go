package cli

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nodelaunch/internal/launcher"
)

var (
	configPath string
	taskID     string
	envName    string
	pipeline   string
	verbose    bool
)

// rootCmd 是 nodelaunch 的命令入口。
var rootCmd = &cobra.Command{
	Use:   "nodelaunch",
	Short: "Launch single pipeline nodes as Kubernetes pods",
	Long: "nodelaunch builds a complete pod specification for one pipeline node " +
		"and drives its submission, monitoring and cleanup on Kubernetes.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

// Execute 在给定上下文中运行命令树。
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", envOr("NODELAUNCH_CONFIG", ""),
		"path to the run configuration file")
	rootCmd.PersistentFlags().StringVarP(&taskID, "task-id", "t", "",
		"task identifier (defaults to the node name)")
	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", "",
		"execution environment, overrides the configuration")
	rootCmd.PersistentFlags().StringVarP(&pipeline, "pipeline", "p", "",
		"pipeline name, overrides the configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newRenderCmd())
}

// loadConfig 读取配置文件并套用命令行覆盖项。
func loadConfig() (launcher.Config, error) {
	cfg, err := launcher.LoadConfig(configPath)
	if err != nil {
		return launcher.Config{}, err
	}
	if envName != "" {
		cfg.Environment = envName
	}
	if pipeline != "" {
		cfg.Pipeline = pipeline
	}
	return cfg, nil
}

// envOr 读取环境变量，当变量不存在时返回默认值。
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
