package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nodelaunch/internal/adapters/report"
	"nodelaunch/internal/adapters/valuestore"
	"nodelaunch/internal/launcher"
)

// newRunCmd 构建 run 子命令，提交节点工作负载并等待其完成。
func newRunCmd() *cobra.Command {
	var (
		reportPath    string
		storeEndpoint string
		valuesFile    string
		values        map[string]string
	)

	cmd := &cobra.Command{
		Use:   "run <node>",
		Short: "Submit one pipeline node to Kubernetes and wait for completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			spec, err := launcher.BuildWorkloadSpec(cfg.RequestForNode(args[0], taskID))
			if err != nil {
				return err
			}

			log := launcher.NewLogrusLogger(nil)
			store, err := buildValueStore(cfg.ValueStore, storeEndpoint, valuesFile, values, log)
			if err != nil {
				return err
			}
			orch, err := launcher.NewPodManager(cfg.Namespace, log)
			if err != nil {
				return err
			}
			runner, err := launcher.NewRunner(orch, store, log)
			if err != nil {
				return err
			}

			res := runner.Run(cmd.Context(), spec)
			if reportPath != "" {
				if err := report.Write(reportPath, res); err != nil {
					log.Errorf("write report: %v", err)
				}
			}
			if !res.Success {
				if res.Error != nil {
					return res.Error
				}
				return fmt.Errorf("node %q failed", res.Node)
			}
			log.Infof("node %q completed successfully (workload=%s)", res.Node, res.WorkloadName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportPath, "report", "r", "", "write a JSON run report to this path")
	cmd.Flags().StringVar(&storeEndpoint, "store", "", "value store endpoint, overrides the configuration")
	cmd.Flags().StringVar(&valuesFile, "values-file", "", "YAML file with static context values")
	cmd.Flags().StringToStringVar(&values, "value", nil, "static context value as key=value")
	return cmd
}

// buildValueStore 按命令行覆盖优先于配置的顺序挑选值来源，全部缺省时返回 nil。
func buildValueStore(cfg launcher.ValueStoreConfig, endpoint, file string, extra map[string]string, log launcher.Logger) (launcher.ValueStore, error) {
	if endpoint == "" {
		endpoint = cfg.Endpoint
	}
	if endpoint != "" {
		log.Infof("using value store endpoint %s", endpoint)
		return valuestore.NewHTTPStore(endpoint, log)
	}

	if file == "" {
		file = cfg.File
	}
	merged := map[string]string{}
	for k, v := range cfg.Values {
		merged[k] = v
	}
	if file != "" {
		loaded, err := valuestore.LoadValueFile(file)
		if err != nil {
			return nil, err
		}
		for k, v := range loaded {
			merged[k] = v
		}
	}
	for k, v := range extra {
		merged[k] = v
	}
	if len(merged) == 0 {
		return nil, nil
	}

	log.Infof("using static value store (%d keys)", len(merged))
	return valuestore.NewStaticStore(merged, log), nil
}
