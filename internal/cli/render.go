package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"nodelaunch/internal/launcher"
)

// newRenderCmd 构建 render 子命令，只生成清单而不接触集群。
func newRenderCmd() *cobra.Command {
	var (
		overlayOnly bool
		outputPath  string
	)

	cmd := &cobra.Command{
		Use:   "render <node>",
		Short: "Render the workload manifest for one node without submitting it",
		Long: "render produces the pod manifest the run command would submit. Deferred " +
			"context expressions stay unresolved so a host scheduler can fill them in later.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			spec, err := launcher.BuildWorkloadSpec(cfg.RequestForNode(args[0], taskID))
			if err != nil {
				return err
			}

			overlayDoc, err := spec.Overlay.Render()
			if err != nil {
				return err
			}

			out := overlayDoc
			if !overlayOnly {
				pod, err := launcher.BuildPodManifest(spec, overlayDoc)
				if err != nil {
					return err
				}
				data, err := yaml.Marshal(pod)
				if err != nil {
					return fmt.Errorf("marshal pod manifest: %w", err)
				}
				out = string(data)
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(out), 0o644); err != nil {
					return fmt.Errorf("write manifest: %w", err)
				}
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overlayOnly, "overlay", false,
		"emit the supplemental overlay document instead of the merged manifest")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"write the manifest to this file instead of stdout")
	return cmd
}
