package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goecs/internal/config"
	"github.com/dbsmedya/goecs/internal/diagram"
	"github.com/dbsmedya/goecs/internal/ecs"
	"github.com/dbsmedya/goecs/internal/logger"
	"github.com/dbsmedya/goecs/internal/world"
)

var describeNoColor bool

var describeCmd = &cobra.Command{
	Use:   "describe <system>",
	Short: "Render a system's table partition as an ASCII diagram",
	Long: `Loads the config file, seeds and binds every declared system the
same way run does, then prints one system's active/inactive table
partition and per-table offset codes.`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

func init() {
	describeCmd.Flags().BoolVar(&describeNoColor, "no-color", false, "disable colorized output")
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	systemID := args[0]

	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logger.NewDefault()
	w := world.New()
	seedWorld(w, cfg)

	systems, err := buildSystems(w, cfg, log)
	if err != nil {
		return err
	}

	var target *ecs.System
	for _, s := range systems {
		if s.ID == systemID {
			target = s
			break
		}
	}
	if target == nil {
		return fmt.Errorf("system %q not found in configuration", systemID)
	}

	out := diagram.RenderSystem(w, target, &diagram.Config{UseColor: !describeNoColor})
	cmd.Print(out)
	return nil
}
