package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/sourcegraph/conc/pool"

	"github.com/dbsmedya/goecs/internal/config"
	"github.com/dbsmedya/goecs/internal/ecs"
	"github.com/dbsmedya/goecs/internal/invariants"
	"github.com/dbsmedya/goecs/internal/logger"
	"github.com/dbsmedya/goecs/internal/pipeline"
	"github.com/dbsmedya/goecs/internal/runlock"
	"github.com/dbsmedya/goecs/internal/scheduler"
	"github.com/dbsmedya/goecs/internal/types"
	"github.com/dbsmedya/goecs/internal/world"
)

var (
	runCheckInvariants bool
	runSequential      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Seed a world from config and run its periodic systems once",
	Long: `Loads the config file, seeds internal/world with the declared
components and tables, registers every declared system, and runs one tick
of every periodic system. By default, systems that share no bound table run
concurrently, level by level over the conflict graph; systems that do share
a table are placed in successive levels in registration order, so they
never run at the same time.
--sequential collapses this to one single-file pass over the whole
conflict-ordered list, trading concurrency for one deterministic
interleaving.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runCheckInvariants, "check-invariants", false,
		"Run the testable-property checks after each system tick")
	runCmd.Flags().BoolVar(&runSequential, "sequential", false,
		"Run periodic systems one at a time in conflict order instead of by concurrent levels")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.Workers, overrides.ChunkSize)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	w := world.New()
	seedWorld(w, cfg)

	systems, err := buildSystems(w, cfg, log)
	if err != nil {
		return err
	}

	periodic := periodicSystems(systems)
	graph := pipeline.Build(toSystemViews(periodic))

	byID := make(map[string]*ecs.System, len(periodic))
	for _, s := range periodic {
		byID[s.ID] = s
	}

	lock := runlock.New()
	tick := func(id string) error {
		s := byID[id]
		engine := cfg.ApplySystemOverrides(id, overrides.Workers, overrides.ChunkSize)
		if err := scheduler.Run(context.Background(), w, s, nil, lock, log, engine.Workers, engine.ChunkSize); err != nil {
			return fmt.Errorf("running system %q: %w", id, err)
		}
		if runCheckInvariants {
			invariants.LogReport(log, invariants.CheckAll(w, s))
		}
		return nil
	}

	if runSequential {
		order, err := graph.Order()
		if err != nil {
			return fmt.Errorf("ordering periodic systems: %w", err)
		}
		for _, id := range order {
			if err := tick(id); err != nil {
				return err
			}
		}
		return nil
	}

	return runLevels(graph, tick)
}

// runLevels drives Kahn's algorithm one level at a time instead of one node
// at a time: every system in a level has no unresolved conflict left, so the
// whole level runs concurrently, and only a level's boundary forces systems
// that do conflict to wait for each other.
func runLevels(graph *pipeline.Graph, tick func(id string) error) error {
	inDegree := graph.CalculateInDegrees()
	queue := graph.InitializeQueue(inDegree)

	processed := 0
	total := graph.NodeCount()
	for !queue.IsEmpty() {
		level := make([]string, 0, queue.Len())
		for n := queue.Len(); n > 0; n-- {
			id, _ := queue.Dequeue()
			level = append(level, id)
		}

		p := pool.New().WithErrors()
		for _, id := range level {
			id := id
			p.Go(func() error { return tick(id) })
		}
		if err := p.Wait(); err != nil {
			return err
		}
		processed += len(level)

		for _, id := range level {
			for _, child := range graph.GetChildren(id) {
				inDegree[child]--
				if inDegree[child] == 0 {
					queue.Enqueue(child)
				}
			}
		}
	}

	if processed != total {
		return fmt.Errorf("ordering periodic systems: %w", graph.Validate())
	}
	return nil
}

func seedWorld(w *world.World, cfg *config.Config) {
	for _, name := range cfg.World.Components {
		w.Define(name)
	}
	for i, table := range cfg.World.Tables {
		entityPrefix := fmt.Sprintf("seed_table_%d", i)
		handles := make([]types.Handle, len(table.Components))
		for j, name := range table.Components {
			handles[j] = w.Define(name)
		}
		for r := 0; r < table.Rows; r++ {
			e := w.Define(fmt.Sprintf("%s_row_%d", entityPrefix, r))
			for _, h := range handles {
				w.Add(e, h, nil)
			}
		}
	}
}

func buildSystems(w *world.World, cfg *config.Config, log *logger.Logger) ([]*ecs.System, error) {
	ids := make([]string, 0, len(cfg.Systems))
	for id := range cfg.Systems {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	systems := make([]*ecs.System, 0, len(ids))
	for _, id := range ids {
		sysCfg := cfg.Systems[id]
		kind, err := parseKind(sysCfg.Kind)
		if err != nil {
			return nil, fmt.Errorf("system %q: %w", id, err)
		}

		sysLog := log.WithSystem(id)
		action := func(info *ecs.Info) {
			for row := info.First; row < info.Last; row++ {
				for i := range info.OffsetCodes {
					if v, ok := info.Component(i, row); ok {
						sysLog.Debugf("table %d row %d column %d = %v", info.TableIndex, row, i, v)
					}
				}
			}
		}

		handle, err := ecs.New(w, id, kind, sysCfg.Signature, action)
		if err != nil {
			return nil, fmt.Errorf("system %q: %w", id, err)
		}
		s, ok := w.WatcherFor(handle).(*ecs.System)
		if !ok {
			return nil, fmt.Errorf("system %q: watcher is not *ecs.System", id)
		}
		if err := ecs.Enable(w, s, sysCfg.IsEnabled()); err != nil {
			return nil, fmt.Errorf("system %q: %w", id, err)
		}
		systems = append(systems, s)
	}
	return systems, nil
}

func parseKind(kind string) (types.SystemKind, error) {
	switch kind {
	case "", "periodic":
		return types.Periodic, nil
	case "on_demand":
		return types.OnDemand, nil
	case "on_init":
		return types.OnInit, nil
	case "on_deinit":
		return types.OnDeinit, nil
	default:
		return 0, fmt.Errorf("unknown system kind %q", kind)
	}
}

func periodicSystems(systems []*ecs.System) []*ecs.System {
	out := make([]*ecs.System, 0, len(systems))
	for _, s := range systems {
		if s.Kind == types.Periodic {
			out = append(out, s)
		}
	}
	return out
}

func toSystemViews(systems []*ecs.System) []pipeline.SystemView {
	out := make([]pipeline.SystemView, len(systems))
	for i, s := range systems {
		out[i] = s
	}
	return out
}
