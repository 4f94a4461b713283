package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aunum/log"
	"github.com/spf13/cobra"

	"github.com/samuelfneumann/goskip/agent"
	"github.com/samuelfneumann/goskip/agent/nonlinear/discrete/skipq"
	"github.com/samuelfneumann/goskip/environment/envconfig"
	"github.com/samuelfneumann/goskip/environment/wrappers"
	"github.com/samuelfneumann/goskip/experiment"
	"github.com/samuelfneumann/goskip/experiment/checkpointer"
	"github.com/samuelfneumann/goskip/experiment/tracker"
	"github.com/samuelfneumann/goskip/initwfn"
	"github.com/samuelfneumann/goskip/network"
	"github.com/samuelfneumann/goskip/solver"
)

// Command line flags shared by the experiment subcommands
var (
	steps           uint
	seed            uint64
	discount        float64
	numSkips        int
	stackSize       int
	targetRows      int
	targetCols      int
	dataDir         string
	checkpointEvery int
)

// Flags of individual subcommands
var (
	pongCutoff  int
	gymName     string
	gymRows     int
	gymCols     int
	configFile  string
	configIndex int
)

func main() {
	root := &cobra.Command{
		Use:   "goskip",
		Short: "Train agents that choose actions and action repeat durations",
	}

	flags := root.PersistentFlags()
	flags.UintVar(&steps, "steps", 50000,
		"number of decision steps to train for")
	flags.Uint64Var(&seed, "seed", 14, "seed of the experiment")
	flags.Float64Var(&discount, "discount", 0.99,
		"discount rate of the environment")
	flags.IntVar(&numSkips, "skips", 4,
		"number of repeat durations to choose from (1 to 5)")
	flags.IntVar(&stackSize, "stack", wrappers.DefaultStackSize,
		"number of frames stacked into each observation")
	flags.IntVar(&targetRows, "target-rows", 84,
		"frame rows after preprocessing")
	flags.IntVar(&targetCols, "target-cols", 84,
		"frame columns after preprocessing")
	flags.StringVar(&dataDir, "data", ".",
		"directory to save tracked data in")
	flags.IntVar(&checkpointEvery, "checkpoint", 0,
		"frames between checkpoints of the agent's weights, 0 to disable")

	root.AddCommand(catchCommand(), pongCommand(), gymCommand(),
		runCommand())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

// catchCommand trains on the Catch environment
func catchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "catch",
		Short: "Train on the Catch environment",
		Run: func(*cobra.Command, []string) {
			run(envconfig.NewCatch(discount, targetRows, targetCols,
				stackSize, numSkips))
		},
	}
}

// pongCommand trains on the Pong environment
func pongCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pong",
		Short: "Train on the Pong environment",
		Run: func(*cobra.Command, []string) {
			run(envconfig.NewPong(discount, pongCutoff, targetRows,
				targetCols, stackSize, numSkips))
		},
	}
	cmd.Flags().IntVar(&pongCutoff, "cutoff", 1000,
		"episode length bound in frames")
	return cmd
}

// gymCommand trains on an OpenAI Gym environment with image
// observations
func gymCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gym",
		Short: "Train on an OpenAI Gym environment with image observations",
		Run: func(*cobra.Command, []string) {
			run(envconfig.NewGym(gymName, gymRows, gymCols, discount,
				targetRows, targetCols, stackSize, numSkips))
		},
	}
	cmd.Flags().StringVar(&gymName, "name", "Breakout-v0",
		"Gym environment ID")
	cmd.Flags().IntVar(&gymRows, "rows", 210,
		"frame rows of the environment")
	cmd.Flags().IntVar(&gymCols, "cols", 160,
		"frame columns of the environment")
	return cmd
}

// runCommand runs an experiment described by a JSON configuration file
// holding a serialized experiment.Config
func runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an experiment from a JSON configuration file",
		Run: func(*cobra.Command, []string) {
			data, err := os.ReadFile(configFile)
			if err != nil {
				log.Fatalf("could not read configuration: %v", err)
			}

			var conf experiment.Config
			if err := json.Unmarshal(data, &conf); err != nil {
				log.Fatalf("could not parse configuration: %v", err)
			}

			exp, err := conf.CreateExp(configIndex, seed, dataTrackers(),
				nil)
			if err != nil {
				log.Fatal(err)
			}

			online, ok := exp.(*experiment.Online)
			if ok {
				registerAgentTrackers(exp, online.Agent)
				if closer, isCloser := online.Agent.(agent.Closer); isCloser {
					defer closer.Close()
				}
			}

			if err := exp.Run(); err != nil {
				log.Fatal(err)
			}
			exp.Save()
			summarize()
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "config.json",
		"experiment configuration file")
	cmd.Flags().IntVar(&configIndex, "index", 0,
		"index of the agent configuration to run")
	return cmd
}

// run trains a SkipQ agent on the configured environment, tracking
// episodic returns, episode lengths, and repeat duration usage
func run(envConf envconfig.Config) {
	e, _, err := envConf.CreateEnv(seed)
	if err != nil {
		log.Fatal(err)
	}

	a, err := agentConfig().CreateAgent(e, seed)
	if err != nil {
		log.Fatal(err)
	}
	if closer, ok := a.(agent.Closer); ok {
		defer closer.Close()
	}

	var checkpointers []checkpointer.Checkpointer
	if checkpointEvery > 0 {
		if object, ok := a.(checkpointer.Serializable); ok {
			checkpointers = append(checkpointers, checkpointer.NewNStep(
				checkpointEvery, object, checkpointer.FilenameEnumerator(0,
					filepath.Join(dataDir, "weights"), ".bin")))
		}
	}

	exp := experiment.NewOnline(e, a, steps, dataTrackers(), checkpointers)
	registerAgentTrackers(exp, a)

	if err := exp.Run(); err != nil {
		log.Fatal(err)
	}
	exp.Save()

	summarize()
}

// agentConfig returns the default SkipQ agent configuration for pixel
// environments
func agentConfig() agent.Config {
	initWFn, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		log.Fatal(err)
	}

	qSolver, err := solver.NewDefaultAdam(0.0001, 32)
	if err != nil {
		log.Fatal(err)
	}
	banditSolver, err := solver.NewDefaultAdam(0.0001, 32)
	if err != nil {
		log.Fatal(err)
	}

	return skipq.Config{
		PolicyLayers: []int{256},
		Biases:       []bool{true},
		Activations:  []*network.Activation{network.ReLU()},
		Solver:       qSolver,

		BanditLayers:      []int{128},
		BanditBiases:      []bool{true},
		BanditActivations: []*network.Activation{network.ReLU()},
		BanditSolver:      banditSolver,

		Filters: []int{16, 32},
		Kernels: []int{8, 4},
		Strides: []int{4, 2},

		InitWFn: initWFn,

		Epsilon:      1.0,
		EpsilonMin:   0.05,
		EpsilonDecay: 0.999,

		Gamma:          0.99,
		ReplayCapacity: 10000,
		BatchSize:      32,

		TargetUpdateInterval: 1000,
		MaxGradientNorm:      1.0,
	}
}

// dataTrackers returns the Trackers recording episodic returns and
// episode lengths in the data directory
func dataTrackers() []tracker.Tracker {
	return []tracker.Tracker{
		tracker.NewReturn(filepath.Join(dataDir, "returns.bin")),
		tracker.NewEpisodeLength(filepath.Join(dataDir, "lengths.bin")),
	}
}

// registerAgentTrackers registers the Trackers which read data from
// the agent itself rather than from timesteps
func registerAgentTrackers(exp experiment.Experiment, a agent.Agent) {
	if counter, ok := a.(tracker.SkipCounter); ok {
		exp.Register(tracker.NewSkipCount(
			filepath.Join(dataDir, "skips.bin"), counter))
	}
}

// summarize prints the tail of the tracked returns and the repeat
// duration usage counts
func summarize() {
	returns := tracker.LoadData(filepath.Join(dataDir, "returns.bin"))
	if len(returns) > 10 {
		returns = returns[len(returns)-10:]
	}
	log.Infof("Last episodic returns: %v", returns)

	counts := tracker.LoadData(filepath.Join(dataDir, "skips.bin"))
	log.Infof("Repeat duration selection counts: %v", counts)
}
