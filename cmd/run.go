package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Justype/simmaker/internal/config"
	"github.com/Justype/simmaker/internal/events"
	"github.com/Justype/simmaker/internal/generator"
	"github.com/Justype/simmaker/internal/jobs"
	"github.com/Justype/simmaker/internal/journal"
	"github.com/Justype/simmaker/internal/maker"
	"github.com/Justype/simmaker/internal/manager"
	"github.com/Justype/simmaker/internal/remote"
	"github.com/Justype/simmaker/internal/scheduler"
	"github.com/Justype/simmaker/internal/ui"
	"github.com/Justype/simmaker/internal/utils"
	"github.com/spf13/cobra"
)

var (
	runMaxFailures  int
	runMaxCorrupted int
	runMetricsFile  string
	runNoJournal    bool
	runPoll         durationFlag
)

// errSimulationsLeft signals a run that gave up; the summary is already printed.
var errSimulationsLeft = errors.New("some simulations could not be generated")

var runCmd = &cobra.Command{
	Use:   "run [flags] <folder> <targets.yaml> <recipe.yaml>",
	Short: "Generate the target simulations missing from a simulations folder",
	Long: `Generate, on the remote folder, every target simulation not yet stored in
the simulations folder, and store the results.

Each round extracts the unknown simulations, renders the recipe skeletons,
launches the selected script, waits for the jobs, then downloads and checks
the outputs. Rounds repeat until every target is known or a threshold is
exhausted:
  --max-failures N   rounds with a failed job tolerated (-1 = unlimited)
  --max-corrupted N  rounds with a rejected simulation tolerated (-1 = unlimited)

A threshold of 0 still allows one such round.

The recipe (YAML):
  launch: launch.sh:0:-1            # name[:skeleton[:script]]
  subgroups_skeletons: [job.sh]     # rendered once per subgroup
  wholegroup_skeletons: [launch.sh] # rendered once for the batch
  max_simulations: 10               # subgroup size (0 = one subgroup)
  jobs_states_filename: jobs.txt    # relative to the scripts directory
  scheduler: SLURM`,
	Example: `  simmaker run ./sims targets.yaml recipe.yaml
  simmaker run --max-failures -1 ./sims targets.yaml recipe.yaml
  SIMMAKER_REMOTE_TYPE=ssh SIMMAKER_REMOTE_HOST=cluster simmaker run ./sims targets.yaml recipe.yaml`,
	Args:              cobra.ExactArgs(3),
	SilenceUsage:      true, // Runtime errors should not show usage
	ValidArgsFunction: completeFolderThenYaml,
	RunE:              runMaker,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runMaxFailures, "max-failures", 0, "Rounds with failed jobs tolerated (-1 = unlimited, default from config)")
	runCmd.Flags().IntVar(&runMaxCorrupted, "max-corrupted", 0, "Rounds with rejected simulations tolerated (-1 = unlimited, default from config)")
	runCmd.Flags().Var(&runPoll, "poll-interval", "Delay between two job state polls (e.g. 2s, 00:00:05; default from config)")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	runCmd.Flags().BoolVar(&runNoJournal, "no-journal", false, "Do not write the event journal to the logs directory")
}

func runMaker(cmd *cobra.Command, args []string) error {
	folderPath, targetsPath, recipePath := args[0], args[1], args[2]

	if scheduler.IsInsideJob() {
		utils.PrintWarning("Running inside a scheduler job; submitted jobs may outlive it")
	}

	folder, targets, err := loadSimulations(folderPath, targetsPath)
	if err != nil {
		return err
	}
	recipe, err := generator.LoadRecipe(recipePath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := maker.Options{
		MaxFailures:  config.Global.MaxFailures,
		MaxCorrupted: config.Global.MaxCorrupted,
		PollInterval: config.Global.PollInterval,
	}
	if cmd.Flags().Changed("max-failures") {
		opts.MaxFailures = runMaxFailures
	}
	if cmd.Flags().Changed("max-corrupted") {
		opts.MaxCorrupted = runMaxCorrupted
	}
	if runPoll.set {
		opts.PollInterval = runPoll.value
	}
	metricsFile := config.Global.MetricsFile
	if runMetricsFile != "" {
		metricsFile = runMetricsFile
	}

	remoteFolder, err := remote.FromConfig(config.Global.Remote)
	if err != nil {
		return err
	}

	if config.Global.Jobs.Channel == config.ChannelMailbox {
		mailbox, err := jobs.NewMailboxChannel(ctx, jobs.MailboxOptions{
			Addr: config.Global.Jobs.RedisAddr,
			DB:   config.Global.Jobs.RedisDB,
			Key:  config.Global.Jobs.RedisKey,
		})
		if err != nil {
			return err
		}
		defer mailbox.Close()
		// Messages left by a previous run would mark the new jobs
		if err := mailbox.Reset(ctx); err != nil {
			return err
		}
		opts.StateChannel = mailbox
		utils.PrintDebug("Job states read from redis list %s", utils.StyleName(mailbox.Key()))
	}

	lock, err := manager.AcquireLock(folder, true)
	if err != nil {
		if manager.IsFolderLocked(err) {
			utils.PrintHint("Another simmaker run is adding simulations to this folder")
		}
		return err
	}
	defer lock.Close()

	repo, err := manager.Open(folder)
	if err != nil {
		return err
	}
	utils.PrintDebug("Simulations folder %s holds %s", utils.StylePath(folder.Path), utils.Plural(repo.Count(), "simulation", "simulations"))

	bus := events.NewBus()
	ui.NewMakerUI(bus)
	metrics := maker.NewMetrics(bus)

	var jrnl *journal.Journal
	if !runNoJournal {
		jrnl, err = journal.Open(config.Global.LogsDir, config.Global.Debug)
		if err != nil {
			utils.PrintWarning("Event journal disabled: %v", err)
		} else {
			jrnl.Attach(bus)
			defer jrnl.Close()
			utils.PrintDebug("Event journal: %s", utils.StylePath(jrnl.Path))
		}
	}

	m := maker.New(maker.Deps{
		Manager:   repo,
		Generator: generator.New(folder),
		Remote:    remoteFolder,
		Jobs:      jobs.NewManager(),
		Bus:       bus,
	}, opts)

	unknown, runErr := m.Run(ctx, targets, recipe)

	if err := m.Close(); err != nil {
		utils.PrintWarning("%v", err)
	}
	if metricsFile != "" {
		if err := metrics.WriteTextfile(metricsFile); err != nil {
			utils.PrintWarning("Failed to write metrics to %s: %v", metricsFile, err)
		}
	}

	if runErr != nil {
		if jrnl != nil {
			jrnl.Error(runErr)
		}
		if maker.IsScriptNotFound(runErr) {
			utils.PrintHint("Check the launch option of %s against its skeletons", utils.StylePath(recipePath))
		}
		return runErr
	}
	if len(unknown) > 0 {
		return errSimulationsLeft
	}
	return nil
}
