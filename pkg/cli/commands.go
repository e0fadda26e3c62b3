package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/stagehand/stagehand/internal/trigger"
	"github.com/stagehand/stagehand/pkg/process"
	"github.com/stagehand/stagehand/pkg/types"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [phase]",
		Short: "Run the script batches for a lifecycle phase",
		Long: `Run the common directory batch and the module batch for a phase, in
that order. The governed phase blocks until its scripts finish or the
deadline elapses; every other phase returns as soon as all scripts have
been launched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(types.Phase(args[0]))
		},
	}
}

func newTriggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger",
		Short: "Watch the trigger directory and run phases as they are requested",
		Long: `Run in the foreground, watching the configured trigger directory. When
a file named after a phase is created there, that phase's script batches
are run. Phases run one at a time, in trigger order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrigger()
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [phase]",
		Short: "List the scripts that would run for a phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(types.Phase(args[0]))
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show recorded phase run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stagehand v%s\n", version)
		},
	}
}

func runRun(phase types.Phase) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	a.runPhase(context.Background(), phase)
	return nil
}

func runTrigger() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if a.cfg.Trigger == nil || a.cfg.Trigger.Dir == "" {
		return fmt.Errorf("no trigger directory configured")
	}

	removeAfter := true
	if a.cfg.Trigger.RemoveAfterRun != nil {
		removeAfter = *a.cfg.Trigger.RemoveAfterRun
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := trigger.NewWatcher(a.cfg.Trigger.Dir, removeAfter, a.runPhase, a.log)
	if err != nil {
		return err
	}

	pm := process.NewManager(a.log)
	pm.RegisterShutdownHandler(func() {
		cancel()
		watcher.Close()
	})
	pm.Start(ctx)

	if err := watcher.Start(ctx); err != nil {
		cancel()
		return err
	}

	console.Info(fmt.Sprintf("Watching %s for phase triggers (Ctrl+C to stop)", a.cfg.Trigger.Dir))
	watcher.Wait()
	pm.Stop()

	return nil
}

func runList(phase types.Phase) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tSCRIPT\tPATH")

	total := 0
	for _, src := range a.sources() {
		scripts, err := src.List(phase)
		if err != nil {
			continue
		}
		for _, script := range scripts {
			fmt.Fprintf(w, "%s\t%s\t%s\n", src.Name(), script.Display(), script.Path)
			total++
		}
	}
	w.Flush()

	if total == 0 {
		console.Info(fmt.Sprintf("No scripts found for phase %s", phase))
	}
	return nil
}

func runStatus() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	phases, err := a.history.Phases()
	if err != nil {
		return err
	}
	if len(phases) == 0 {
		console.Info("No recorded runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "PHASE\tSOURCE\tMODE\tDISPATCHED\tAWAITED\tTIMED OUT\tDURATION\tSTARTED")

	for _, phase := range phases {
		records, err := a.history.History(phase)
		if err != nil {
			continue
		}
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%v\t%s\t%s\n",
				r.Phase, r.Source, r.Mode,
				r.Dispatched, r.Awaited, r.TimedOut,
				r.Duration.Round(time.Millisecond),
				r.StartedAt.Format("2006-01-02 15:04:05"))
		}
	}
	w.Flush()

	return nil
}
