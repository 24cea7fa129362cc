package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/bpmx/internal/config"
	"github.com/aretw0/bpmx/pkg/adapters/sqlite"
	"github.com/aretw0/bpmx/pkg/bpmn"
	"github.com/aretw0/bpmx/pkg/history"
	"github.com/aretw0/bpmx/pkg/host"
)

var (
	runProcess string
	runVars    []string
	runLevel   string
	runStore   string
	runJSON    bool
	runMetrics bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect history levels and run processes against them",
}

var historyLevelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List the history levels a process can select",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pp, err := buildPerProcess(cfg.History)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tDEFAULT")
		for _, name := range pp.LevelNames() {
			l, _ := pp.Level(name)
			mark := ""
			if name == cfg.History.Fallback {
				mark = "fallback"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", l.ID(), l.Name(), mark)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", pp.ID(), pp.Name(), "property "+cfg.History.Property)
		return tw.Flush()
	},
}

// runSummary is the outcome of `history run`.
type runSummary struct {
	Process    string             `json:"process"`
	Instance   string             `json:"instance"`
	Level      string             `json:"level"`
	Delegate   string             `json:"delegate,omitempty"`
	Processes  int                `json:"process_instances"`
	Activities int                `json:"activity_instances"`
	Variables  int                `json:"variable_instances"`
	Decisions  map[string]float64 `json:"decisions,omitempty"`
}

var historyRunCmd = &cobra.Command{
	Use:   "run <file.bpmn>",
	Short: "Run a process once and report the history it produced",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := parseVars(runVars)
		if err != nil {
			return err
		}

		defs, err := bpmn.ParseFile(args[0])
		if err != nil {
			return err
		}
		key := runProcess
		if key == "" {
			proc, err := defs.MainProcess()
			if err != nil {
				return err
			}
			key = proc.ID
		}

		hc := cfg.History
		if runLevel != "" {
			hc.Level = runLevel
		}
		if runStore != "" {
			hc.Store = runStore
		}

		// A single instance runs, so its delegate is kept for the summary.
		level, pp, err := buildLevel(hc, history.WithEvictOnEnd(false))
		if err != nil {
			return err
		}

		var metrics *history.Metrics
		registry := prometheus.NewRegistry()
		if runMetrics || cfg.Metrics.Enabled {
			metrics = history.NewMetrics(cfg.Metrics.Namespace)
			if err := metrics.Register(registry); err != nil {
				return err
			}
			level = history.Instrument(level, metrics)
		}

		store, err := openStore(hc.Store)
		if err != nil {
			return err
		}
		defer store.Close()

		engine := host.New(level, host.WithStore(store), host.WithLogger(slog.Default()))
		if err := engine.Deploy(defs); err != nil {
			return err
		}

		pid, err := engine.Start(cmd.Context(), key, vars)
		if err != nil {
			return err
		}

		summary, err := summarize(cmd.Context(), store, key, pid, level.Name())
		if err != nil {
			return err
		}
		if pp != nil {
			if d, ok := pp.Delegate(pid); ok {
				summary.Delegate = d.Name()
			}
		}
		if metrics != nil {
			summary.Decisions, err = decisionTotals(registry)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if runJSON {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(summary)
		}
		fmt.Fprintf(out, "process %s instance %s (level %s)\n", summary.Process, summary.Instance, summary.Level)
		if summary.Delegate != "" {
			fmt.Fprintf(out, "delegate: %s\n", summary.Delegate)
		}
		fmt.Fprintf(out, "process instances: %d\nactivity instances: %d\nvariable instances: %d\n",
			summary.Processes, summary.Activities, summary.Variables)
		for _, k := range sortedKeys(summary.Decisions) {
			fmt.Fprintf(out, "decisions %s: %.0f\n", k, summary.Decisions[k])
		}
		return nil
	},
}

// buildPerProcess creates the per-process level described by hc.
func buildPerProcess(hc config.HistoryConfig, extra ...history.PerProcessOption) (*history.PerProcessLevel, error) {
	custom := make([]history.Level, 0, len(hc.CustomLevels))
	var fallback history.Level
	for _, c := range hc.CustomLevels {
		l := history.NewVariableFilterLevel(c.ID, c.Name, c.Variables...)
		custom = append(custom, l)
		if c.Name == hc.Fallback {
			fallback = l
		}
	}
	if fallback == nil {
		var err error
		if fallback, err = history.LevelByName(hc.Fallback); err != nil {
			return nil, fmt.Errorf("history.fallback: %w", err)
		}
	}

	opts := []history.PerProcessOption{
		history.WithPropertyName(hc.Property),
		history.WithFallback(fallback),
		history.WithLogger(slog.Default()),
	}
	if hc.EvictOnEnd != nil {
		opts = append(opts, history.WithEvictOnEnd(*hc.EvictOnEnd))
	}

	pp := history.NewPerProcessLevel(append(opts, extra...)...)
	pp.AddLevels(custom...)
	return pp, nil
}

// buildLevel returns the level the engine consults. The per-process level is
// returned separately when selected, nil otherwise.
func buildLevel(hc config.HistoryConfig, extra ...history.PerProcessOption) (history.Level, *history.PerProcessLevel, error) {
	pp, err := buildPerProcess(hc, extra...)
	if err != nil {
		return nil, nil, err
	}
	if hc.Level == history.PerProcessName {
		return pp, pp, nil
	}
	l, ok := pp.Level(hc.Level)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", history.ErrUnknownLevel, hc.Level)
	}
	return l, nil, nil
}

func openStore(dsn string) (history.Store, error) {
	if dsn == "" || dsn == "memory" {
		return history.NewMemoryStore(), nil
	}
	return sqlite.New(dsn)
}

func summarize(ctx context.Context, store history.Store, key, pid, level string) (runSummary, error) {
	s := runSummary{Process: key, Instance: pid, Level: level}
	for kind, dst := range map[history.Kind]*int{
		history.KindProcessInstance:  &s.Processes,
		history.KindActivityInstance: &s.Activities,
		history.KindVariableInstance: &s.Variables,
	} {
		n, err := store.Count(ctx, history.Query{Kind: kind, ProcessInstanceID: pid})
		if err != nil {
			return s, err
		}
		*dst = n
	}
	return s, nil
}

// decisionTotals sums the decision counter by produced label.
func decisionTotals(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for _, mf := range families {
		if !strings.HasSuffix(mf.GetName(), "history_events_total") {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "produced" {
					totals["produced="+lp.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	return totals, nil
}

// parseVars turns name=value pairs into process variables.
func parseVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q, want name=value", p)
		}
		vars[name] = value
	}
	return vars, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyLevelsCmd, historyRunCmd)

	historyRunCmd.Flags().StringVarP(&runProcess, "process", "p", "", "Process ID to start (default: first process)")
	historyRunCmd.Flags().StringArrayVar(&runVars, "var", nil, "Process variable as name=value (repeatable)")
	historyRunCmd.Flags().StringVar(&runLevel, "level", "", "Override history.level")
	historyRunCmd.Flags().StringVar(&runStore, "store", "", `Override history.store ("memory" or a SQLite DSN)`)
	historyRunCmd.Flags().BoolVar(&runJSON, "json", false, "Output in JSON format")
	historyRunCmd.Flags().BoolVar(&runMetrics, "metrics", false, "Count level decisions")
}
