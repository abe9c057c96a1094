// Package main provides the graphrulectl CLI entry point.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orneryd/graphrules/pkg/config"
	"github.com/orneryd/graphrules/pkg/executor"
	"github.com/orneryd/graphrules/pkg/graphcore"
	"github.com/orneryd/graphrules/pkg/graphstore"
	"github.com/orneryd/graphrules/pkg/graphstore/snapshot"
	"github.com/orneryd/graphrules/pkg/rlog"
	"github.com/orneryd/graphrules/pkg/ruleengine"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "graphrulectl",
		Short: "graphrulectl - rule engine for property graphs described as Markdown",
		Long: `graphrulectl executes Cypher-like rules embedded as fenced code blocks
in Markdown documents against an in-memory property graph.

Features:
  • MATCH / WHERE / CREATE / SET / DELETE / REMOVE / RETURN clauses
  • Variable-length and OPTIONAL relationship matching
  • Priority-ordered execution of every graphrule block in a document
  • Configurable validate/continue/rollback failure policy
  • Snapshot persistence backed by BadgerDB`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("graphrulectl v%s (%s)\n", version, commit)
		},
	})

	runCmd := &cobra.Command{
		Use:   "run [markdown-file]",
		Short: "Execute every graphrule block in a Markdown document",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}
	runCmd.Flags().String("graph", "", "JSON file seeding the graph's initial nodes and edges")
	runCmd.Flags().String("config", "", "YAML config file overriding environment-derived defaults")
	runCmd.Flags().String("snapshot-dir", "", "Directory to persist the resulting graph as a BadgerDB snapshot")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type seedGraph struct {
	Nodes []seedNode `json:"nodes"`
	Edges []seedEdge `json:"edges"`
}

type seedNode struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

type seedEdge struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

func runRun(cmd *cobra.Command, args []string) error {
	markdownPath := args[0]
	graphSeedPath, _ := cmd.Flags().GetString("graph")
	configPath, _ := cmd.Flags().GetString("config")
	snapshotDir, _ := cmd.Flags().GetString("snapshot-dir")

	cfg := config.LoadFromEnv()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	markdown, err := os.ReadFile(markdownPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", markdownPath, err)
	}

	graph := graphstore.New()
	if graphSeedPath != "" {
		if err := seedGraphFromFile(graph, graphSeedPath); err != nil {
			return fmt.Errorf("seeding graph: %w", err)
		}
	}

	engine := ruleengine.New()
	applyConfig(engine, cfg)

	rlog.Infof("executing %s (%d bytes) against a graph with %d nodes", markdownPath, len(markdown), len(graph.GetAllNodes()))

	results := engine.ExecuteQueriesFromMarkdown(graph, string(markdown))

	allSucceeded := true
	for i, r := range results {
		if r.Success {
			rlog.Infof("rule %d: ok, %d match(es)", i+1, r.MatchCount)
		} else {
			allSucceeded = false
			rlog.Errorf("rule %d failed: %s", i+1, r.Error)
		}
	}

	encoded, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	fmt.Println(string(encoded))

	if snapshotDir != "" {
		store, err := snapshot.Open(snapshot.Options{DataDir: snapshotDir})
		if err != nil {
			return fmt.Errorf("opening snapshot store: %w", err)
		}
		defer store.Close()
		if err := store.Save(graph); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		rlog.Infof("snapshot written to %s", snapshotDir)
	}

	if !allSucceeded {
		return fmt.Errorf("one or more rules failed")
	}
	return nil
}

func applyConfig(engine *ruleengine.Engine, cfg *config.Config) {
	engine.MatcherConfig.CaseInsensitiveLabels = cfg.Matcher.CaseInsensitiveLabels
	engine.MatcherConfig.MaxPathDepth = cfg.Matcher.MaxPathDepth
	engine.MatcherConfig.MaxPathResults = cfg.Matcher.MaxPathResults
	engine.Evaluator.NumericCoercion = cfg.Evaluator.NumericCoercion
	engine.ExecutorOptions = executor.Options{
		ValidateBeforeExecute: cfg.Executor.ValidateBeforeExecute,
		ContinueOnFailure:     cfg.Executor.ContinueOnFailure,
		RollbackOnFailure:     cfg.Executor.RollbackOnFailure,
	}
}

func seedGraphFromFile(graph *graphstore.Graph, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seed seedGraph
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, n := range seed.Nodes {
		if _, err := graph.AddNode(graphcore.NodeID(n.ID), n.Label, n.Properties); err != nil {
			return fmt.Errorf("adding node %q: %w", n.ID, err)
		}
	}
	for _, e := range seed.Edges {
		if _, err := graph.AddEdge(graphcore.NodeID(e.Source), graphcore.NodeID(e.Target), e.Label, e.Properties); err != nil {
			return fmt.Errorf("adding edge %s-[%s]->%s: %w", e.Source, e.Label, e.Target, err)
		}
	}
	return nil
}
