package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/bpmx"
	bpmxlifecycle "github.com/aretw0/bpmx/pkg/adapters/lifecycle"
	"github.com/aretw0/bpmx/pkg/core"
)

var (
	nodeRoot    string
	nodeAdapter string

	listJSON bool
	listGlob string

	createParent  string
	createFolder  bool
	createContent string

	writeContent string
	writeFile    string
	changeReason string
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Browse and edit connector nodes",
}

// openService builds the document service from the loaded config and flags.
func openService() (*core.Service, error) {
	c := cfg.Connector
	if nodeRoot != "" {
		c.Path = nodeRoot
	}
	if nodeAdapter != "" {
		c.Adapter = nodeAdapter
	}

	return bpmx.New(c.Path,
		bpmx.WithAdapter(c.Adapter),
		bpmx.WithConnectorID(c.ID),
		bpmx.WithReadOnly(c.ReadOnly),
		bpmx.WithMustExist(c.MustExist),
		bpmx.WithEventBuffer(c.EventBuffer),
		bpmx.WithLogger(slog.Default()),
		bpmx.WithWatcherErrorHandler(func(err error) {
			slog.Error("watcher failed", "error", err)
		}),
	)
}

func withReason(ctx context.Context) context.Context {
	if changeReason == "" {
		return ctx
	}
	return context.WithValue(ctx, core.ChangeReasonKey, changeReason)
}

var nodeListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List the children of a node (the root by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if listGlob != "" && !doublestar.ValidatePattern(listGlob) {
			return fmt.Errorf("invalid glob: %s", listGlob)
		}

		svc, err := openService()
		if err != nil {
			return err
		}

		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		nodes, err := svc.List(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to list %q: %w", id, err)
		}

		filtered := make([]core.Node, 0, len(nodes))
		for _, n := range nodes {
			if listGlob != "" {
				if ok, _ := doublestar.Match(listGlob, n.Label); !ok {
					continue
				}
			}
			filtered = append(filtered, n)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(filtered)
		}

		for _, n := range filtered {
			suffix := ""
			if n.IsFolder() {
				suffix = "/"
			}
			fmt.Fprintf(out, "%s%s\t%s\n", n.ID, suffix, n.Type)
		}
		return nil
	},
}

var nodeCreateCmd = &cobra.Command{
	Use:   "create <label>",
	Short: "Create a document or folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}

		ctx := withReason(cmd.Context())
		var node core.Node
		if createFolder {
			node, err = svc.CreateFolder(ctx, createParent, args[0])
		} else {
			var content []byte
			if createContent != "" {
				content = []byte(createContent)
			}
			node, err = svc.CreateDocument(ctx, createParent, args[0], content)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s '%s'.\n", node.Type, node.ID)
		return nil
	},
}

var nodeReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Print the content of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}

		content, err := svc.ReadContent(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(content)
		return err
	},
}

var nodeWriteCmd = &cobra.Command{
	Use:   "write <id>",
	Short: "Replace the content of a document",
	Long: `Replace the content of an existing document with --content, the
contents of --file, or standard input when --file is "-".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := writeInput(cmd.InOrStdin())
		if err != nil {
			return err
		}

		svc, err := openService()
		if err != nil {
			return err
		}

		info, err := svc.WriteContent(withReason(cmd.Context()), args[0], content)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Document '%s' saved (%d bytes, modified %s).\n",
			args[0], len(content), info.LastModified.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func writeInput(stdin io.Reader) ([]byte, error) {
	switch {
	case writeFile == "-":
		return io.ReadAll(stdin)
	case writeFile != "":
		return os.ReadFile(writeFile)
	default:
		return []byte(writeContent), nil
	}
}

var nodeDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		if err := svc.Delete(withReason(cmd.Context()), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted '%s'.\n", args[0])
		return nil
	},
}

var nodeWatchCmd = &cobra.Command{
	Use:   "watch [pattern]",
	Short: "Print node changes until interrupted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		w, ok := svc.Connector().(core.Watchable)
		if !ok {
			return core.ErrWatchUnsupported
		}

		pattern := ""
		if len(args) == 1 {
			pattern = args[0]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		src, err := bpmxlifecycle.WatchSource(ctx, w, pattern)
		if err != nil {
			return err
		}
		if err := src.Start(ctx); err != nil {
			return err
		}

		slog.Info("watching", "connector", svc.Connector().ID(), "pattern", pattern)
		out := cmd.OutOrStdout()
		for e := range src.Events() {
			fmt.Fprintln(out, e.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nodeCmd)
	nodeCmd.AddCommand(nodeListCmd, nodeCreateCmd, nodeReadCmd, nodeWriteCmd, nodeDeleteCmd, nodeWatchCmd)

	nodeCmd.PersistentFlags().StringVar(&nodeRoot, "root", "", "Connector root (overrides connector.path)")
	nodeCmd.PersistentFlags().StringVar(&nodeAdapter, "adapter", "", "Connector adapter: fs or memory")
	nodeCmd.PersistentFlags().StringVarP(&changeReason, "message", "m", "", "Change reason passed to the connector")

	nodeListCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	nodeListCmd.Flags().StringVar(&listGlob, "glob", "", "Only show labels matching a doublestar pattern")

	nodeCreateCmd.Flags().StringVar(&createParent, "parent", "/", "Parent node ID")
	nodeCreateCmd.Flags().BoolVar(&createFolder, "folder", false, "Create a folder instead of a document")
	nodeCreateCmd.Flags().StringVar(&createContent, "content", "", "Initial document content")

	nodeWriteCmd.Flags().StringVar(&writeContent, "content", "", "Document content")
	nodeWriteCmd.Flags().StringVarP(&writeFile, "file", "f", "", `Read content from a file ("-" for stdin)`)
}
