// Command editor authors waypoint graphs in level files. Every mutating
// command loads the level, applies one edit, validates the graph and writes
// the level back.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/milk9111/busline/levels"
	"github.com/milk9111/busline/waypoint"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "editor",
		Short:         "Author waypoint graphs for busline levels",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("level", "demo", "Level to edit (name in levels/ or a path to a .json file)")
	rootCmd.PersistentFlags().String("out", "", "Write the result here instead of levels/<level>.json")

	rootCmd.AddCommand(
		newNewCmd(),
		newShowCmd(),
		newValidateCmd(),
		newCopyCmd(),
		newAppendCmd(),
		newInsertBeforeCmd(),
		newInsertAfterCmd(),
		newIntersectionCmd(),
		newBranchCmd(),
		newRemoveCmd(),
		newResetCmd(),
		newTurnsCmd(),
		newPlaceCmd(),
		newRatioCmd(),
		newRenameCmd(),
	)
	return rootCmd
}

// session is one loaded level plus the graph built from it.
type session struct {
	level *levels.Level
	graph *waypoint.Graph
	path  string
}

func levelPath(name string) string {
	if strings.HasSuffix(name, ".json") && strings.ContainsRune(filepath.ToSlash(name), '/') {
		return name
	}
	clean := strings.TrimPrefix(filepath.ToSlash(name), "levels/")
	if !strings.HasSuffix(clean, ".json") {
		clean += ".json"
	}
	return filepath.Join("levels", clean)
}

func openSession(cmd *cobra.Command) (*session, error) {
	name, _ := cmd.Flags().GetString("level")
	out, _ := cmd.Flags().GetString("out")

	path := levelPath(name)
	lvl, err := levels.LoadFile(path)
	if err != nil {
		// fall back to the embedded copy; the edit is written to disk
		lvl, err = levels.Load(name)
		if err != nil {
			return nil, fmt.Errorf("load level %q: %w", name, err)
		}
	}
	g, err := waypoint.FromLevel(lvl)
	if err != nil {
		return nil, fmt.Errorf("level %q: %w", name, err)
	}
	if out != "" {
		path = out
	}
	return &session{level: lvl, graph: g, path: path}, nil
}

func (s *session) node(name string) (waypoint.ID, error) {
	id, ok := s.graph.Lookup(name)
	if !ok {
		return waypoint.None, fmt.Errorf("node %q: %w", name, waypoint.ErrUnknownNode)
	}
	return id, nil
}

func (s *session) name(id waypoint.ID) string {
	if n, ok := s.graph.Node(id); ok {
		return n.Name
	}
	return "-"
}

// save validates the graph and writes it back, keeping the level's
// obstacles and checkpoints.
func (s *session) save() error {
	if err := s.graph.Validate(); err != nil {
		return fmt.Errorf("refusing to save: %w", err)
	}
	out := s.graph.ToLevel(s.level.Name)
	out.Obstacles = s.level.Obstacles
	out.Checkpoints = s.level.Checkpoints
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return levels.Save(s.path, out)
}

// edit runs fn against a loaded session and saves the result.
func edit(fn func(cmd *cobra.Command, s *session, args []string) (waypoint.ID, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		id, err := fn(cmd, s, args)
		if err != nil {
			return err
		}
		if err := s.save(); err != nil {
			return err
		}
		if id != waypoint.None {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", s.name(id))
		}
		return nil
	}
}
