package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/milk9111/busline/common"
	"github.com/milk9111/busline/levels"
	"github.com/milk9111/busline/waypoint"
	"github.com/spf13/cobra"
)

func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a level with a single waypoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			path := out
			if path == "" {
				path = levelPath(args[0])
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := levels.LoadFile(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			g := waypoint.New()
			g.Append()
			s := &session{level: &levels.Level{Name: args[0]}, graph: g, path: path}
			if err := s.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing level")
	return cmd
}

func newAppendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "append",
		Short: "Create a waypoint after the last one",
		Args:  cobra.NoArgs,
		RunE: edit(func(_ *cobra.Command, s *session, _ []string) (waypoint.ID, error) {
			return s.graph.Append(), nil
		}),
	}
}

func newInsertBeforeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert-before <node>",
		Short: "Create a waypoint between a node and its predecessor",
		Args:  cobra.ExactArgs(1),
		RunE: edit(func(_ *cobra.Command, s *session, args []string) (waypoint.ID, error) {
			id, err := s.node(args[0])
			if err != nil {
				return waypoint.None, err
			}
			return s.graph.InsertBefore(id)
		}),
	}
}

func newInsertAfterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert-after <node>",
		Short: "Create a waypoint between a node and its successor",
		Args:  cobra.ExactArgs(1),
		RunE: edit(func(_ *cobra.Command, s *session, args []string) (waypoint.ID, error) {
			id, err := s.node(args[0])
			if err != nil {
				return waypoint.None, err
			}
			return s.graph.InsertAfter(id)
		}),
	}
}

func newIntersectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intersection <node>",
		Short: "Create an intersection after a node",
		Args:  cobra.ExactArgs(1),
		RunE: edit(func(cmd *cobra.Command, s *session, args []string) (waypoint.ID, error) {
			id, err := s.node(args[0])
			if err != nil {
				return waypoint.None, err
			}
			kindName, _ := cmd.Flags().GetString("kind")
			kind, err := waypoint.ParseKind(kindName)
			if err != nil {
				return waypoint.None, err
			}
			return s.graph.InsertIntersectionAfter(id, kind)
		}),
	}
	cmd.Flags().String("kind", "normal", "Intersection kind (normal or stop)")
	return cmd
}

func newBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branch <node>",
		Short: "Create a branch waypoint hanging off a node",
		Args:  cobra.ExactArgs(1),
		RunE: edit(func(_ *cobra.Command, s *session, args []string) (waypoint.ID, error) {
			id, err := s.node(args[0])
			if err != nil {
				return waypoint.None, err
			}
			return s.graph.SpliceBranch(id)
		}),
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <node>",
		Short: "Remove a waypoint and splice its neighbours together",
		Args:  cobra.ExactArgs(1),
		RunE: edit(func(_ *cobra.Command, s *session, args []string) (waypoint.ID, error) {
			id, err := s.node(args[0])
			if err != nil {
				return waypoint.None, err
			}
			s.graph.Selection = id
			if err := s.graph.Remove(id); err != nil {
				return waypoint.None, err
			}
			return s.graph.Selection, nil
		}),
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <node>",
		Short: "Clear a waypoint's prev and next links on both sides",
		Args:  cobra.ExactArgs(1),
		RunE: edit(func(_ *cobra.Command, s *session, args []string) (waypoint.ID, error) {
			id, err := s.node(args[0])
			if err != nil {
				return waypoint.None, err
			}
			return id, s.graph.ResetLinks(id)
		}),
	}
}

func newTurnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "turns <node>",
		Short: "Set or clear the left and right links of an intersection",
		Args:  cobra.ExactArgs(1),
		RunE: edit(func(cmd *cobra.Command, s *session, args []string) (waypoint.ID, error) {
			id, err := s.node(args[0])
			if err != nil {
				return waypoint.None, err
			}
			if clear, _ := cmd.Flags().GetBool("clear"); clear {
				return id, s.graph.ClearTurns(id)
			}
			link := func(flag string) (waypoint.ID, error) {
				name, _ := cmd.Flags().GetString(flag)
				if name == "" {
					return waypoint.None, nil
				}
				return s.node(name)
			}
			left, err := link("left")
			if err != nil {
				return waypoint.None, err
			}
			right, err := link("right")
			if err != nil {
				return waypoint.None, err
			}
			kindName, _ := cmd.Flags().GetString("kind")
			kind, err := waypoint.ParseKind(kindName)
			if err != nil {
				return waypoint.None, err
			}
			return id, s.graph.SetTurns(id, kind, left, right)
		}),
	}
	cmd.Flags().String("left", "", "Node taken on a left turn")
	cmd.Flags().String("right", "", "Node taken on a right turn or stop")
	cmd.Flags().String("kind", "normal", "Intersection kind (normal or stop)")
	cmd.Flags().Bool("clear", false, "Turn the intersection back into a plain waypoint")
	return cmd
}

func newPlaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "place <node>",
		Short: "Move a waypoint and set its heading and width",
		Args:  cobra.ExactArgs(1),
		RunE: edit(func(cmd *cobra.Command, s *session, args []string) (waypoint.ID, error) {
			id, err := s.node(args[0])
			if err != nil {
				return waypoint.None, err
			}
			n, _ := s.graph.Node(id)
			pos := n.Position
			if cmd.Flags().Changed("x") {
				pos.X, _ = cmd.Flags().GetFloat64("x")
			}
			if cmd.Flags().Changed("y") {
				pos.Y, _ = cmd.Flags().GetFloat64("y")
			}
			if cmd.Flags().Changed("z") {
				pos.Z, _ = cmd.Flags().GetFloat64("z")
			}
			yaw, _ := cmd.Flags().GetFloat64("heading")
			var forward common.Vec3
			if cmd.Flags().Changed("heading") {
				forward = common.YawForward(yaw * math.Pi / 180)
			}
			width, _ := cmd.Flags().GetFloat64("width")
			return id, s.graph.Place(id, pos, forward, width)
		}),
	}
	cmd.Flags().Float64("x", 0, "World X")
	cmd.Flags().Float64("y", 0, "World Y (height)")
	cmd.Flags().Float64("z", 0, "World Z")
	cmd.Flags().Float64("heading", 0, "Heading in degrees, 0 faces +Z and 90 faces +X")
	cmd.Flags().Float64("width", 0, "Lateral width; 0 keeps the current width")
	return cmd
}

func newRatioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ratio <node> <0..1>",
		Short: "Set the chance of taking a branch at a node",
		Args:  cobra.ExactArgs(2),
		RunE: edit(func(_ *cobra.Command, s *session, args []string) (waypoint.ID, error) {
			id, err := s.node(args[0])
			if err != nil {
				return waypoint.None, err
			}
			ratio, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return waypoint.None, fmt.Errorf("ratio %q: %w", args[1], err)
			}
			return id, s.graph.SetBranchRatio(id, ratio)
		}),
	}
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <node> <new-name>",
		Short: "Rename a waypoint",
		Args:  cobra.ExactArgs(2),
		RunE: edit(func(_ *cobra.Command, s *session, args []string) (waypoint.ID, error) {
			id, err := s.node(args[0])
			if err != nil {
				return waypoint.None, err
			}
			return id, s.graph.Rename(id, args[1])
		}),
	}
}
