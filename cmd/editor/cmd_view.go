package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/milk9111/busline/waypoint"
	"github.com/spf13/cobra"
	"golang.design/x/clipboard"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [node]",
		Short: "List waypoints, or print one waypoint in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				id, err := s.node(args[0])
				if err != nil {
					return err
				}
				writeNode(cmd.OutOrStdout(), s, id)
				return nil
			}
			for _, id := range s.graph.IDs() {
				writeNode(cmd.OutOrStdout(), s, id)
			}
			return nil
		},
	}
	return cmd
}

func writeNode(w io.Writer, s *session, id waypoint.ID) {
	n, ok := s.graph.Node(id)
	if !ok {
		return
	}
	fmt.Fprintf(w, "%-10s pos=(%.2f, %.2f, %.2f) width=%.2f prev=%s next=%s",
		n.Name, n.Position.X, n.Position.Y, n.Position.Z, n.Width, s.name(n.Prev), s.name(n.Next))
	if len(n.Branches) > 0 {
		names := make([]string, 0, len(n.Branches))
		for _, b := range n.Branches {
			names = append(names, s.name(b))
		}
		fmt.Fprintf(w, " branches=[%s] ratio=%.2f", strings.Join(names, ","), n.BranchRatio)
	}
	if in := n.Intersection; in != nil {
		fmt.Fprintf(w, " %s left=%s right=%s", in.Kind, s.name(in.Left), s.name(in.Right))
	}
	fmt.Fprintln(w)
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every link in the level is consistent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// openSession already validates; reaching here means the graph is sound
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d waypoints\n", s.graph.Len())
			return nil
		},
	}
}

func newCopyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy the level JSON to the system clipboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			out := s.graph.ToLevel(s.level.Name)
			out.Obstacles = s.level.Obstacles
			out.Checkpoints = s.level.Checkpoints
			data, err := out.Marshal()
			if err != nil {
				return err
			}
			if stdout, _ := cmd.Flags().GetBool("stdout"); stdout {
				_, err := io.Copy(cmd.OutOrStdout(), bytes.NewReader(append(data, '\n')))
				return err
			}
			if err := clipboard.Init(); err != nil {
				return fmt.Errorf("clipboard unavailable: %w", err)
			}
			clipboard.Write(clipboard.FmtText, data)
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d bytes\n", len(data))
			return nil
		},
	}
	cmd.Flags().Bool("stdout", false, "Print the JSON instead of copying it")
	return cmd
}
