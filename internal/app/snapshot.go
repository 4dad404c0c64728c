package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gemindex/internal/output"
)

var snapshotReason string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record the index views and detect drift",
	Long: `Snapshots capture the names, versions and deps views together. Each
capture is written as JSON to the snapshot directory and recorded in the
store with a digest per view, so later runs can tell which views changed.`,
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Capture the current views",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotCreate,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded snapshots",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotList,
}

var snapshotCheckCmd = &cobra.Command{
	Use:   "check [ID]",
	Short: "Report which views changed since a snapshot",
	Long: `Compare the live views against a snapshot (the latest one by default).
Exits with an error when any view has changed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshotCheck,
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print the views recorded by a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotShow,
}

func init() {
	snapshotCreateCmd.Flags().StringVar(&snapshotReason, "reason", "manual", "why the snapshot was taken")

	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotCheckCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
}

func parseSnapshotID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid snapshot ID %q", arg)
	}
	return id, nil
}

func runSnapshotCreate(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	spinner := output.NewSpinner("Capturing index views")
	spinner.SetWriter(cmd.ErrOrStderr())
	spinner.Start()

	snap, err := s.snapshots().Create(cmdContext(cmd), snapshotReason)
	spinner.Stop()
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), snap)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %d created (%d gems) at %s\n", snap.ID, snap.PackageCount, snap.SnapshotPath)
	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snaps, err := s.snapshots().List(cmdContext(cmd))
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), snaps)
	}
	fmt.Fprint(cmd.OutOrStdout(), output.RenderSnapshotTable(snaps))
	return nil
}

func runSnapshotCheck(cmd *cobra.Command, args []string) error {
	var id int64
	if len(args) == 1 {
		var err error
		if id, err = parseSnapshotID(args[0]); err != nil {
			return err
		}
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	drift, err := s.snapshots().Check(cmdContext(cmd), id)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := writeJSON(cmd.OutOrStdout(), map[string]any{
			"snapshot_id": drift.Snapshot.ID,
			"changed":     append([]string{}, drift.Changed...),
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), output.RenderDrift(drift.Snapshot.ID, drift.Changed))
	}

	if len(drift.Changed) > 0 {
		return fmt.Errorf("%d view(s) changed since snapshot %d", len(drift.Changed), drift.Snapshot.ID)
	}
	return nil
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	id, err := parseSnapshotID(args[0])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := s.snapshots().Load(cmdContext(cmd), id)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), data)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Snapshot %d (%s), %s\n\n", id, data.Reason, data.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(out, "names")
	fmt.Fprint(out, output.RenderNames(data.Views.Names))
	fmt.Fprintln(out, "\nversions")
	fmt.Fprint(out, output.RenderVersions(data.Views.Versions))
	fmt.Fprintln(out, "\ndeps")
	fmt.Fprint(out, output.RenderDepsTable(data.Views.Deps))
	return nil
}
