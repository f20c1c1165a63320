package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/linkowl/linkowl-go"
	"github.com/linkowl/linkowl-go/pkg/storage"
)

// statusView is the JSON printed by the status command and after tracking commands.
type statusView struct {
	State linkowl.State `json:"state"`
	storage.InstallRecord
}

func (c *cli) installCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Track this install unless it was already tracked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withTracker(cmd.Context(), func(tr *linkowl.Tracker) error {
				tr.TrackInstall()
				if err := c.flush(tr); err != nil {
					return err
				}

				if tr.State() != linkowl.StateTracked {
					return errInstallNotTracked
				}
				return printStatus(cmd, tr)
			})
		},
	}
}

func (c *cli) userCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user <user-id>",
		Short: "Link the tracked install to a subscription user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withTracker(cmd.Context(), func(tr *linkowl.Tracker) error {
				tr.SetUserID(args[0])
				if err := c.flush(tr); err != nil {
					return err
				}
				return printStatus(cmd, tr)
			})
		},
	}
}

func (c *cli) purchaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purchase <transaction-id> <revenue> <currency>",
		Short: "Report a purchase",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			revenue, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid revenue %q: %w", args[1], err)
			}

			return c.withTracker(cmd.Context(), func(tr *linkowl.Tracker) error {
				tr.TrackPurchase(args[0], revenue, args[2])
				return nil
			})
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the persisted install record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd.Context(), func(store storage.Store) error {
				rec, err := storage.NewRecords(store).Load(cmd.Context())
				if err != nil {
					return err
				}

				state := linkowl.StateNotConfigured
				if c.settings.APIKey != "" {
					state = linkowl.StateConfiguredNotTracked
					if rec.InstallTracked {
						state = linkowl.StateTracked
					}
				}
				return writeJSON(cmd.OutOrStdout(), statusView{State: state, InstallRecord: rec})
			})
		},
	}
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the install record so the next install is tracked again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd.Context(), func(store storage.Store) error {
				if err := storage.NewRecords(store).Reset(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "install record cleared")
				return err
			})
		},
	}
}

func printStatus(cmd *cobra.Command, tr *linkowl.Tracker) error {
	rec, err := tr.Record(cmd.Context())
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), statusView{State: tr.State(), InstallRecord: rec})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
