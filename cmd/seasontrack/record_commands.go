package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"seasontrack/internal/watchlist"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the watch list",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *watchlist.Store) error {
				list, err := store.LoadAll(c)
				if err != nil {
					return describeError("list", err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, list)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderWatchList(list))
				return nil
			})
		},
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME SEASONS",
		Short: "Add a series to the watch list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *watchlist.Store) error {
				rec, err := store.Add(c, args[0], args[1])
				if err != nil {
					return describeError("add", err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, rec)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", describeRecord(rec))
				return nil
			})
		},
	}
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "edit REF NAME SEASONS",
		Short: "Change the name and season count of a series",
		Long:  "REF is the number shown by `seasontrack list` or the record id.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *watchlist.Store) error {
				id, err := resolveRef(c, store, args[0])
				if err != nil {
					return describeError("edit", err)
				}
				list, err := store.Update(c, id, args[1], args[2])
				if err != nil {
					return describeError("edit", err)
				}
				rec := list[list.IndexOf(id)]
				if ctx.jsonOutput() {
					return writeJSON(cmd, rec)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", describeRecord(rec))
				return nil
			})
		},
	}
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch REF",
		Short: "Toggle the watched flag of a series",
		Long:  "REF is the number shown by `seasontrack list` or the record id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *watchlist.Store) error {
				id, err := resolveRef(c, store, args[0])
				if err != nil {
					return describeError("watch", err)
				}
				list, err := store.ToggleWatched(c, id)
				if err != nil {
					return describeError("watch", err)
				}
				rec := list[list.IndexOf(id)]
				if ctx.jsonOutput() {
					return writeJSON(cmd, rec)
				}
				state := "unwatched"
				if rec.IsWatched {
					state = "watched"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as %s\n", rec.Name, state)
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove REF",
		Aliases: []string{"rm"},
		Short:   "Remove a series from the watch list",
		Long:    "REF is the number shown by `seasontrack list` or the record id.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *watchlist.Store) error {
				id, err := resolveRef(c, store, args[0])
				if err != nil && watchlist.Kind(err) != watchlist.KindNotFound {
					return describeError("remove", err)
				}
				if err != nil {
					// Unknown references fall through so removal stays idempotent.
					id = strings.TrimSpace(args[0])
				}
				before, err := store.LoadAll(c)
				if err != nil {
					return describeError("remove", err)
				}
				list, err := store.Remove(c, id)
				if err != nil {
					return describeError("remove", err)
				}
				idx := before.IndexOf(id)
				removed := idx >= 0 && list.IndexOf(id) < 0
				if ctx.jsonOutput() {
					return writeJSON(cmd, struct {
						ID      string              `json:"id"`
						Removed bool                `json:"removed"`
						List    watchlist.WatchList `json:"list"`
					}{ID: id, Removed: removed, List: list})
				}
				out := cmd.OutOrStdout()
				if !removed {
					fmt.Fprintf(out, "No record matches %s; nothing removed\n", args[0])
					return nil
				}
				fmt.Fprintf(out, "Removed %s (%d remaining)\n", before[idx].Name, len(list))
				return nil
			})
		},
	}
}

// resolveRef maps a 1-based list position or a record id to an id.
func resolveRef(ctx context.Context, store *watchlist.Store, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", &watchlist.ValidationError{Field: "ref", Reason: "is required"}
	}
	list, err := store.LoadAll(ctx)
	if err != nil {
		return "", err
	}
	if list.IndexOf(ref) >= 0 {
		return ref, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(list) {
			return list[n-1].ID, nil
		}
	}
	return "", &watchlist.NotFoundError{ID: ref}
}

func describeRecord(rec watchlist.SeasonRecord) string {
	seasons := "seasons"
	if rec.TotalSeasonCount == 1 {
		seasons = "season"
	}
	return fmt.Sprintf("%s (%d %s, watched: %s) id=%s", rec.Name, rec.TotalSeasonCount, seasons, yesNo(rec.IsWatched), rec.ID)
}

func renderWatchList(list watchlist.WatchList) string {
	if len(list) == 0 {
		return "Watch list is empty\n"
	}
	columns := []tableColumn{
		{header: "#", align: alignRight},
		{header: "Name", maxWidth: nameColumnMaxWidth},
		{header: "Seasons", align: alignRight},
		{header: "Watched", align: alignCenter},
		{header: "ID"},
	}
	rows := make([][]string, 0, len(list))
	for i, rec := range list {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			rec.Name,
			strconv.Itoa(rec.TotalSeasonCount),
			yesNo(rec.IsWatched),
			rec.ID,
		})
	}
	footer := fmt.Sprintf("%d series, %d watched", len(list), list.WatchedCount())
	return renderTable(columns, rows, footer) + "\n"
}
