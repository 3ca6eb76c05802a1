package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/panelkit/panelkit/internal/daemon"
	"github.com/panelkit/panelkit/internal/db/controller/setting"
	"github.com/panelkit/panelkit/internal/secret"
)

// ErrSettingNotSet is returned by settings get for a key without a row.
var ErrSettingNotSet = errors.New("setting is not set")

func init() { //nolint: gochecknoinits
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd, settingsDeleteCmd, settingsListCmd, settingsFlushCmd)
	rootCmd.AddCommand(settingsCmd)
}

// settingsRun adapts a store operation to a cobra RunE.
func settingsRun(fn func(ctx context.Context, store *setting.Store, out io.Writer, args []string) error) func(
	*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		return fn(cmd.Context(), store, cmd.OutOrStdout(), args)
	}
}

// openStore opens the database and cache configured for the server.
func openStore() (*setting.Store, func(), error) {
	db, err := daemon.OpenDB(&cfg)
	if err != nil {
		return nil, nil, err
	}

	c, err := daemon.NewCache(&cfg)
	if err != nil {
		return nil, nil, err
	}

	return setting.NewStore(db, c), func() { _ = c.Close() }, nil
}

var (
	settingsCmd = &cobra.Command{
		Use:               "settings",
		Short:             "Inspect and change the persisted application settings",
		PersistentPreRunE: loadConfig,
	}

	settingsGetCmd = &cobra.Command{
		Use:   "get <key>",
		Short: "Print the stored value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE:  settingsRun(settingsGet),
	}

	settingsSetCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting; running servers pick it up after their next reload",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE:  settingsRun(settingsSet),
	}

	settingsDeleteCmd = &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a stored setting so lower layers apply again",
		Args:  cobra.ExactArgs(1),
		RunE:  settingsRun(settingsDelete),
	}

	settingsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List all stored settings, secrets masked",
		Args:  cobra.NoArgs,
		RunE:  settingsRun(settingsList),
	}

	settingsFlushCmd = &cobra.Command{
		Use:   "flush",
		Short: "Drop every cached setting",
		Args:  cobra.NoArgs,
		RunE:  settingsRun(settingsFlush),
	}
)

func settingsGet(ctx context.Context, store *setting.Store, out io.Writer, args []string) error {
	value, ok, err := store.Lookup(ctx, args[0])
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: %s", ErrSettingNotSet, args[0])
	}

	_, err = fmt.Fprintln(out, secret.Display(args[0], value))

	return err
}

func settingsSet(ctx context.Context, store *setting.Store, out io.Writer, args []string) error {
	if err := store.Set(ctx, args[0], args[1]); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "%s updated\n", args[0])

	return err
}

func settingsDelete(ctx context.Context, store *setting.Store, out io.Writer, args []string) error {
	if err := store.Delete(ctx, args[0]); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "%s deleted\n", args[0])

	return err
}

func settingsList(ctx context.Context, store *setting.Store, out io.Writer, _ []string) error {
	all, err := store.All(ctx)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(all))
	for key := range all {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		if _, err = fmt.Fprintf(out, "%s=%s\n", key, secret.Display(key, all[key])); err != nil {
			return err
		}
	}

	return nil
}

func settingsFlush(ctx context.Context, store *setting.Store, out io.Writer, _ []string) error {
	if err := store.FlushAll(ctx); err != nil {
		return err
	}

	_, err := fmt.Fprintln(out, "settings cache flushed")

	return err
}
