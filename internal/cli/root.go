package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/horockey/nskv"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the nskv command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nskv",
		Short:         "Namespaced key-value store client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	bindFlags(root.PersistentFlags())

	root.AddCommand(
		viewCmd("get KEY", "Print value of key", cobra.ExactArgs(1), runGet),
		viewCmd("put KEY VALUE", "Set value of key", cobra.ExactArgs(2), runPut), //nolint: mnd
		viewCmd("rm KEY", "Remove key", cobra.ExactArgs(1), runRemove),
		viewCmd("has KEY", "Check if key exists", cobra.ExactArgs(1), runHas),
		viewCmd("has-value VALUE", "Check if any key holds value", cobra.ExactArgs(1), runHasValue),
		viewCmd("size", "Print count of keys in namespace", cobra.NoArgs, runSize),
		viewCmd("keys", "List keys of namespace", cobra.NoArgs, runKeys),
		viewCmd("values", "List distinct values of namespace", cobra.NoArgs, runValues),
		viewCmd("entries", "List key-value pairs of namespace", cobra.NoArgs, runEntries),
		viewCmd("clear", "Remove all keys of namespace", cobra.NoArgs, runClear),
		newServeCmd(),
	)

	return root
}

type viewRunFunc func(ctx context.Context, cmd *cobra.Command, view *nskv.View, args []string) error

// Wraps fn with opening and closing of a view built from settings.
func viewCmd(use, short string, argsFn cobra.PositionalArgs, fn viewRunFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  argsFn,
		RunE: func(cmd *cobra.Command, args []string) (resErr error) {
			s, err := loadSettings(cmd.Flags())
			if err != nil {
				return err
			}

			logger, err := s.logger()
			if err != nil {
				return err
			}

			opts, err := s.viewOpts(logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			view, err := nskv.NewFromConfig(ctx, s.Config, opts...)
			if err != nil {
				return fmt.Errorf("opening view: %w", err)
			}
			defer func() {
				if err := view.Close(); err != nil && resErr == nil {
					resErr = err
				}
			}()

			return fn(ctx, cmd, view, args)
		},
	}
}

func runGet(ctx context.Context, cmd *cobra.Command, view *nskv.View, args []string) error {
	val, found, err := view.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if !found {
		return nskv.KeyNotFoundError{Key: args[0]}
	}

	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}

func runPut(ctx context.Context, cmd *cobra.Command, view *nskv.View, args []string) error {
	ack, err := view.Put(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ack)
	return nil
}

func runRemove(ctx context.Context, _ *cobra.Command, view *nskv.View, args []string) error {
	_, _, err := view.Remove(ctx, args[0])
	return err
}

func runHas(ctx context.Context, cmd *cobra.Command, view *nskv.View, args []string) error {
	ok, err := view.ContainsKey(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(ok))
	return nil
}

func runHasValue(ctx context.Context, cmd *cobra.Command, view *nskv.View, args []string) error {
	ok, err := view.ContainsValue(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(ok))
	return nil
}

func runSize(ctx context.Context, cmd *cobra.Command, view *nskv.View, _ []string) error {
	size, err := view.Size(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), size)
	return nil
}

func runKeys(ctx context.Context, cmd *cobra.Command, view *nskv.View, _ []string) error {
	keys, err := view.Keys(ctx)
	if err != nil {
		return err
	}

	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintln(cmd.OutOrStdout(), k)
	}
	return nil
}

func runValues(ctx context.Context, cmd *cobra.Command, view *nskv.View, _ []string) error {
	values, err := view.Values(ctx)
	if err != nil {
		return err
	}

	slices.Sort(values)
	for _, v := range values {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}

func runEntries(ctx context.Context, cmd *cobra.Command, view *nskv.View, _ []string) error {
	entries, err := view.Entries(ctx)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, entries[k])
	}
	return nil
}

func runClear(ctx context.Context, _ *cobra.Command, view *nskv.View, _ []string) error {
	return view.Clear(ctx)
}
