package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/xinguang/stockwatch/pkg/config"
	"github.com/xinguang/stockwatch/pkg/refresh"
	"github.com/xinguang/stockwatch/pkg/report"
	"github.com/xinguang/stockwatch/pkg/stock"
	"github.com/xinguang/stockwatch/pkg/taskqueue"
	"github.com/xinguang/stockwatch/pkg/tui"
)

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	queue := taskqueue.New(a.log)
	defer func() {
		// Flush pending saves before exiting
		queue.Enqueue(taskqueue.Terminate())
		<-queue.Done()
	}()

	sched, err := refresh.NewScheduler(a.service, a.cfg.Refresh.Interval, a.log)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	a.service.RequestRefresh()

	return tui.Run(tui.Config{
		Version: version,
		Store:   a.store,
		Refresh: a.service,
		OnChange: func(codes []string) {
			queue.Enqueue(taskqueue.Func("save watchlist", func() error {
				return a.file.Save(codes)
			}))
		},
	})
}

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <code>...",
		Short: "Add symbols to the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			for _, code := range normalizeCodes(args) {
				if a.store.Contains(code) {
					fmt.Fprintf(out, "Already tracked: %s\n", code)
					continue
				}
				a.store.Add(code)
				fmt.Fprintf(out, "Added: %s\n", code)
			}
			return a.file.Save(a.store.Codes())
		},
	}
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <code>...",
		Aliases: []string{"rm"},
		Short:   "Remove symbols from the watchlist",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			for _, code := range normalizeCodes(args) {
				if a.store.Remove(code) {
					fmt.Fprintf(out, "Removed: %s\n", code)
				} else {
					fmt.Fprintf(out, "Not tracked: %s\n", code)
				}
			}
			return a.file.Save(a.store.Codes())
		},
	}
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			quotes := a.store.Snapshot()
			if pattern, _ := cmd.Flags().GetString("match"); pattern != "" {
				quotes, err = a.store.Match(pattern)
				if err != nil {
					return fmt.Errorf("invalid pattern %q: %w", pattern, err)
				}
			}

			out := cmd.OutOrStdout()
			if len(quotes) == 0 {
				fmt.Fprintln(out, "No symbols tracked.")
				fmt.Fprintln(out, "Use 'stockwatch add <code>' to add one.")
				return nil
			}
			for _, q := range quotes {
				fmt.Fprintln(out, q.Code)
			}
			return nil
		},
	}
	cmd.Flags().StringP("match", "m", "", "Only list codes matching a glob pattern, e.g. '60*'")
	return cmd
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch quotes once and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.service.Refresh(context.Background()); err != nil {
				return fmt.Errorf("%s: %w", a.store.LastError(), err)
			}
			printTable(cmd, a.store.Snapshot())
			return nil
		},
	}
}

func printTable(cmd *cobra.Command, quotes []stock.Quote) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tCHANGE\tPRICE\tOPEN\tPREV\tHIGH\tLOW")
	for _, q := range quotes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			q.Code, q.Title, q.PercentDisplay(), q.Price, q.Open, q.YestClose, q.High, q.Low)
	}
	w.Flush()
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Fetch quotes once and render a markdown report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			// A failed refresh still renders, with the error in the header
			_ = a.service.Refresh(context.Background())

			md := report.Markdown(a.store.Snapshot(), a.store.LastError(), a.store.LastRefreshAt())
			if raw, _ := cmd.Flags().GetBool("raw"); raw {
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}

			style, _ := cmd.Flags().GetString("style")
			out, err := report.Render(md, style, 100)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().Bool("raw", false, "Print markdown without rendering")
	cmd.Flags().String("style", "", "Render style: dark, light, notty (default: detect)")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				p, err := config.GetConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %s\n", path)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.WriteYAML(cmd.OutOrStdout()); err != nil {
				return err
			}
			cfg.ValidateAndPrint(os.Stderr)
			return nil
		},
	}

	cmd.AddCommand(initCmd)
	cmd.AddCommand(showCmd)
	return cmd
}
