package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/partons-hub/partons/internal/config"
	"github.com/partons-hub/partons/internal/logging"
)

func newConfigsCommand(opts *rootOptions) *cobra.Command {
	list := func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(opts.configPath)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdOut, string(out))
		return nil
	}

	cmd := &cobra.Command{
		Use:   "configs",
		Short: "Print the loaded configuration (same as 'configs list')",
		Args:  cobra.NoArgs,
		RunE:  list,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print the loaded configuration as JSON",
			Args:  cobra.NoArgs,
			RunE:  list,
		},
		&cobra.Command{
			Use:   "check",
			Short: "Validate the configuration and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				rt, err := loadSession(opts, "check_config")
				if err != nil {
					return err
				}
				fields := logging.BaseFields("check_config", rt.cfg.Path)
				fields["sources"] = config.SourceNames(rt.cfg.Sources)
				fields["result"] = "ok"
				rt.logger.WithFields(fields).Info("配置校验通过")
				fmt.Fprintf(stdOut, "配置校验通过: %s\n", rt.cfg.Path)
				return nil
			},
		},
	)
	return cmd
}

func newIndexCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index <source> [pattern]",
		Short: "List the remote index of a source, optionally resolving one pattern",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadSession(opts, "index")
			if err != nil {
				return err
			}
			route, err := rt.source(args[0])
			if err != nil {
				return err
			}
			idx, err := route.Source.Index(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 2 {
				h, err := idx.Get(args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(stdOut, "%d\t%s\t%d\n", h.ID, h.Name, h.Members)
				return nil
			}
			for _, h := range idx.Headers() {
				fmt.Fprintf(stdOut, "%d\t%s\t%d\n", h.ID, h.Name, h.Members)
			}
			return nil
		},
	}
}

func newInfoCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <source> <pattern>",
		Short: "Print the canonical metadata of a set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadSession(opts, "info")
			if err != nil {
				return err
			}
			route, err := rt.source(args[0])
			if err != nil {
				return err
			}
			set, err := route.Source.OpenSet(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			info, err := set.Info(cmd.Context())
			if err != nil {
				return err
			}
			out, err := info.YAML()
			if err != nil {
				return err
			}
			_, err = stdOut.Write(out)
			return err
		},
	}
}

func newFetchCommand(opts *rootOptions) *cobra.Command {
	var member int

	cmd := &cobra.Command{
		Use:   "fetch <source> <pattern>",
		Short: "Download and convert a whole set, or a single member with --member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadSession(opts, "fetch")
			if err != nil {
				return err
			}
			route, err := rt.source(args[0])
			if err != nil {
				return err
			}
			set, err := route.Source.OpenSet(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			h := set.Header()

			if member < 0 {
				if err := route.Source.Set(cmd.Context(), h); err != nil {
					return err
				}
				fmt.Fprintf(stdOut, "%s: %d members cached under %s\n", h.Identifier(), h.Members, route.Source.Store().Root())
				return nil
			}

			m, err := set.Member(cmd.Context(), uint32(member))
			if err != nil {
				return err
			}
			xmin, xmax, mu2min, mu2max, _ := m.Range()
			fmt.Fprintf(stdOut, "%s member %d: %d subgrids, pids %v, x [%g, %g], mu2 [%g, %g]\n",
				h.Identifier(), member, m.Subgrids, m.Pids, xmin, xmax, mu2min, mu2max)
			return nil
		},
	}
	cmd.Flags().IntVar(&member, "member", -1, "fetch only this member")
	return cmd
}

func newCacheCommand(opts *rootOptions) *cobra.Command {
	info := func(cmd *cobra.Command, _ []string) error {
		rt, err := loadSession(opts, "cache_info")
		if err != nil {
			return err
		}
		fmt.Fprintf(stdOut, "data path: %s\n", rt.cfg.Global.DataPath)
		for _, route := range rt.registry.List() {
			sets, err := route.Source.CachedSets()
			if err != nil {
				return err
			}
			fmt.Fprintf(stdOut, "%s\t%s\t%d sets\n", route.Config.Name, route.Source.Store().Root(), len(sets))
		}
		return nil
	}

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Show cache locations (same as 'cache info')",
		Args:  cobra.NoArgs,
		RunE:  info,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "info",
			Short: "Show the data path and per-source cache usage",
			Args:  cobra.NoArgs,
			RunE:  info,
		},
		&cobra.Command{
			Use:   "list [source]",
			Short: "List sets present in the local cache",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := loadSession(opts, "cache_list")
				if err != nil {
					return err
				}
				routes := rt.registry.List()
				if len(args) == 1 {
					route, err := rt.source(args[0])
					if err != nil {
						return err
					}
					routes = routes[:0]
					routes = append(routes, *route)
				}
				for _, route := range routes {
					sets, err := route.Source.CachedSets()
					if err != nil {
						return err
					}
					for _, name := range sets {
						fmt.Fprintf(stdOut, "%s\t%s\n", route.Config.Name, name)
					}
				}
				return nil
			},
		},
	)
	return cmd
}

func parseFloatArg(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}
