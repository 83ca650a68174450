package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/partons-hub/partons/internal/engine"
)

// xfxOptions 控制单点求值命令。
type xfxOptions struct {
	backend       string
	member        int
	forcePositive int
	uncertainty   bool
	cl            float64
}

func newXfxCommand(opts *rootOptions) *cobra.Command {
	xo := &xfxOptions{}

	cmd := &cobra.Command{
		Use:   "xfx <source> <pattern> <pid> <x> <q2>",
		Short: "Evaluate x*f(x, Q2) for one parton through an engine backend",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.ParseInt(args[2], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid pid %q", args[2])
			}
			x, err := parseFloatArg("x", args[3])
			if err != nil {
				return err
			}
			q2, err := parseFloatArg("q2", args[4])
			if err != nil {
				return err
			}

			rt, err := loadSession(opts, "xfx")
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
			pdfSet, err := engine.Open(cmd.Context(), xo.backend, set)
			if err != nil {
				return err
			}
			pdfs, err := pdfSet.Pdfs()
			if err != nil {
				return err
			}

			if xo.uncertainty {
				values := make([]float64, len(pdfs))
				for i, pdf := range pdfs {
					pdf.SetForcePositive(xo.forcePositive)
					values[i] = pdf.XfxQ2(int32(pid), x, q2)
				}
				u, err := pdfSet.Uncertainty(values, xo.cl, false)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdOut, "%g +%g -%g (symm %g, cl %g)\n", u.Central, u.Plus, u.Minus, u.Symm, xo.cl)
				return nil
			}

			if xo.member < 0 || xo.member >= len(pdfs) {
				return fmt.Errorf("member %d out of range [0, %d)", xo.member, len(pdfs))
			}
			pdf := pdfs[xo.member]
			pdf.SetForcePositive(xo.forcePositive)
			fmt.Fprintf(stdOut, "%g\n", pdf.XfxQ2(int32(pid), x, q2))
			return nil
		},
	}

	cmd.Flags().StringVar(&xo.backend, "backend", "native", fmt.Sprintf("engine backend (%s by default when empty)", engine.DefaultBackendKey()))
	cmd.Flags().IntVar(&xo.member, "member", 0, "member to evaluate")
	cmd.Flags().IntVar(&xo.forcePositive, "force-positive", 0, "0: none, 1: clamp to zero, 2: clamp to a small positive floor")
	cmd.Flags().BoolVar(&xo.uncertainty, "uncertainty", false, "evaluate every member and report the set uncertainty")
	cmd.Flags().Float64Var(&xo.cl, "cl", engine.CL1Sigma, "confidence level in percent for --uncertainty")
	return cmd
}
