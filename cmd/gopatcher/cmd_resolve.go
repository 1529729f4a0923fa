package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/daimatz/gopatcher/pkg/cache"
	"github.com/daimatz/gopatcher/pkg/sigfile"
	"github.com/daimatz/gopatcher/pkg/signature"
)

func newResolveCmd(g *globalOptions) *cobra.Command {
	var (
		sigPath     string
		metricsPath string
		strict      bool
		traceRate   float64
	)

	cmd := &cobra.Command{
		Use:   "resolve --signatures <file> <corpus>...",
		Short: "Resolve a signature file against a class corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := g.logger(cmd)

			sigs, err := sigfile.LoadFile(sigPath)
			if err != nil {
				return err
			}
			classes, err := loadCorpus(g, logger, args)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			opts := []signature.Option{signature.WithMetrics(signature.NewMetrics(reg))}
			if traceRate > 0 {
				opts = append(opts, signature.WithTrace(signature.SlogTrace(logger), rate.Limit(traceRate), int(traceRate)+1))
			}

			c := cache.New(classes, cache.WithLogger(logger), cache.WithResolverOptions(opts...))
			c.Resolve(sigs)

			t := newTable(cmd.OutOrStdout())
			t.row("SIGNATURE", "INDEX", "CLASS", "METHOD", "WINDOW")
			unresolved := 0
			for _, sig := range sigs {
				r, err := c.Methods().Get(sig.Name)
				if errors.Is(err, signature.ErrMethodNotFound) {
					unresolved++
					t.row(sig.Name, "-", "-", "-", "-")
					continue
				}
				t.row(sig.Name, strconv.Itoa(r.Proxy.Index()), r.Proxy.Readable().Type(), r.MethodName, r.Scan.String())
			}
			if err := t.flush(); err != nil {
				return err
			}

			if metricsPath != "" {
				if err := prometheus.WriteToTextfile(metricsPath, reg); err != nil {
					return fmt.Errorf("writing metrics: %w", err)
				}
			}
			if strict && unresolved > 0 {
				return fmt.Errorf("%d of %d signature(s) unresolved", unresolved, len(sigs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sigPath, "signatures", "s", "", "signature file (.yaml, .yml or .toml)")
	cmd.Flags().StringVar(&metricsPath, "metrics-file", "", "write resolver metrics in Prometheus text format to this file")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any signature is unresolved")
	cmd.Flags().Float64Var(&traceRate, "trace-rate", 0, "log opcode comparisons at debug level, at most this many per second")
	_ = cmd.MarkFlagRequired("signatures")
	return cmd
}
