package main

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/daimatz/gopatcher/pkg/cache"
	"github.com/daimatz/gopatcher/pkg/proxy"
	"github.com/daimatz/gopatcher/pkg/query"
)

var errNoMatch = errors.New("no class matches")

func newFindCmd(g *globalOptions) *cobra.Command {
	var name, where string

	cmd := &cobra.Command{
		Use:   "find (--name <substring> | --where <expr>) <corpus>...",
		Short: "Find the first class matching a name or expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q *query.Query
			if where != "" {
				var err error
				if q, err = query.Compile(where); err != nil {
					return err
				}
			}

			logger := g.logger(cmd)
			classes, err := loadCorpus(g, logger, args)
			if err != nil {
				return err
			}

			c := cache.New(classes, cache.WithLogger(logger))
			var p *proxy.ClassProxy
			if q != nil {
				p = c.FindClassFunc(q.Predicate())
			} else {
				p = c.FindClass(name)
			}
			if p == nil {
				return errNoMatch
			}

			class := p.Readable()
			t := newTable(cmd.OutOrStdout())
			t.row("INDEX", "CLASS", "SUPER", "FLAGS", "METHODS")
			t.row(strconv.Itoa(p.Index()), class.Type(), class.SuperType(), hex(class.AccessFlags()), strconv.Itoa(len(class.Methods())))
			return t.flush()
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "substring of the class name")
	cmd.Flags().StringVar(&where, "where", "", "boolean expression over type, superType, flags and methods")
	cmd.MarkFlagsMutuallyExclusive("name", "where")
	cmd.MarkFlagsOneRequired("name", "where")
	return cmd
}
