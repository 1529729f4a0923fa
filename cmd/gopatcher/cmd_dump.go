package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daimatz/gopatcher/pkg/bytecode"
	"github.com/daimatz/gopatcher/pkg/classdef"
	"github.com/daimatz/gopatcher/pkg/classfile"
)

func newDumpCmd(g *globalOptions) *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "dump <corpus>...",
		Short: "List the methods of every class with descriptors and opcodes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classes, err := loadCorpus(g, g.logger(cmd), args)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.row("INDEX", "CLASS", "METHOD", "FLAGS", "ACCESS", "OPCODES")
			for i, class := range classes {
				if !strings.Contains(class.Type(), match) {
					continue
				}
				for _, m := range class.Methods() {
					t.row(strconv.Itoa(i), class.Type(), m.Name()+classdef.Descriptor(m), hex(m.AccessFlags()), classfile.MethodAccessString(m.AccessFlags()), mnemonics(m.Instructions()))
				}
			}
			return t.flush()
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "only dump classes whose name contains this substring")
	return cmd
}

func mnemonics(insns []bytecode.Instruction) string {
	names := make([]string, len(insns))
	for i, insn := range insns {
		names[i] = insn.Opcode.Mnemonic()
	}
	return strings.Join(names, " ")
}
