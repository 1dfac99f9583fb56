package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/binops"
	"github.com/OpenTraceLab/amoebot/pkg/scenario"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

var arithOp string

var arithCmd = &cobra.Command{
	Use:   "arith <scenario>",
	Short: "Run a binary operation on the operands of every chain",
	Long: `Run one binary operation on every chain of the scenario. The chain
operands a and b are stored one bit per particle, least significant bit
at the start of the chain.

Operations:
  MSB   find the most significant 1 of a
  COMP  compare a with b
  ADD   a + b
  SUB   a - b
  MULT  a * b
  DIV   a / b and a mod b

Examples:
  amoebot arith --op ADD structure.amb
  amoebot arith --op DIV --trace runs.db structure.amb`,
	Args: cobra.ExactArgs(1),
	RunE: runArith,
}

func init() {
	rootCmd.AddCommand(arithCmd)

	arithCmd.Flags().StringVarP(&arithOp, "op", "o", "ADD",
		"operation (MSB, COMP, ADD, SUB, MULT, DIV)")
}

// Chains use the pins above offset 0.
const arithOffset = 1

func runArith(cmd *cobra.Command, args []string) error {
	m, err := binops.ParseMode(strings.ToUpper(arithOp))
	if err != nil {
		return err
	}
	sc, err := loadScenario(args[0])
	if err != nil {
		return err
	}
	if len(sc.Chains) == 0 {
		return fmt.Errorf("scenario %q has no chains", sc.Name)
	}
	s := sc.System

	subs := idleSubroutines(s)
	ops := make(map[int]*binops.BinOps)
	for _, ch := range sc.Chains {
		for i, p := range ch.Particles {
			o := binops.NewBinOps(p)
			o.Init(m, ch.Pred(i), ch.Succ(i), arithOffset, ch.A[i], ch.B[i])
			ops[p.ID] = o
			subs[p.ID] = o
		}
	}

	rounds, err := runTraced(s, sc.Name, "binops-"+m.String(), subs)
	if err != nil {
		return err
	}

	fmt.Printf("%s finished after %d rounds\n", m, rounds)
	for i, ch := range sc.Chains {
		a, b := scenario.Value(ch.A), scenario.Value(ch.B)
		fmt.Printf("\nChain %d (%d bits): a=%d b=%d\n", i, len(ch.Particles), a, b)
		printResult(m, ch.Particles, ops)
	}
	return nil
}

func printResult(m binops.Mode, particles []*sim.Particle, ops map[int]*binops.BinOps) {
	collect := func(f func(o *binops.BinOps) bool) uint64 {
		bits := make([]bool, len(particles))
		for i, p := range particles {
			bits[i] = f(ops[p.ID])
		}
		return scenario.Value(bits)
	}
	first := ops[particles[0].ID]
	switch m {
	case binops.ModeMSB:
		msb := -1
		for i, p := range particles {
			if ops[p.ID].IsMSB() {
				msb = i
			}
		}
		if msb < 0 {
			fmt.Printf("  a is zero\n")
			return
		}
		fmt.Printf("  most significant bit: %d\n", msb)
	case binops.ModeComp:
		relation := map[amoebot.Comparison]string{
			amoebot.Less:    "less than",
			amoebot.Equal:   "equal to",
			amoebot.Greater: "greater than",
		}
		fmt.Printf("  a is %s b\n", relation[first.CompResult()])
	case binops.ModeDiv:
		if first.DivisionByZero() {
			fmt.Printf("  division by zero\n")
			return
		}
		fmt.Printf("  quotient: %d\n", collect((*binops.BinOps).ResultBit))
		fmt.Printf("  remainder: %d\n", collect((*binops.BinOps).RemainderBit))
	default:
		fmt.Printf("  result: %d\n", collect((*binops.BinOps).ResultBit))
		fmt.Printf("  overflow: %v\n", collect((*binops.BinOps).HaveOverflow) != 0)
	}
}
