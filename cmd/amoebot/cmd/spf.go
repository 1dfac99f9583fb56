package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/scenario"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
	"github.com/OpenTraceLab/amoebot/pkg/spf"
)

var (
	spfRegionalOffset int
	spfPropagate      bool
	spfAxis           int
)

var spfCmd = &cobra.Command{
	Use:   "spf <scenario>",
	Short: "Compute shortest paths between the source and the destinations",
	Long: `Build a shortest path forest inside every region. Each region holds
one source particle; destinations learn a parent on a shortest path to it
and particles off those paths are pruned.

With --propagate the particles with the portal role form a line along
--axis and every particle of its region learns a path to that line.

Examples:
  amoebot spf structure.amb
  amoebot spf --propagate --axis 0 portal.amb`,
	Args: cobra.ExactArgs(1),
	RunE: runSPF,
}

func init() {
	rootCmd.AddCommand(spfCmd)

	spfCmd.Flags().IntVar(&spfRegionalOffset, "regional-offset", 2,
		"pin offset of the success broadcast")
	spfCmd.Flags().BoolVar(&spfPropagate, "propagate", false,
		"route every particle to the portal line instead")
	spfCmd.Flags().IntVar(&spfAxis, "axis", 0,
		"axis of the portal line (0 = E-W, 1 = NE-SW, 2 = NW-SE)")
}

func runSPF(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(args[0])
	if err != nil {
		return err
	}
	if spfPropagate {
		return runPropagation(sc)
	}
	s := sc.System
	if k := s.PinsPerEdge(); spfRegionalOffset < 2 || spfRegionalOffset > k-3 {
		return fmt.Errorf("regional offset %d needs to lie in [2, %d] for %d pins", spfRegionalOffset, k-3, k)
	}
	sources := make(map[int]int)
	for _, p := range sc.WithRole(scenario.RoleSource) {
		sources[p.Region]++
		if sources[p.Region] > 1 {
			return fmt.Errorf("region %d has more than one source", p.Region)
		}
	}
	if len(sources) == 0 {
		return fmt.Errorf("scenario %q has no source", sc.Name)
	}

	units := make([]*spf.SPF, len(s.Particles()))
	subs := make([]sim.Subroutine, len(s.Particles()))
	for _, p := range s.Particles() {
		u := spf.New(p)
		u.Init(p.HasRole(scenario.RoleSource), p.HasRole(scenario.RoleDestination), p.RegionMask(), spfRegionalOffset)
		units[p.ID] = u
		subs[p.ID] = u
	}
	rounds, err := runTraced(s, sc.Name, "spf", subs)
	if err != nil {
		return err
	}

	fmt.Printf("1-SPF finished after %d rounds\n", rounds)
	for _, p := range sc.WithRole(scenario.RoleSource) {
		status := "no destination reached"
		if units[p.ID].Succeeded() {
			status = "destinations reached"
		}
		fmt.Printf("  source %s (region %d): %s\n", p.Pos, p.Region, status)
	}
	fmt.Printf("\nPaths:\n")
	for _, p := range sc.WithRole(scenario.RoleDestination) {
		fmt.Printf("  %s\n", formatPath(p, func(q *sim.Particle) amoebot.Direction { return units[q.ID].Parent() }))
	}
	if verbose {
		fmt.Printf("\nTree:\n")
		for _, p := range s.Particles() {
			u := units[p.ID]
			if u.Parent() == amoebot.None && len(u.Children()) == 0 {
				continue
			}
			fmt.Printf("  %-8s parent %-4s children %v\n", p.Pos, u.Parent(), u.Children())
		}
	}
	return nil
}

func runPropagation(sc *scenario.Scenario) error {
	s := sc.System
	if k := s.PinsPerEdge(); k < 8 {
		return fmt.Errorf("propagation needs 8 pins per edge, scenario has %d", k)
	}
	if spfAxis < 0 || spfAxis > 2 {
		return fmt.Errorf("invalid axis %d", spfAxis)
	}
	if len(sc.WithRole(scenario.RolePortal)) == 0 {
		return fmt.Errorf("scenario %q has no portal particles", sc.Name)
	}

	units := make([]*spf.Propagation, len(s.Particles()))
	subs := make([]sim.Subroutine, len(s.Particles()))
	for _, p := range s.Particles() {
		u := spf.NewPropagation(p)
		u.Init(p.HasRole(scenario.RolePortal), spfAxis, p.RegionMask(), cfg.Kappa)
		units[p.ID] = u
		subs[p.ID] = u
	}
	rounds, err := runTraced(s, sc.Name, "propagation", subs)
	if err != nil {
		return err
	}

	visible, entries := 0, 0
	for _, u := range units {
		if !u.IsPortal() && u.IsVisible() {
			visible++
		}
		if u.IsEntry() {
			entries++
		}
	}
	fmt.Printf("Propagation finished after %d rounds\n", rounds)
	fmt.Printf("  visible particles: %d\n", visible)
	fmt.Printf("  group entries: %d\n", entries)
	fmt.Printf("\nPaths:\n")
	for _, p := range s.Particles() {
		if units[p.ID].IsPortal() {
			continue
		}
		fmt.Printf("  %s\n", formatPath(p, func(q *sim.Particle) amoebot.Direction { return units[q.ID].Parent() }))
	}
	return nil
}

// formatPath follows parent directions from p until a particle without a
// parent is reached.
func formatPath(p *sim.Particle, parent func(*sim.Particle) amoebot.Direction) string {
	out := p.Pos.String()
	seen := map[int]bool{p.ID: true}
	for q := p; ; {
		d := parent(q)
		if d == amoebot.None {
			return out
		}
		q = q.Neighbor(d)
		if q == nil || seen[q.ID] {
			return out + " -> (broken)"
		}
		seen[q.ID] = true
		out += fmt.Sprintf(" -%s-> %s", d, q.Pos)
	}
}
