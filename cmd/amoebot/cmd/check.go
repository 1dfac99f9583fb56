package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/amoebot/pkg/scenario"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

var checkCmd = &cobra.Command{
	Use:   "check <scenario>",
	Short: "Parse a scenario file and summarize the structure",
	Long: `Parse a scenario file, place its particles and print the structure:
particle count, roles, regions and the operands of every chain.

Examples:
  amoebot check structure.amb
  amoebot check -v structure.amb`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(args[0])
	if err != nil {
		return err
	}
	s := sc.System

	fmt.Printf("Scenario: %s\n", sc.Name)
	fmt.Printf("Particles: %d\n", len(s.Particles()))
	fmt.Printf("Pins per edge: %d\n", s.PinsPerEdge())
	fmt.Printf("Seed: %d\n", s.Seed())
	fmt.Printf("Connected: %v\n", connected(s))

	fmt.Printf("\nRoles:\n")
	for _, role := range []string{scenario.RoleSource, scenario.RoleDestination, scenario.RoleCandidate, scenario.RolePortal} {
		fmt.Printf("  %-12s %d\n", role, len(sc.WithRole(role)))
	}

	regions := make(map[int]int)
	for _, p := range s.Particles() {
		regions[p.Region]++
	}
	ids := make([]int, 0, len(regions))
	for id := range regions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fmt.Printf("\nRegions:\n")
	for _, id := range ids {
		fmt.Printf("  region %-5d %d particles\n", id, regions[id])
	}

	if len(sc.Chains) > 0 {
		fmt.Printf("\nChains:\n")
		for i, ch := range sc.Chains {
			fmt.Printf("  [%d] %d particles from %s towards %s, a=%d b=%d\n",
				i, len(ch.Particles), ch.Particles[0].Pos, ch.Dir, scenario.Value(ch.A), scenario.Value(ch.B))
		}
	}

	if verbose {
		fmt.Printf("\nParticles:\n")
		for _, p := range s.Particles() {
			fmt.Printf("  %s region %d %v\n", p, p.Region, roleList(p))
		}
	}
	return nil
}

func roleList(p *sim.Particle) []string {
	var roles []string
	for role, ok := range p.Roles {
		if ok {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return roles
}

// connected reports whether the particles form a single component.
func connected(s *sim.System) bool {
	ps := s.Particles()
	if len(ps) == 0 {
		return true
	}
	seen := map[int]bool{ps[0].ID: true}
	queue := []*sim.Particle{ps[0]}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range p.NeighborDirections() {
			q := p.Neighbor(d)
			if !seen[q.ID] {
				seen[q.ID] = true
				queue = append(queue, q)
			}
		}
	}
	return len(seen) == len(ps)
}
