package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/amoebot/pkg/leader"
	"github.com/OpenTraceLab/amoebot/pkg/scenario"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

var (
	leaderKappa    int
	leaderRegional bool
)

var leaderCmd = &cobra.Command{
	Use:   "leader <scenario>",
	Short: "Elect a leader among the candidate particles",
	Long: `Run the randomized leader election on the global circuit. Particles
with the candidate role compete; without any, every particle does. With
--regional each region elects its own leader and all regions finish in
the same round.

Examples:
  amoebot leader structure.amb
  amoebot leader --kappa 8 --regional structure.amb`,
	Args: cobra.ExactArgs(1),
	RunE: runLeader,
}

func init() {
	rootCmd.AddCommand(leaderCmd)

	leaderCmd.Flags().IntVarP(&leaderKappa, "kappa", "k", 0,
		"second phase repetitions (default: from config)")
	leaderCmd.Flags().BoolVar(&leaderRegional, "regional", false,
		"elect one leader per region")
}

type elector interface {
	sim.Subroutine
	IsLeader() bool
}

func runLeader(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(args[0])
	if err != nil {
		return err
	}
	s := sc.System
	kappa := cfg.Kappa
	if leaderKappa > 0 {
		kappa = leaderKappa
	}
	if kappa > leader.MaxKappa {
		return fmt.Errorf("kappa %d above %d", kappa, leader.MaxKappa)
	}

	anyCandidate := len(sc.WithRole(scenario.RoleCandidate)) > 0
	units := make([]elector, len(s.Particles()))
	subs := make([]sim.Subroutine, len(s.Particles()))
	for _, p := range s.Particles() {
		isCandidate := !anyCandidate || p.HasRole(scenario.RoleCandidate)
		if leaderRegional {
			u := leader.NewSync(p)
			u.Init(isCandidate, kappa, p.RegionMask(), 0, 1)
			units[p.ID] = u
		} else {
			u := leader.New(p)
			u.Init(isCandidate, kappa, 0)
			units[p.ID] = u
		}
		subs[p.ID] = units[p.ID]
	}

	rounds, err := runTraced(s, sc.Name, "leader", subs)
	if err != nil {
		return err
	}

	fmt.Printf("Election finished after %d rounds (kappa %d)\n", rounds, kappa)
	byRegion := make(map[int][]*sim.Particle)
	for _, p := range s.Particles() {
		if units[p.ID].IsLeader() {
			byRegion[p.Region] = append(byRegion[p.Region], p)
		}
	}
	if !leaderRegional {
		var all []*sim.Particle
		for _, ps := range byRegion {
			all = append(all, ps...)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
		printLeaders("Leaders", all)
		return nil
	}
	regions := make([]int, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	sort.Ints(regions)
	for _, r := range regions {
		printLeaders(fmt.Sprintf("Region %d", r), byRegion[r])
	}
	return nil
}

func printLeaders(title string, leaders []*sim.Particle) {
	fmt.Printf("%s: %d\n", title, len(leaders))
	for _, p := range leaders {
		fmt.Printf("  %s\n", p)
	}
	if len(leaders) > 1 {
		fmt.Printf("  warning: more than one leader survived; raise kappa\n")
	}
}
