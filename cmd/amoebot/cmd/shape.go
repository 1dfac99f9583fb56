package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/shape"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

var (
	shapeFile     string
	shapeScenario string

	flakeArms  string
	searchFile string
	paraWidth  int
	paraHeight int
	paraDir    string
	linesAxis  int
)

var shapeCmd = &cobra.Command{
	Use:   "shape",
	Short: "Search shapes inside a particle structure",
	Long: `Check whether a structure contains a shape. The structure comes from a
shape file (--file) or a scenario (--scenario).

Examples:
  amoebot shape --file flake.json snowflake
  amoebot shape --scenario structure.amb contains --shape flake.json
  amoebot shape --scenario structure.amb snowflake --arms 1,1,1,1,1,1
  amoebot shape --scenario structure.amb parallelogram --width 4 --height 3
  amoebot shape --scenario structure.amb lines --axis 1`,
}

var snowflakeCmd = &cobra.Command{
	Use:   "snowflake",
	Short: "Find the origins of a snowflake with the given arms",
	Args:  cobra.NoArgs,
	RunE:  runSnowflake,
}

var containsCmd = &cobra.Command{
	Use:   "contains",
	Short: "Find where a shape file fits, following its snowflake tree or rows",
	Args:  cobra.NoArgs,
	RunE:  runContains,
}

var parallelogramCmd = &cobra.Command{
	Use:   "parallelogram",
	Short: "Find the corners of a parallelogram",
	Args:  cobra.NoArgs,
	RunE:  runParallelogram,
}

var linesCmd = &cobra.Command{
	Use:   "lines",
	Short: "Find the longest lines along an axis",
	Args:  cobra.NoArgs,
	RunE:  runLines,
}

func init() {
	rootCmd.AddCommand(shapeCmd)
	shapeCmd.AddCommand(snowflakeCmd, containsCmd, parallelogramCmd, linesCmd)

	shapeCmd.PersistentFlags().StringVarP(&shapeFile, "file", "f", "",
		"shape file (JSON) to place as the structure")
	shapeCmd.PersistentFlags().StringVarP(&shapeScenario, "scenario", "s", "",
		"scenario file to use as the structure")

	snowflakeCmd.Flags().StringVar(&flakeArms, "arms", "",
		"six comma-separated arm lengths E,NE,NW,W,SW,SE (default: root of the shape file)")
	containsCmd.Flags().StringVar(&searchFile, "shape", "",
		"shape file to search for (default: the --file structure itself)")
	parallelogramCmd.Flags().IntVar(&paraWidth, "width", 1, "particles along the direction")
	parallelogramCmd.Flags().IntVar(&paraHeight, "height", 1, "particles along the direction rotated by 60 degrees")
	parallelogramCmd.Flags().StringVar(&paraDir, "dir", "E", "direction of the first side")
	linesCmd.Flags().IntVar(&linesAxis, "axis", 0, "axis of the lines (0 = E-W, 1 = NE-SW, 2 = NW-SE)")
}

// structure builds the system to search in. The shape file is returned when
// one was given.
func structure() (*sim.System, string, *shape.File, error) {
	switch {
	case shapeFile != "" && shapeScenario != "":
		return nil, "", nil, fmt.Errorf("--file and --scenario are exclusive")
	case shapeFile != "":
		f, err := shape.Load(shapeFile)
		if err != nil {
			return nil, "", nil, err
		}
		s := sim.New(simOptions()...)
		if err := f.Place(s, sim.Position{}); err != nil {
			return nil, "", nil, err
		}
		return s, shapeFile, f, nil
	case shapeScenario != "":
		sc, err := loadScenario(shapeScenario)
		if err != nil {
			return nil, "", nil, err
		}
		return sc.System, sc.Name, nil, nil
	}
	return nil, "", nil, fmt.Errorf("one of --file or --scenario is required")
}

func parseArms(s string) ([amoebot.NumDirections]int, error) {
	var arms [amoebot.NumDirections]int
	parts := strings.Split(s, ",")
	if len(parts) != amoebot.NumDirections {
		return arms, fmt.Errorf("need %d arm lengths, got %d", amoebot.NumDirections, len(parts))
	}
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return arms, fmt.Errorf("invalid arm %q: %w", part, err)
		}
		if n < 0 || n > shape.MaxArm {
			return arms, fmt.Errorf("arm %d outside [0, %d]", n, shape.MaxArm)
		}
		arms[i] = n
	}
	return arms, nil
}

func runSnowflake(cmd *cobra.Command, args []string) error {
	s, name, f, err := structure()
	if err != nil {
		return err
	}
	var arms [amoebot.NumDirections]int
	switch {
	case flakeArms != "":
		if arms, err = parseArms(flakeArms); err != nil {
			return err
		}
	case f != nil:
		var ok bool
		if arms, ok = f.RootArms(); !ok {
			return fmt.Errorf("shape file is not a single snowflake; use contains or pass --arms")
		}
		for _, a := range arms {
			if a > shape.MaxArm {
				return fmt.Errorf("arm %d outside [0, %d]", a, shape.MaxArm)
			}
		}
	default:
		return fmt.Errorf("--arms is required without a shape file")
	}

	units := make([]*shape.Snowflake, len(s.Particles()))
	subs := make([]sim.Subroutine, len(units))
	for _, p := range s.Particles() {
		units[p.ID] = shape.NewSnowflake(p)
		units[p.ID].Init(arms)
		subs[p.ID] = units[p.ID]
	}
	rounds, err := runTraced(s, name, "snowflake", subs)
	if err != nil {
		return err
	}

	fmt.Printf("Snowflake %v: found=%v after %d rounds\n", arms, units[0].Succeeded(), rounds)
	for _, p := range s.Particles() {
		if units[p.ID].IsOrigin() {
			fmt.Printf("  origin %s\n", p.Pos)
		}
	}
	return nil
}

func runContains(cmd *cobra.Command, args []string) error {
	s, name, f, err := structure()
	if err != nil {
		return err
	}
	path := shapeFile
	if searchFile != "" {
		if f, err = shape.Load(searchFile); err != nil {
			return err
		}
		path = searchFile
	}
	if f == nil {
		return fmt.Errorf("--shape is required with --scenario")
	}

	origins, err := f.Origins(s, cfg.MaxRounds)
	if err != nil {
		return fmt.Errorf("containment check on %s failed: %w", name, err)
	}
	fmt.Printf("Shape %s: found=%v after %d rounds\n", path, len(origins) > 0, s.Rounds())
	for _, pos := range origins {
		fmt.Printf("  origin %s\n", pos)
	}
	return nil
}

func runParallelogram(cmd *cobra.Command, args []string) error {
	dir, err := amoebot.ParseDirection(strings.ToUpper(paraDir))
	if err != nil || !dir.IsCardinal() {
		return fmt.Errorf("invalid direction %q", paraDir)
	}
	if paraWidth < 1 || paraHeight < 1 || paraWidth > shape.MaxSide || paraHeight > shape.MaxSide {
		return fmt.Errorf("sides must lie in [1, %d]", shape.MaxSide)
	}
	s, name, _, err := structure()
	if err != nil {
		return err
	}

	units := make([]*shape.Parallelogram, len(s.Particles()))
	subs := make([]sim.Subroutine, len(units))
	for _, p := range s.Particles() {
		units[p.ID] = shape.NewParallelogram(p)
		units[p.ID].Init(paraWidth, paraHeight, dir)
		subs[p.ID] = units[p.ID]
	}
	rounds, err := runTraced(s, name, "parallelogram", subs)
	if err != nil {
		return err
	}

	fmt.Printf("Parallelogram %dx%d along %s: found=%v after %d rounds\n",
		paraWidth, paraHeight, dir, units[0].Succeeded(), rounds)
	for _, p := range s.Particles() {
		if units[p.ID].IsCorner() {
			fmt.Printf("  corner %s\n", p.Pos)
		}
	}
	return nil
}

func runLines(cmd *cobra.Command, args []string) error {
	if linesAxis < 0 || linesAxis > 2 {
		return fmt.Errorf("invalid axis %d", linesAxis)
	}
	s, name, _, err := structure()
	if err != nil {
		return err
	}

	units := make([]*shape.LongestLines, len(s.Particles()))
	subs := make([]sim.Subroutine, len(units))
	for _, p := range s.Particles() {
		units[p.ID] = shape.NewLongestLines(p)
		units[p.ID].Init(linesAxis)
		subs[p.ID] = units[p.ID]
	}
	rounds, err := runTraced(s, name, "longest-lines", subs)
	if err != nil {
		return err
	}

	fmt.Printf("Longest lines along axis %d after %d rounds:\n", linesAxis, rounds)
	succ := amoebot.Cardinal(linesAxis)
	for _, p := range s.Particles() {
		u := units[p.ID]
		// Report each winning line once, at its end.
		if !u.OnLongestLine() || p.HasNeighborAt(succ) {
			continue
		}
		length := 1
		for i := 0; i < u.Iterations(); i++ {
			if u.LengthBit(i) {
				length += 1 << i
			}
		}
		fmt.Printf("  line ending at %s, %d particles\n", p.Pos, length)
	}
	return nil
}
