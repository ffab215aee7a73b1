package cmd

import (
	"fmt"

	"github.com/go-drift/motion/pkg/config"
)

func init() {
	RegisterCommand(&Command{
		Name:  "validate",
		Short: "Check preset files",
		Long: `Parse and validate one or more preset files.

Checks durations, easing names, fill modes and iteration counts, and that
every stagger and sequence refers to an existing animation. Sequence stages
must not repeat forever.`,
		Usage: "motion validate <preset>...",
		Run:   runValidate,
	})
}

func runValidate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("at least one preset file is required\n\nUsage: motion validate <preset>...")
	}

	failed := 0
	for _, path := range args {
		p, err := config.Load(path)
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "%s: %v\n", path, err)
			continue
		}
		animations, staggers, sequences := p.Names()
		fmt.Fprintf(stdout, "%s: ok (%d animations, %d staggers, %d sequences)\n",
			path, len(animations), len(staggers), len(sequences))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d preset files invalid", failed, len(args))
	}
	return nil
}
