package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/npsmentor-cli/internal/nps"
	"github.com/KaramelBytes/npsmentor-cli/internal/preset"
)

type filterFlags struct {
	category string
	min      int
	max      int
	name     string
	preset   string
}

func (f *filterFlags) register(c *cobra.Command, withPreset bool) {
	c.Flags().StringVarP(&f.category, "category", "c", nps.AllCategories, "kategori to include ('all' for every category)")
	c.Flags().IntVar(&f.min, "min", nps.MinScore, "minimum skor_nps (inclusive)")
	c.Flags().IntVar(&f.max, "max", nps.MaxScore, "maximum skor_nps (inclusive)")
	c.Flags().StringVar(&f.name, "name", "", "case-insensitive substring of NAMA")
	if withPreset {
		c.Flags().StringVar(&f.preset, "preset", "", "start from a saved filter preset")
	}
}

// resolve starts from the preset (or the full range) and applies explicitly set flags.
func (f *filterFlags) resolve(c *cobra.Command) (nps.Filter, error) {
	out := nps.FullRange()
	if f.preset != "" {
		p, err := presetStore().Load(f.preset)
		if err != nil {
			return out, err
		}
		out = p.Filter
	}
	fl := c.Flags()
	if fl.Changed("category") || f.preset == "" {
		out.Category = f.category
	}
	if fl.Changed("min") || f.preset == "" {
		out.MinScore = f.min
	}
	if fl.Changed("max") || f.preset == "" {
		out.MaxScore = f.max
	}
	if fl.Changed("name") || f.preset == "" {
		out.NameContains = f.name
	}
	if err := out.Validate(); err != nil {
		return out, err
	}
	return out, nil
}

func presetStore() *preset.Store {
	return preset.NewStore(settings().PresetsDir)
}
