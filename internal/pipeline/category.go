package pipeline

import (
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/notify"
)

// ForCategory builds a stage reading and writing the paths configured for cat.
func ForCategory(name string, cfg *config.Config, cat config.CategoryName, n notify.Notifier, chains ...[]Step) *Stage {
	c := cfg.Category(cat)
	return &Stage{
		Name:     name,
		Root:     cfg.Root,
		Sources:  c.Sources,
		Dest:     c.Dest,
		Chains:   chains,
		Notifier: n,
	}
}
