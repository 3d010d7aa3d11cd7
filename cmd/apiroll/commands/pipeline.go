package commands

import (
	"context"
	"os"

	"github.com/pterm/pterm"

	"github.com/teranos/apiroll/collector"
	"github.com/teranos/apiroll/config"
	"github.com/teranos/apiroll/entity"
	"github.com/teranos/apiroll/errors"
	"github.com/teranos/apiroll/rollup"
	"github.com/teranos/apiroll/tsfront"
)

// analyze runs the front-end and resolution phases for the configured entry
// point and returns a generator ready to render artifacts.
func analyze(ctx context.Context, cfg *config.Config) (*rollup.Generator, *collector.Collector, error) {
	content, err := os.ReadFile(cfg.Entry)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading entry point %s", cfg.Entry)
	}

	mod, err := tsfront.Parse(ctx, content, cfg.Entry)
	if err != nil {
		return nil, nil, err
	}
	markPreapproved(mod.Arena, cfg.Preapproved)

	col := collector.New(mod.Arena, mod, collector.NewSink())
	for _, ex := range mod.Exports {
		col.AddExport(ex.Symbol, ex.Name)
	}
	for _, path := range mod.StarExports {
		col.AddStarExport(path)
	}
	if err := col.Resolve(); err != nil {
		return nil, nil, err
	}

	return rollup.NewGenerator(col, mod.Source, cfg.Package), col, nil
}

// markPreapproved applies the configured preapproved overrides: named
// top-level declarations behave as if their doc comment carried the tag.
func markPreapproved(arena *entity.Arena, names []string) {
	if len(names) == 0 {
		return
	}
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	for _, d := range arena.Decls() {
		if d.Parent == entity.NoDecl && set[arena.Symbol(d.Symbol).LocalName] {
			d.Preapproved = true
		}
	}
}

// printWarnings surfaces warnings on the console, each routed to the
// declaration it concerns.
func printWarnings(arena *entity.Arena, warnings []collector.Warning) {
	for _, w := range warnings {
		where := "module surface"
		if w.Decl != entity.NoDecl {
			d := arena.Decl(w.Decl)
			where = arena.Symbol(d.Symbol).LocalName
		}
		pterm.Printf("  %s %s: %s\n", pterm.Yellow("!"), pterm.LightCyan(where), w.Message)
	}
}
