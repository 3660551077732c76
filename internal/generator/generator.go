// Package generator renders the job scripts of a batch of simulations from
// the skeletons of a simulations folder.
package generator

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Justype/simmaker/internal/manager"
	"github.com/Justype/simmaker/internal/simulation"
	"github.com/Justype/simmaker/internal/utils"
)

// SkeletonsDir holds the skeletons, relative to the folder configuration directory
const SkeletonsDir = "skeletons"

// Script is a generated script, on disk and where it will be once uploaded
type Script struct {
	LocalPath string
	FinalPath string
}

// Generator renders the queued simulations into scripts.
type Generator struct {
	folder *simulation.Folder
	queue  []*simulation.Simulation
}

// New creates a generator reading skeletons from the folder.
func New(folder *simulation.Folder) *Generator {
	return &Generator{folder: folder}
}

// Enqueue adds simulations to generate.
func (g *Generator) Enqueue(sims ...*simulation.Simulation) {
	g.queue = append(g.queue, sims...)
}

// Queue returns the queued simulations.
func (g *Generator) Queue() []*simulation.Simulation {
	return g.queue
}

// ClearQueue empties the queue.
func (g *Generator) ClearQueue() {
	g.queue = nil
}

// Materialize renders the skeletons of the recipe into dir.
// The result is indexed by skeleton (subgroup skeletons first) then by script.
// Subgroup scripts are named <stem>-<index><ext>, whole-group scripts keep the skeleton name.
func (g *Generator) Materialize(dir string, recipe *Recipe, emptyDest bool) ([][]Script, error) {
	if emptyDest {
		if err := utils.EmptyDir(dir); err != nil {
			return nil, err
		}
	} else if err := utils.EnsureDir(dir); err != nil {
		return nil, err
	}

	if err := g.assignOutputFolders(recipe); err != nil {
		return nil, err
	}

	funcs := templateFuncs(recipe)
	groups := g.subgroups(recipe.MaxSimulations)
	scripts := make([][]Script, 0, len(recipe.Skeletons()))
	var subgroupScripts []string

	for _, name := range recipe.SubgroupsSkeletons {
		tmpl, err := g.loadSkeleton(name, funcs)
		if err != nil {
			return nil, err
		}
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(filepath.Base(name), ext)

		var group []Script
		for i, sims := range groups {
			filename := fmt.Sprintf("%s-%d%s", stem, i, ext)
			script, err := render(tmpl, dir, filename, recipe, TemplateData{
				Basedir:            recipe.Basedir,
				JobsStatesFilename: recipe.JobsStatesPath(),
				Index:              i,
				Simulations:        simulationsData(sims),
				Scheduler:          recipe.Scheduler,
			})
			if err != nil {
				return nil, err
			}
			group = append(group, script)
			subgroupScripts = append(subgroupScripts, script.FinalPath)
		}
		scripts = append(scripts, group)
	}

	for _, name := range recipe.WholegroupSkeletons {
		tmpl, err := g.loadSkeleton(name, funcs)
		if err != nil {
			return nil, err
		}
		script, err := render(tmpl, dir, filepath.Base(name), recipe, TemplateData{
			Basedir:            recipe.Basedir,
			JobsStatesFilename: recipe.JobsStatesPath(),
			Index:              -1,
			Simulations:        simulationsData(g.queue),
			SubgroupScripts:    subgroupScripts,
			Scheduler:          recipe.Scheduler,
		})
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, []Script{script})
	}

	return scripts, nil
}

// assignOutputFolders points the empty "folder" global setting of each
// queued simulation to <basedir>/simulations/<identity>.
func (g *Generator) assignOutputFolders(recipe *Recipe) error {
	for _, sim := range g.queue {
		if !sim.Conf().HasGlobalSetting(simulation.OutputSetting) || sim.OutputPath() != "" {
			continue
		}
		id, err := manager.Identity(sim)
		if err != nil {
			return err
		}
		if err := sim.Set(simulation.OutputSetting, path.Join(recipe.Basedir, "simulations", id)); err != nil {
			return err
		}
	}
	return nil
}

// subgroups splits the queue in chunks of at most size simulations (0 = no limit).
func (g *Generator) subgroups(size int) [][]*simulation.Simulation {
	if len(g.queue) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]*simulation.Simulation{g.queue}
	}
	var groups [][]*simulation.Simulation
	for start := 0; start < len(g.queue); start += size {
		end := min(start+size, len(g.queue))
		groups = append(groups, g.queue[start:end])
	}
	return groups
}

func (g *Generator) loadSkeleton(name string, funcs template.FuncMap) (*template.Template, error) {
	file := g.folder.ConfPath(SkeletonsDir, name)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read skeleton %s: %w", name, err)
	}
	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse skeleton %s: %w", name, err)
	}
	return tmpl, nil
}

func render(tmpl *template.Template, dir, filename string, recipe *Recipe, data TemplateData) (Script, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Script{}, fmt.Errorf("failed to render %s: %w", filename, err)
	}

	local := filepath.Join(dir, filename)
	if err := os.WriteFile(local, buf.Bytes(), utils.PermFile); err != nil {
		return Script{}, fmt.Errorf("failed to write %s: %w", local, err)
	}
	return Script{LocalPath: local, FinalPath: path.Join(recipe.Basedir, filename)}, nil
}

func simulationsData(sims []*simulation.Simulation) []SimulationData {
	out := make([]SimulationData, 0, len(sims))
	for _, sim := range sims {
		out = append(out, SimulationData{
			CommandLine:    sim.CommandLine(),
			Folder:         sim.OutputPath(),
			Settings:       sim.ReducedSettings(),
			GlobalSettings: sim.ReducedGlobalSettings(),
		})
	}
	return out
}
