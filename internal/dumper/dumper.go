// Package dumper renders a model as YAML for inspection. The output is a
// debugging aid, not a stable interchange format.
package dumper

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vk/metabake/internal/model"
)

type projectDump struct {
	Variables      map[string]string `yaml:"variables,omitempty"`
	Modules        []*moduleDump     `yaml:"modules"`
	Configurations []string          `yaml:"configurations,omitempty"`
}

type moduleDump struct {
	Name      string            `yaml:"name"`
	File      string            `yaml:"file"`
	Variables map[string]string `yaml:"variables,omitempty"`
	CondVars  []*condVarDump    `yaml:"conditional_variables,omitempty"`
	Options   []*optionDump     `yaml:"options,omitempty"`
	Targets   []*targetDump     `yaml:"targets,omitempty"`
}

type condVarDump struct {
	Name  string         `yaml:"name"`
	Cases []condCaseDump `yaml:"cases"`
}

type condCaseDump struct {
	If    string `yaml:"if"`
	Value string `yaml:"value"`
}

type optionDump struct {
	Name    string   `yaml:"name"`
	Default string   `yaml:"default,omitempty"`
	Values  []string `yaml:"values,omitempty"`
}

type targetDump struct {
	Name      string            `yaml:"name"`
	Type      string            `yaml:"type"`
	Condition string            `yaml:"condition,omitempty"`
	Sources   []string          `yaml:"sources,omitempty"`
	Variables map[string]string `yaml:"variables,omitempty"`
	CondVars  []*condVarDump    `yaml:"conditional_variables,omitempty"`
	Configs   []string          `yaml:"configurations,omitempty"`
}

// Dump writes the project to w as YAML.
func Dump(w io.Writer, p *model.Project) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(build(p))
}

func build(p *model.Project) *projectDump {
	out := &projectDump{Variables: dumpVars(&p.Part)}
	for _, c := range p.Configs {
		out.Configurations = append(out.Configurations, c.Name)
	}
	for _, m := range p.Modules() {
		md := &moduleDump{
			Name:      m.Name,
			File:      m.File,
			Variables: dumpVars(&m.Part),
			CondVars:  dumpCondVars(&m.Part),
		}
		for _, o := range m.Options() {
			od := &optionDump{Name: o.Name, Values: o.Values}
			if o.HasDefault {
				od.Default = o.Default
			}
			md.Options = append(md.Options, od)
		}
		for _, t := range m.Targets() {
			td := &targetDump{
				Name:      t.Name,
				Type:      t.Type,
				Variables: dumpVars(&t.Part),
				CondVars:  dumpCondVars(&t.Part),
			}
			if t.Condition != nil {
				td.Condition = t.Condition.String()
			}
			for _, sf := range t.Sources() {
				td.Sources = append(td.Sources, sf.Name.String())
			}
			for _, c := range t.Configs {
				td.Configs = append(td.Configs, c.Name)
			}
			md.Targets = append(md.Targets, td)
		}
		out.Modules = append(out.Modules, md)
	}
	return out
}

func dumpVars(p *model.Part) map[string]string {
	out := map[string]string{}
	for _, v := range p.Vars() {
		out[v.Name] = v.Value().String()
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func dumpCondVars(p *model.Part) []*condVarDump {
	var out []*condVarDump
	for _, cv := range p.CondVars() {
		d := &condVarDump{Name: cv.Name}
		for _, c := range cv.Cases {
			d.Cases = append(d.Cases, condCaseDump{If: c.Cond.String(), Value: c.Value.String()})
		}
		out = append(out, d)
	}
	return out
}
