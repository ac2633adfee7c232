// Package props registers the standard properties a project starts with.
package props

import (
	"github.com/vk/metabake/internal/expr"
	"github.com/vk/metabake/internal/model"
)

// Register installs the standard property definitions into a fresh project.
func Register(p *model.Project) {
	p.Props.Register(&model.Property{
		Name:        "toolset",
		Kind:        model.KindProject,
		Inheritable: true,
		Readonly:    true,
		// Undetermined until the model is specialized for a concrete
		// toolset; conditions over it stay symbolic before that.
		Default: func(*model.Part) expr.Expr {
			return expr.NewPlaceholder("toolset", nil)
		},
	})
	p.Props.Register(&model.Property{
		Name:        "toolsets",
		Kind:        model.KindProject,
		Inheritable: true,
		// No default: projects must say what they generate for.
	})
}
