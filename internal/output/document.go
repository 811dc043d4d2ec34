package output

import (
	"github.com/sourceisview/siv/internal/cell"
	"github.com/sourceisview/siv/internal/model"
)

// GridDocument is the structured form of one rendered file.
type GridDocument struct {
	File string     `yaml:"file" json:"file"`
	Rows [][]string `yaml:"rows" json:"rows"`
}

// NewGridDocument wraps a grid for presentation.
func NewGridDocument(file string, grid cell.Grid) GridDocument {
	return GridDocument{File: file, Rows: grid.Strings()}
}

// Grid returns the document rows as a cell grid.
func (d GridDocument) Grid() cell.Grid {
	return cell.FromStrings(d.Rows)
}

// EntityView is the readable form of a translated entity.
type EntityView struct {
	Name         string       `yaml:"name" json:"name"`
	Kind         string       `yaml:"kind" json:"kind"`
	Generics     []string     `yaml:"generics,omitempty" json:"generics,omitempty"`
	Requirements []string     `yaml:"requirements,omitempty" json:"requirements,omitempty"`
	Descriptors  []string     `yaml:"descriptors,omitempty" json:"descriptors,omitempty"`
	Predicates   []string     `yaml:"predicates,omitempty" json:"predicates,omitempty"`
	Children     []EntityView `yaml:"children,omitempty" json:"children,omitempty"`
}

// EntitiesDocument lists the entities of one file.
type EntitiesDocument struct {
	File     string       `yaml:"file" json:"file"`
	Entities []EntityView `yaml:"entities" json:"entities"`
}

// NewEntitiesDocument converts translated entities into views.
func NewEntitiesDocument(file string, entities []model.Entity) EntitiesDocument {
	views := make([]EntityView, 0, len(entities))
	for _, e := range entities {
		views = append(views, NewEntityView(e))
	}
	return EntitiesDocument{File: file, Entities: views}
}

// NewEntityView flattens e and its children.
func NewEntityView(e model.Entity) EntityView {
	v := EntityView{
		Name:     e.Name,
		Kind:     e.Kind.String(),
		Generics: e.GenericArguments,
	}
	for _, r := range e.GenericRequirements {
		v.Requirements = append(v.Requirements, model.Describe(r))
	}
	for _, d := range e.Descriptors {
		v.Descriptors = append(v.Descriptors, d.Name)
	}
	for _, p := range e.Predicates {
		v.Predicates = append(v.Predicates, p.Cells().String())
	}
	for _, child := range e.Children {
		v.Children = append(v.Children, NewEntityView(child))
	}
	return v
}
