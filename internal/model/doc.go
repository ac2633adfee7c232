// Package model holds the project model built from parsed input files: a
// tree of scopes (project, modules, targets, source files) whose variables
// carry expression-valued data. The compiler passes transform this model in
// place until a toolset-specific clone of it is handed to an emitter.
//
// There is no package-level state. Everything hangs off a Project, so
// several projects can be compiled in one process without interference.
package model
