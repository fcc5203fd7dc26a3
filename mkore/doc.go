// Package mkore implements the build model spvmk runs on: a [Project] holds
// [Goal]s that are reached by [Action]s, each of which is implemented by an
// [Operation]. A [Builder] walks the goals of a project, runs the actions that
// are needed and reports progress through a [Trace] to a [Tracer].
//
// The model is generic. The shader specific parts live in the spvmk package,
// filesystem artefacts in package mkfs.
package mkore
