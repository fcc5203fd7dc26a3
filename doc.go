// Package spvmk compiles the compute shaders of a project to SPIR-V by
// running the external shader compilers, clspv for OpenCL C kernels (*.cl)
// and glslangValidator for GLSL compute shaders (*.comp). Optionally WGSL
// shaders (*.wgsl) are compiled in-process with naga. The resulting *.spv
// files are collected in an output directory and deployed to a
// platform specific build directory.
//
// A [Driver] is set up from a [Config]. Each run builds a small [mkore]
// project: the output directory, created first, one goal per SPIR-V file,
// reached by running the compiler on the shader source, and one deploy goal
// that depends on all of them:
//
//	shaders/foo.comp ─glslangValidator─▶ shaders/compiled_shaders/foo.spv ─┐
//	shaders/bar.cl ───────────clspv───▶ shaders/compiled_shaders/bar.spv ─┴▶ deploy
//
// Run from a project's root directory
//
//	project$ spvmk
//
// with the command from cmd/spvmk.
//
// [mkore]: https://pkg.go.dev/git.fractalqb.de/fractalqb/spvmk/mkore
package spvmk
