package ember

// This file re-exports the pieces of the public API client code is expected
// to depend on: an Interpreter implementation registered under a name (see
// interpreter_registry.go) and a Processor implementation built on top of it
// (see processor_registry.go). Importing an implementation package for its
// side effect is what makes it available through these lookups; see
// github.com/emberchain/ember/go/interpreter/engine and
// github.com/emberchain/ember/go/processor/atlas.
