// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ember

import "fmt"

// This file mirrors interpreter_registry.go's registration pattern for
// Processor implementations. Unlike an Interpreter, a Processor is always
// built around a specific Interpreter instance, so the registry holds
// factories rather than ready-made singletons.

// ProcessorFactory is the type of a function that creates a new Processor
// wired to the given Interpreter.
type ProcessorFactory func(Interpreter) Processor

// GetProcessor performs a lookup for the given name (case-insensitive) in
// the registry and, if found, constructs a Processor using interpreter. The
// result is nil if no factory was registered under the given name.
func GetProcessor(name string, interpreter Interpreter) Processor {
	factory := GetProcessorFactory(name)
	if factory == nil {
		return nil
	}
	return factory(interpreter)
}

// GetProcessorFactory performs a lookup for the given name (case-insensitive)
// in the registry. The result is nil if no factory was registered under the
// given name.
func GetProcessorFactory(name string) ProcessorFactory {
	factory, _ := processorRegistry.get(name)
	return factory
}

// GetAllRegisteredProcessorFactories obtains all registered factories.
func GetAllRegisteredProcessorFactories() map[string]ProcessorFactory {
	return processorRegistry.all()
}

// RegisterProcessorFactory registers a new Processor factory to be exported
// for general use in the binary. The name is not case-sensitive, and a panic
// is triggered if a factory was bound to the same name before, or the
// factory is nil. This function is mainly intended to be used by package
// initialization code.
func RegisterProcessorFactory(name string, factory ProcessorFactory) {
	if factory == nil {
		panic(fmt.Sprintf("invalid initialization: cannot register nil-factory using `%s`", name))
	}
	if err := processorRegistry.register(name, factory); err != nil {
		panic(err)
	}
}

var processorRegistry = newRegistry[ProcessorFactory]()
