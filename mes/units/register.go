// register.go wires the concrete unit kinds into the mes kind registry
// (mes.RegisterUnitKind). This init() runs when any package imports mes/units;
// mes itself never imports its kinds. The CLI imports mes/units directly;
// test code in package mes registers its own fixture kinds.
package units

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dekarpio/dekarpio/mes"
)

func init() {
	mes.RegisterUnitKind(KindSource, func(name string, params *yaml.Node) (mes.UnitDef, error) {
		var cfg SourceConfig
		if err := decode(name, params, &cfg); err != nil {
			return nil, err
		}
		return NewSource(name, cfg), nil
	})
	mes.RegisterUnitKind(KindSink, func(name string, params *yaml.Node) (mes.UnitDef, error) {
		var cfg SinkConfig
		if err := decode(name, params, &cfg); err != nil {
			return nil, err
		}
		return NewSink(name, cfg), nil
	})
	mes.RegisterUnitKind(KindConverter, func(name string, params *yaml.Node) (mes.UnitDef, error) {
		var cfg ConverterConfig
		if err := decode(name, params, &cfg); err != nil {
			return nil, err
		}
		return NewConverter(name, cfg), nil
	})
	mes.RegisterUnitKind(KindStorage, func(name string, params *yaml.Node) (mes.UnitDef, error) {
		var cfg StorageConfig
		if err := decode(name, params, &cfg); err != nil {
			return nil, err
		}
		return NewStorage(name, cfg), nil
	})
}

func decode(name string, params *yaml.Node, out any) error {
	if err := mes.DecodeParams(params, out); err != nil {
		return fmt.Errorf("unit %q params: %w", name, err)
	}
	return nil
}
