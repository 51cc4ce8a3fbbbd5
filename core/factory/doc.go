// Package factory provides the generic registry used to build metrics sinks
// and schedule writers from configuration. A module is a type name plus a
// map of raw settings that the factory decodes into its own struct.
//
//	reg := factory.NewRegistry[inverter.ScheduleWriter]()
//	reg.Register("mqtt", func(conf map[string]any) (inverter.ScheduleWriter, error) {
//	    var c struct{ Prefix string `json:"entity_prefix"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newEntityWriter(c.Prefix), nil
//	})
package factory
