// Package factory provides a small generic registry used to build pluggable
// components (metrics sinks, journal stores) from configuration. A component
// is described by a type string and a map of raw settings decoded with the
// json tags of the target struct.
//
//	reg := factory.NewRegistry[journal.Store]()
//	reg.Register("jsonl", func(conf map[string]any) (journal.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return journal.NewJSONLStore(c.Path)
//	})
package factory
