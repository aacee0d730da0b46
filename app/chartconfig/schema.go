package chartconfig

import (
	"github.com/invopop/jsonschema"
)

func reflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
}

// Schema describes every chart config shape accepted by Decode.
func Schema() *jsonschema.Schema {
	r := reflector()
	root := &jsonschema.Schema{
		Version: jsonschema.Version,
		Title:   "chartConfig",
	}
	for _, t := range ChartTypes {
		cfg, _ := New(t)
		s := r.Reflect(cfg)
		s.Version = ""
		s.Title = string(t)
		if s.Properties != nil {
			s.Properties.Set("chartType", &jsonschema.Schema{Const: string(t)})
		}
		root.OneOf = append(root.OneOf, s)
	}
	return root
}

// MetaSchema describes the localized title and description.
func MetaSchema() *jsonschema.Schema {
	s := reflector().Reflect(&Meta{})
	s.Version = ""
	return s
}
