package configurator

import (
	"github.com/invopop/jsonschema"
	"github.com/mahesh-hegde/visualize/app/chartconfig"
)

// Schema describes the persisted state document accepted by Decode.
func Schema() *jsonschema.Schema {
	root := &jsonschema.Schema{
		Version: jsonschema.Version,
		Title:   "configuratorState",
	}
	chart := chartconfig.Schema()
	chart.Version = ""

	for _, stage := range stages {
		props := jsonschema.NewProperties()
		props.Set("state", &jsonschema.Schema{Const: string(stage)})
		required := []string{"state"}

		switch stage {
		case StageInitial:
		case StageSelectingDataset:
			props.Set("dataSet", &jsonschema.Schema{Type: "string"})
			props.Set("meta", chartconfig.MetaSchema())
			required = append(required, "meta")
		default:
			props.Set("dataSet", &jsonschema.Schema{Type: "string", MinLength: ptr(uint64(1))})
			props.Set("meta", chartconfig.MetaSchema())
			props.Set("chartConfig", chart)
			props.Set("activeField", &jsonschema.Schema{Type: "string"})
			required = append(required, "dataSet", "meta", "chartConfig")
		}

		root.OneOf = append(root.OneOf, &jsonschema.Schema{
			Title:                string(stage),
			Type:                 "object",
			Properties:           props,
			Required:             required,
			AdditionalProperties: jsonschema.FalseSchema,
		})
	}
	return root
}

func ptr[T any](v T) *T { return &v }
