package manifest

import "strings"

const (
	// OperatorConfigPath is the DPF operator configuration relative to the project root
	OperatorConfigPath = "manifests/dpf-installation/dpfoperatorconfig.yaml"

	// ChartVersionField is the field path mutated in service template files
	ChartVersionField = "spec.helmChart.source.version"

	// ImagePullSpecsField prefixes the operator config image fields
	ImagePullSpecsField = "imagePullSpecs"

	// ImageTagsField names bulk image tag substitutions in update records
	ImageTagsField = "image tags"

	templateSuffix = "-template.yaml"
)

// DefaultTemplateFiles lists the DPU service template files carrying a helm chart source
var DefaultTemplateFiles = []string{
	"ovn-template.yaml",
	"flannel-template.yaml",
	"hbn-template.yaml",
	"blueman-template.yaml",
	"dts-template.yaml",
}

// DefaultComponents are the components that follow the platform version unless told otherwise
var DefaultComponents = []string{"ovn-kubernetes", "flannel"}

// DefaultComponentAliases maps template component names to their version config keys
var DefaultComponentAliases = map[string]string{
	"ovn": "ovn-kubernetes",
}

// ComponentForTemplate derives the component name for a template file and applies the alias map.
// "ovn-template.yaml" becomes "ovn", which the default aliases turn into "ovn-kubernetes".
func ComponentForTemplate(file string, aliases map[string]string) string {
	name := strings.TrimSuffix(file, templateSuffix)
	if alias, ok := aliases[name]; ok && alias != "" {
		return alias
	}
	return name
}
