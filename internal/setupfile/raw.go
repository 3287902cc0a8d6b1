package setupfile

import (
	"gopkg.in/yaml.v3"
)

// position is the YAML node a value was decoded from.
type position struct {
	line   int
	column int
}

func (p *position) set(node *yaml.Node) {
	p.line, p.column = node.Line, node.Column
}

type rawSetup struct {
	Name         string              `yaml:"name"`
	Types        map[string]*rawType `yaml:"types"`
	Bindings     []*rawBinding       `yaml:"bindings"`
	Roots        []*rawRoot          `yaml:"roots"`
	Accumulators []*rawAccumulator   `yaml:"accumulators"`
	// typeOrder keeps the declaration order of Types.
	typeOrder []string
	pos position
}

func (s *rawSetup) UnmarshalYAML(node *yaml.Node) error {
	type plain rawSetup
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	s.pos.set(node)

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "types" || node.Content[i+1].Kind != yaml.MappingNode {
			continue
		}
		types := node.Content[i+1]
		for j := 0; j+1 < len(types.Content); j += 2 {
			s.typeOrder = append(s.typeOrder, types.Content[j].Value)
		}
	}
	return nil
}

type rawType struct {
	Params       []string          `yaml:"params"`
	Abstract     bool              `yaml:"abstract"`
	Implements   []string          `yaml:"implements"`
	Constructors []*rawConstructor `yaml:"constructors"`
	Members      []*rawMember      `yaml:"members"`
	pos position
}

func (t *rawType) UnmarshalYAML(node *yaml.Node) error {
	type plain rawType
	if err := node.Decode((*plain)(t)); err != nil {
		return err
	}
	t.pos.set(node)
	return nil
}

type rawConstructor struct {
	Params     []*rawParameter `yaml:"params"`
	Accessible *bool           `yaml:"accessible"`
	Generated  bool            `yaml:"generated"`
	Ordinal    *int            `yaml:"ordinal"`
	pos position
}

func (c *rawConstructor) UnmarshalYAML(node *yaml.Node) error {
	type plain rawConstructor
	if err := node.Decode((*plain)(c)); err != nil {
		return err
	}
	c.pos.set(node)
	return nil
}

type rawMember struct {
	Kind    string          `yaml:"kind"`
	Name    string          `yaml:"name"`
	Ordinal *int            `yaml:"ordinal"`
	Type    string          `yaml:"type"`
	Tag     string          `yaml:"tag"`
	Params  []*rawParameter `yaml:"params"`
	pos position
}

func (m *rawMember) UnmarshalYAML(node *yaml.Node) error {
	type plain rawMember
	if err := node.Decode((*plain)(m)); err != nil {
		return err
	}
	m.pos.set(node)
	return nil
}

// rawParameter is either a bare type string or a mapping.
type rawParameter struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Tag      string `yaml:"tag"`
	Optional bool   `yaml:"optional"`
	Default  string `yaml:"default"`
	pos position
}

func (p *rawParameter) UnmarshalYAML(node *yaml.Node) error {
	p.pos.set(node)
	if node.Kind == yaml.ScalarNode {
		p.Type = node.Value
		return nil
	}
	type plain rawParameter
	return node.Decode((*plain)(p))
}

// rawContract is either a bare type string or a mapping.
type rawContract struct {
	Type string   `yaml:"type"`
	Tags []string `yaml:"tags"`
	pos position
}

func (c *rawContract) UnmarshalYAML(node *yaml.Node) error {
	c.pos.set(node)
	if node.Kind == yaml.ScalarNode {
		c.Type = node.Value
		return nil
	}
	type plain rawContract
	return node.Decode((*plain)(c))
}

type rawBinding struct {
	ID             *int           `yaml:"id"`
	Params         []string       `yaml:"params"`
	Contracts      []*rawContract `yaml:"contracts"`
	Tags           []string       `yaml:"tags"`
	Lifetime       string         `yaml:"lifetime"`
	Implementation string         `yaml:"implementation"`
	Factory        *rawFactory    `yaml:"factory"`
	Arg            *rawArg        `yaml:"arg"`
	pos position
}

func (b *rawBinding) UnmarshalYAML(node *yaml.Node) error {
	type plain rawBinding
	if err := node.Decode((*plain)(b)); err != nil {
		return err
	}
	b.pos.set(node)
	return nil
}

type rawFactory struct {
	Type       string     `yaml:"type"`
	Expression string     `yaml:"expression"`
	Body       []*rawStep `yaml:"body"`
}

// rawStep is one statement of a factory body: an injection or an override.
// Its index is the call-site ordinal.
type rawStep struct {
	Inject   *rawInject   `yaml:"inject"`
	Override *rawOverride `yaml:"override"`
	pos position
}

func (s *rawStep) UnmarshalYAML(node *yaml.Node) error {
	type plain rawStep
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	s.pos.set(node)
	return nil
}

type rawInject struct {
	Type     string `yaml:"type"`
	Tag      string `yaml:"tag"`
	Name     string `yaml:"name"`
	Lazy     bool   `yaml:"lazy"`
	Optional bool   `yaml:"optional"`
}

type rawOverride struct {
	Type       string   `yaml:"type"`
	Tags       []string `yaml:"tags"`
	Expression string   `yaml:"expression"`
}

type rawArg struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`
	Root bool   `yaml:"root"`
}

type rawRoot struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Tag    string `yaml:"tag"`
	Public *bool  `yaml:"public"`
	Static bool   `yaml:"static"`
	pos position
}

func (r *rawRoot) UnmarshalYAML(node *yaml.Node) error {
	type plain rawRoot
	if err := node.Decode((*plain)(r)); err != nil {
		return err
	}
	r.pos.set(node)
	return nil
}

type rawAccumulator struct {
	Type        string   `yaml:"type"`
	Accumulator string   `yaml:"accumulator"`
	Lifetimes   []string `yaml:"lifetimes"`
	pos position
}

func (a *rawAccumulator) UnmarshalYAML(node *yaml.Node) error {
	type plain rawAccumulator
	if err := node.Decode((*plain)(a)); err != nil {
		return err
	}
	a.pos.set(node)
	return nil
}
