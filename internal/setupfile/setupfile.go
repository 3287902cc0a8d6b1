// Package setupfile decodes binding models from YAML setup files.
package setupfile

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/tools/txtar"
	"gopkg.in/yaml.v3"

	"github.com/mazrean/bindgraph/internal/model"
)

// LoadFile reads a YAML setup, or every *.yaml file of a txtar archive.
func LoadFile(filename string) ([]*model.Setup, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", filename, err)
	}

	if filepath.Ext(filename) == ".txtar" {
		return DecodeArchive(filename, data)
	}

	setup, err := Decode(filename, data)
	if err != nil {
		return nil, err
	}
	return []*model.Setup{setup}, nil
}

// DecodeArchive decodes the *.yaml members of a txtar archive in archive
// order. Locations name the member as archive/member.
func DecodeArchive(filename string, data []byte) ([]*model.Setup, error) {
	archive := txtar.Parse(data)

	var setups []*model.Setup
	for _, f := range archive.Files {
		if ext := path.Ext(f.Name); ext != ".yaml" && ext != ".yml" {
			continue
		}
		setup, err := Decode(filename+"/"+f.Name, f.Data)
		if err != nil {
			return nil, err
		}
		setups = append(setups, setup)
	}
	if len(setups) == 0 {
		return nil, fmt.Errorf("archive %s contains no yaml setup", filename)
	}
	return setups, nil
}

// Decode parses one YAML setup document.
func Decode(filename string, data []byte) (*model.Setup, error) {
	var raw rawSetup
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	d := &decoder{file: filename}
	setup, err := d.setup(&raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return setup, nil
}

type decoder struct {
	file string
}

func (d *decoder) loc(p position) model.Location {
	return model.Location{File: d.file, Line: p.line, Column: p.column}
}

// errorf reports a problem at p.
func (d *decoder) errorf(p position, format string, args ...any) error {
	return fmt.Errorf("%s: %s", d.loc(p), fmt.Sprintf(format, args...))
}

func (d *decoder) parseType(p position, s string, params []string) (model.TypeRef, error) {
	t, err := model.ParseType(s, params...)
	if err != nil {
		return model.TypeRef{}, d.errorf(p, "parse type %q: %v", s, err)
	}
	return t, nil
}

func (d *decoder) setup(raw *rawSetup) (*model.Setup, error) {
	name := raw.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(d.file), filepath.Ext(d.file))
	}
	setup := &model.Setup{
		Name:     name,
		Types:    make(model.Types, len(raw.Types)),
		Location: d.loc(raw.pos),
	}

	for _, typeName := range raw.typeOrder {
		info, err := d.typeInfo(typeName, raw.Types[typeName])
		if err != nil {
			return nil, err
		}
		setup.Types[typeName] = info
	}

	for i, rb := range raw.Bindings {
		b, err := d.binding(i, rb)
		if err != nil {
			return nil, err
		}
		setup.Bindings = append(setup.Bindings, b)
	}

	for _, rr := range raw.Roots {
		r, err := d.root(rr)
		if err != nil {
			return nil, err
		}
		setup.Roots = append(setup.Roots, r)
	}

	for _, ra := range raw.Accumulators {
		a, err := d.accumulator(ra)
		if err != nil {
			return nil, err
		}
		setup.Accumulators = append(setup.Accumulators, a)
	}

	return setup, nil
}

func (d *decoder) typeInfo(name string, raw *rawType) (*model.TypeInfo, error) {
	if raw == nil {
		raw = &rawType{}
	}
	info := &model.TypeInfo{
		Name:     name,
		Params:   raw.Params,
		Abstract: raw.Abstract,
		Location: d.loc(raw.pos),
	}

	for _, s := range raw.Implements {
		t, err := d.parseType(raw.pos, s, raw.Params)
		if err != nil {
			return nil, err
		}
		info.Implements = append(info.Implements, t)
	}

	for _, rc := range raw.Constructors {
		params, err := d.parameters(rc.Params, raw.Params)
		if err != nil {
			return nil, err
		}
		accessible := rc.Accessible == nil || *rc.Accessible
		info.Constructors = append(info.Constructors, model.Constructor{
			Parameters: params,
			Accessible: accessible,
			Generated:  rc.Generated,
			Ordinal:    rc.Ordinal,
			Location:   d.loc(rc.pos),
		})
	}
	if len(raw.Constructors) == 0 && !raw.Abstract {
		info.Constructors = []model.Constructor{{Accessible: true, Generated: true, Location: info.Location}}
	}

	for _, rm := range raw.Members {
		m, err := d.member(rm, raw.Params)
		if err != nil {
			return nil, err
		}
		info.Members = append(info.Members, m)
	}

	return info, nil
}

func (d *decoder) member(raw *rawMember, typeParams []string) (model.Member, error) {
	m := model.Member{
		Name:     raw.Name,
		Ordinal:  raw.Ordinal,
		Location: d.loc(raw.pos),
	}
	switch strings.ToLower(raw.Kind) {
	case "field", "":
		m.Kind = model.MemberField
	case "property":
		m.Kind = model.MemberProperty
	case "method":
		m.Kind = model.MemberMethod
	default:
		return model.Member{}, d.errorf(raw.pos, "unknown member kind %q", raw.Kind)
	}
	if m.Name == "" {
		return model.Member{}, d.errorf(raw.pos, "member without name")
	}

	if m.Kind != model.MemberMethod {
		if raw.Type == "" || len(raw.Params) > 0 {
			return model.Member{}, d.errorf(raw.pos, "%s %s needs a type and no params", m.Kind, m.Name)
		}
		t, err := d.parseType(raw.pos, raw.Type, typeParams)
		if err != nil {
			return model.Member{}, err
		}
		m.Parameters = []model.Parameter{{Type: t, Tag: model.ParseTag(raw.Tag), Location: m.Location}}
		return m, nil
	}

	params, err := d.parameters(raw.Params, typeParams)
	if err != nil {
		return model.Member{}, err
	}
	m.Parameters = params
	return m, nil
}

func (d *decoder) parameters(raw []*rawParameter, typeParams []string) ([]model.Parameter, error) {
	params := make([]model.Parameter, 0, len(raw))
	for _, rp := range raw {
		t, err := d.parseType(rp.pos, rp.Type, typeParams)
		if err != nil {
			return nil, err
		}
		params = append(params, model.Parameter{
			Name:     rp.Name,
			Type:     t,
			Tag:      model.ParseTag(rp.Tag),
			Optional: rp.Optional,
			Default:  rp.Default,
			Location: d.loc(rp.pos),
		})
	}
	return params, nil
}

func parseTags(raw []string) []model.Tag {
	if len(raw) == 0 {
		return nil
	}
	tags := make([]model.Tag, len(raw))
	for i, s := range raw {
		tags[i] = model.ParseTag(s)
	}
	return tags
}

func (d *decoder) binding(index int, raw *rawBinding) (*model.Binding, error) {
	b := &model.Binding{
		Id:       index + 1,
		Tags:     parseTags(raw.Tags),
		Location: d.loc(raw.pos),
	}
	if raw.ID != nil {
		b.Id = *raw.ID
	}

	if raw.Lifetime != "" {
		l, err := model.ParseLifetime(raw.Lifetime)
		if err != nil {
			return nil, d.errorf(raw.pos, "%v", err)
		}
		b.Lifetime = l
	}

	if raw.Implementation != "" {
		t, err := d.parseType(raw.pos, raw.Implementation, raw.Params)
		if err != nil {
			return nil, err
		}
		b.Implementation = &model.Implementation{Type: t}
	}

	if raw.Factory != nil {
		f, err := d.factory(raw, raw.Factory)
		if err != nil {
			return nil, err
		}
		b.Factory = f
	}

	if raw.Arg != nil {
		t, err := d.parseType(raw.pos, raw.Arg.Type, raw.Params)
		if err != nil {
			return nil, err
		}
		b.Arg = &model.Arg{Type: t, Name: raw.Arg.Name, Root: raw.Arg.Root}
	}

	for _, rc := range raw.Contracts {
		t, err := d.parseType(rc.pos, rc.Type, raw.Params)
		if err != nil {
			return nil, err
		}
		b.Contracts = append(b.Contracts, model.Contract{Type: t, Tags: parseTags(rc.Tags), Explicit: true})
	}
	if len(raw.Contracts) == 0 && b.StrategyCount() == 1 && !b.Type().IsZero() {
		b.Contracts = []model.Contract{{Type: b.Type()}}
	}

	return b, nil
}

func (d *decoder) factory(binding *rawBinding, raw *rawFactory) (*model.Factory, error) {
	f := &model.Factory{Expression: raw.Expression}
	if raw.Type != "" {
		t, err := d.parseType(binding.pos, raw.Type, binding.Params)
		if err != nil {
			return nil, err
		}
		f.Type = t
	}

	for ordinal, step := range raw.Body {
		if step == nil {
			return nil, d.errorf(binding.pos, "factory step %d is empty", ordinal)
		}
		switch {
		case (step.Inject == nil) == (step.Override == nil):
			return nil, d.errorf(step.pos, "factory step needs exactly one of inject or override")
		case step.Inject != nil:
			t, err := d.parseType(step.pos, step.Inject.Type, binding.Params)
			if err != nil {
				return nil, err
			}
			f.Injections = append(f.Injections, model.Injection{
				Type:      t,
				Tag:       model.ParseTag(step.Inject.Tag),
				Kind:      model.InjectFactory,
				Name:      step.Inject.Name,
				Ordinal:   ordinal,
				Optional:  step.Inject.Optional,
				Lazy:      step.Inject.Lazy,
				Locations: []model.Location{d.loc(step.pos)},
			})
		case step.Override != nil:
			t, err := d.parseType(step.pos, step.Override.Type, binding.Params)
			if err != nil {
				return nil, err
			}
			f.Overrides = append(f.Overrides, model.Override{
				Type:       t,
				Tags:       parseTags(step.Override.Tags),
				Ordinal:    ordinal,
				Expression: step.Override.Expression,
				Location:   d.loc(step.pos),
			})
		}
	}
	return f, nil
}

func (d *decoder) root(raw *rawRoot) (model.Root, error) {
	r := model.Root{
		Name:     raw.Name,
		Tag:      model.ParseTag(raw.Tag),
		Public:   raw.Public == nil || *raw.Public,
		Static:   raw.Static,
		Location: d.loc(raw.pos),
	}
	if raw.Type != "" {
		t, err := d.parseType(raw.pos, raw.Type, nil)
		if err != nil {
			return model.Root{}, err
		}
		r.Type = t
	}
	return r, nil
}

func (d *decoder) accumulator(raw *rawAccumulator) (model.Accumulator, error) {
	t, err := d.parseType(raw.pos, raw.Type, nil)
	if err != nil {
		return model.Accumulator{}, err
	}
	at, err := d.parseType(raw.pos, raw.Accumulator, nil)
	if err != nil {
		return model.Accumulator{}, err
	}
	a := model.Accumulator{Type: t, AccumulatorType: at, Location: d.loc(raw.pos)}
	for _, s := range raw.Lifetimes {
		l, err := model.ParseLifetime(s)
		if err != nil {
			return model.Accumulator{}, d.errorf(raw.pos, "%v", err)
		}
		a.Lifetimes = append(a.Lifetimes, l)
	}
	return a, nil
}
