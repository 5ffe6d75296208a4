package script

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/enso/command"
	"github.com/lixenwraith/enso/parameter"
)

// ErrScript marks a script file that cannot be turned into commands
var ErrScript = errors.New("invalid script")

// Output selects where the stdout of a run command goes
type Output string

const (
	OutputNone    Output = "none"
	OutputMessage Output = "message"
	OutputPaste   Output = "paste"
)

// Body is one cmd_ entry of a script file
type Body struct {
	Description      string   `yaml:"description"`
	Help             string   `yaml:"help"`
	Arg              string   `yaml:"arg"`
	ValidArgs        []string `yaml:"valid_args"`
	Run              []string `yaml:"run"`
	Stdin            string   `yaml:"stdin"`
	Output           Output   `yaml:"output"`
	Message          string   `yaml:"message"`
	OnQuasimodeStart []string `yaml:"on_quasimode_start"`
}

// Spec is a parsed command ready for registration
type Spec struct {
	Key        string // cmd_open_url
	Name       string // open url
	Expression string // open url {target}
	Body       Body
	Category   string
	Help       string
}

// File is a decoded script file
type File struct {
	Path     string
	Category string
	Track    bool
	Commands []Spec
}

// header holds the reserved top-level keys
type header struct {
	Category string            `yaml:"category"`
	Help     map[string]string `yaml:"help"`
	Track    bool              `yaml:"track"`
}

// ReadFile loads and parses a script file
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse decodes script file content; keys outside the reserved set and the cmd_ prefix are ignored
func Parse(data []byte) (*File, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScript, err)
	}
	f := &File{}
	if root.Kind == 0 || len(root.Content) == 0 {
		return f, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrScript)
	}

	var h header
	if err := doc.Decode(&h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScript, err)
	}
	f.Category = h.Category
	f.Track = h.Track

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		if !strings.HasPrefix(key, parameter.ScriptCommandPrefix) {
			continue
		}
		var body Body
		if err := doc.Content[i+1].Decode(&body); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrScript, key, err)
		}
		spec, err := newSpec(key, body)
		if err != nil {
			return nil, err
		}
		spec.Category = h.Category
		for _, k := range []string{spec.Expression, spec.Name, key} {
			if help, ok := h.Help[k]; ok {
				spec.Help = help
				break
			}
		}
		f.Commands = append(f.Commands, spec)
	}
	return f, nil
}

func newSpec(key string, body Body) (Spec, error) {
	name := strings.TrimPrefix(key, parameter.ScriptCommandPrefix)
	name = strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " ")
	if name == "" {
		return Spec{}, fmt.Errorf("%w: %s has no name", ErrScript, key)
	}
	if len(body.Run) == 0 && body.Message == "" {
		return Spec{}, fmt.Errorf("%w: %s needs run or message", ErrScript, key)
	}
	if len(body.ValidArgs) > 0 && body.Arg == "" {
		return Spec{}, fmt.Errorf("%w: %s has valid_args without arg", ErrScript, key)
	}
	switch body.Output {
	case "":
		body.Output = OutputNone
	case OutputNone, OutputMessage, OutputPaste:
	default:
		return Spec{}, fmt.Errorf("%w: %s has unknown output %q", ErrScript, key, body.Output)
	}
	if body.Stdin != "" && body.Stdin != "selection" {
		return Spec{}, fmt.Errorf("%w: %s has unknown stdin %q", ErrScript, key, body.Stdin)
	}

	expr := name
	if body.Arg != "" {
		expr = name + " {" + body.Arg + "}"
	}
	if _, err := command.ParseExpression(expr); err != nil {
		return Spec{}, fmt.Errorf("%w: %s: %v", ErrScript, key, err)
	}
	return Spec{Key: key, Name: name, Expression: expr, Body: body, Help: body.Help}, nil
}

// Kind returns the argument kind the body declares
func (b Body) Kind() command.ArgKind {
	switch {
	case b.Arg == "":
		return command.ArgNone
	case len(b.ValidArgs) > 0:
		return command.ArgBounded
	default:
		return command.ArgArbitrary
	}
}

// Descriptor builds the registry descriptor; hook is attached when the body declares one
func (s Spec) Descriptor(hook func()) command.Descriptor {
	d := command.Descriptor{
		Expression:  s.Expression,
		Description: s.Body.Description,
		Help:        s.Help,
		Category:    s.Category,
		Kind:        s.Body.Kind(),
	}
	if d.Kind == command.ArgBounded {
		d.Source = command.StaticArgs(slices.Clone(s.Body.ValidArgs))
	}
	if len(s.Body.OnQuasimodeStart) > 0 {
		d.OnQuasimodeStart = hook
	}
	return d
}
