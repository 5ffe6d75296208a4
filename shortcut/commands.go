package shortcut

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lixenwraith/enso/command"
	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/message"
	"github.com/lixenwraith/enso/selection"
)

const category = "shortcuts"

// Commands returns the learned shortcut family backed by store
func Commands(store *Store, opener Opener) []command.Command {
	names := command.ArgSourceFunc(store.Names)
	p := &plugin{store: store, opener: opener}
	return []command.Command{
		command.New(command.Descriptor{
			Expression:  "open {target}",
			Description: "Opens a learned file, folder or address",
			Help:        "Use <command>learn as open</command> to teach new targets.",
			Category:    category,
			Kind:        command.ArgBounded,
			Source:      names,
		}, p.open),
		command.New(command.Descriptor{
			Expression:  "learn as open {name}",
			Description: "Learns the selected file, folder or address under a name",
			Category:    category,
			Kind:        command.ArgArbitrary,
		}, p.learn),
		command.New(command.Descriptor{
			Expression:  "unlearn open {target}",
			Description: "Forgets a learned shortcut",
			Category:    category,
			Kind:        command.ArgBounded,
			Source:      names,
		}, p.unlearn),
		command.New(command.Descriptor{
			Expression:  "undo unlearn",
			Description: "Restores the most recently forgotten shortcut",
			Category:    category,
		}, p.undo),
	}
}

type plugin struct {
	store  *Store
	opener Opener
}

func (p *plugin) open(api command.API, arg string) (event.Step, error) {
	sc, ok := p.store.Get(arg)
	if !ok {
		api.DisplayMessage(fmt.Sprintf("<p>Nothing is learned as <command>%s</command>.</p>", message.Escape(arg)))
		return nil, nil
	}
	return nil, p.opener.Open(sc)
}

func (p *plugin) learn(api command.API, arg string) (event.Step, error) {
	if strings.TrimSpace(arg) == "" {
		api.DisplayMessage("<p>Type a name after <command>learn as open</command>.</p>")
		return nil, nil
	}
	sel, err := api.GetSelection()
	if err != nil {
		return nil, err
	}
	target := Target(sel)
	if target == "" {
		api.DisplayMessage("<p>Select a file, folder or address to learn.</p>")
		return nil, nil
	}
	sc, err := p.store.Learn(arg, target)
	if err != nil {
		return nil, err
	}
	api.DisplayMessage(fmt.Sprintf("<p><command>open %s</command> now opens %s.</p>",
		message.Escape(sc.Name), message.Escape(sc.Target)))
	return nil, nil
}

func (p *plugin) unlearn(api command.API, arg string) (event.Step, error) {
	sc, err := p.store.Unlearn(arg)
	if errors.Is(err, ErrNotFound) {
		api.DisplayMessage(fmt.Sprintf("<p>Nothing is learned as <command>%s</command>.</p>", message.Escape(arg)))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	api.DisplayMessage(fmt.Sprintf("<p>Unlearned <command>open %s</command>.</p>", message.Escape(sc.Name)))
	return nil, nil
}

func (p *plugin) undo(api command.API, _ string) (event.Step, error) {
	sc, err := p.store.Undo()
	if errors.Is(err, ErrUndoEmpty) {
		api.DisplayMessage("<p>There is nothing to undo.</p>")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	api.DisplayMessage(fmt.Sprintf("<p>Relearned <command>open %s</command>.</p>", message.Escape(sc.Name)))
	return nil, nil
}

// Target picks the learnable target out of a selection: the first file,
// otherwise text that is an address or an existing path
func Target(sel selection.Dict) string {
	if len(sel.Files) > 0 {
		return sel.Files[0]
	}
	text := strings.TrimSpace(sel.Text)
	if text == "" || strings.ContainsAny(text, "\n\r") {
		return ""
	}
	if IsURL(text) {
		return text
	}
	if _, err := os.Stat(text); err == nil {
		return text
	}
	return ""
}
