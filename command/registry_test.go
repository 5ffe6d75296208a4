package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/enso/event"
)

func bare(expr string) *Func {
	return New(Descriptor{Expression: expr, Description: expr + " description"}, nil)
}

func bounded(expr string, args ...string) *Func {
	return New(Descriptor{Expression: expr, Kind: ArgBounded, Source: StaticArgs(args)}, nil)
}

func arbitrary(expr string) *Func {
	return New(Descriptor{Expression: expr, Kind: ArgArbitrary}, nil)
}

func TestParseExpression(t *testing.T) {
	tests := []struct {
		in      string
		want    Expression
		wantErr bool
	}{
		{in: "minimize", want: Expression{Name: "minimize"}},
		{in: "open {target}", want: Expression{Name: "open", Prefix: "open ", Slot: "target"}},
		{in: "  google   {search terms}", want: Expression{Name: "google", Prefix: "google ", Slot: "search terms"}},
		{in: "", wantErr: true},
		{in: "{target}", wantErr: true},
		{in: "open {a} {b}", wantErr: true},
		{in: "open {a} now", wantErr: true},
		{in: "open{a}", wantErr: true},
		{in: "open }", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExpression(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrExpression)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_DuplicateAndUnknown(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(bare("help")))
	assert.ErrorIs(t, r.Register(bare("Help")), ErrDuplicate)
	require.NoError(t, r.Register(bounded("open {target}", "mail")))
	assert.ErrorIs(t, r.Register(bounded("open {target}", "x")), ErrDuplicate)

	assert.ErrorIs(t, r.Unregister("nothing"), ErrUnknown)
	require.NoError(t, r.Unregister("help"))
	require.NoError(t, r.Unregister("open {target}"))
	assert.Zero(t, r.Len())
}

func TestRegistry_KindMustMatchSlot(t *testing.T) {
	r := NewRegistry(nil)
	assert.ErrorIs(t, r.Register(New(Descriptor{Expression: "open {x}"}, nil)), ErrExpression)
	assert.ErrorIs(t, r.Register(New(Descriptor{Expression: "open", Kind: ArgArbitrary}, nil)), ErrExpression)
}

func TestRegistry_Disabled(t *testing.T) {
	r := NewRegistry(nil)
	r.SetDisabled([]string{"quit enso"})
	require.NoError(t, r.Register(bare("quit enso")))
	_, ok := r.Lookup("quit enso")
	assert.False(t, ok)
	assert.True(t, r.IsDisabled("Quit  Enso"))
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(nil)
	open := bounded("open {target}", "mail", "music")
	openWith := bounded("open with {app}", "gimp")
	google := arbitrary("google {terms}")
	minimize := bare("minimize")
	for _, c := range []Command{open, openWith, google, minimize} {
		require.NoError(t, r.Register(c))
	}

	tests := []struct {
		input string
		cmd   Command
		arg   string
		ok    bool
	}{
		{"minimize", minimize, "", true},
		{"MINIMIZE", minimize, "", true},
		{"open mail", open, "mail", true},
		{"open MAIL", open, "mail", true},
		{"open with gimp", openWith, "gimp", true},
		{"open nothing", nil, "", false},
		{"open", nil, "", false},
		{"google go generics", google, "go generics", true},
		{"Google Go  Generics", google, "Go Generics", true},
		{"google", google, "", true},
		{"min", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, ok := r.Lookup(tt.input)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Same(t, tt.cmd, m.Command)
			assert.Equal(t, tt.arg, m.Arg)
		})
	}
}

func TestRegistry_LongestPrefixWins(t *testing.T) {
	r := NewRegistry(nil)
	short := arbitrary("open {anything}")
	long := arbitrary("open with {app}")
	require.NoError(t, r.Register(short))
	require.NoError(t, r.Register(long))

	m, ok := r.Lookup("open with vim")
	require.True(t, ok)
	assert.Same(t, long, m.Command)
	assert.Equal(t, "vim", m.Arg)

	m, ok = r.Lookup("open file")
	require.True(t, ok)
	assert.Same(t, short, m.Command)
}

func TestRegistry_Catalog(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(bare("minimize")))
	require.NoError(t, r.Register(bounded("open {target}", "music", "mail")))
	require.NoError(t, r.Register(arbitrary("google {terms}")))

	var names []string
	for _, e := range r.Entries() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"minimize", "open mail", "open music"}, names)

	fs := r.Factories()
	require.Len(t, fs, 2)
	assert.Equal(t, "google ", fs[0].Prefix)
	assert.True(t, fs[0].Arbitrary)
	assert.Equal(t, "open ", fs[1].Prefix)
	assert.Equal(t, []string{"music", "mail"}, fs[1].Args)

	assert.Equal(t, []string{"google {terms}", "minimize", "open {target}"}, r.Expressions())
}

func TestRegistry_DynamicArgs(t *testing.T) {
	r := NewRegistry(nil)
	args := []string{"a"}
	require.NoError(t, r.Register(New(Descriptor{
		Expression: "pick {x}",
		Kind:       ArgBounded,
		Source:     ArgSourceFunc(func() []string { return args }),
	}, nil)))
	_, ok := r.Lookup("pick b")
	assert.False(t, ok)
	args = append(args, "b")
	_, ok = r.Lookup("pick b")
	assert.True(t, ok)
}

func TestRegistry_Describe(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(New(Descriptor{
		Expression: "open {target}", Description: "opens things", Kind: ArgBounded, Source: StaticArgs{"mail"},
	}, nil)))
	d, ok := r.Describe("open")
	require.True(t, ok)
	assert.Equal(t, "opens things", d.Description)
	_, ok = r.Describe("zzz")
	assert.False(t, ok)
}

func TestFuncRun(t *testing.T) {
	ran := ""
	c := New(Descriptor{Expression: "echo {x}", Kind: ArgArbitrary}, func(_ API, arg string) (event.Step, error) {
		ran = arg
		return nil, nil
	})
	step, err := c.Run(nil, "hi")
	require.NoError(t, err)
	assert.Nil(t, step)
	assert.Equal(t, "hi", ran)
}
