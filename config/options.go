package config

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/lixenwraith/enso/event"
)

// option binds a recognised option name to a Config field
type option struct {
	get func(c *Config) any
	set func(c *Config, v any) error
}

var options = map[string]option{
	"QUASIMODE_START_KEY":                 keyOption(func(c *Config) *event.KeyCode { return &c.QuasimodeStartKey }),
	"QUASIMODE_END_KEY":                   keyOption(func(c *Config) *event.KeyCode { return &c.QuasimodeEndKey }),
	"QUASIMODE_CANCEL_KEY":                keyOption(func(c *Config) *event.KeyCode { return &c.QuasimodeCancelKey }),
	"IS_QUASIMODE_MODAL":                  boolOption(func(c *Config) *bool { return &c.IsQuasimodeModal }),
	"QUASIMODE_SUGGESTION_DELAY":          durationOption(func(c *Config) *time.Duration { return &c.SuggestionDelay }),
	"QUASIMODE_TRAILING_SUGGESTION_DELAY": durationOption(func(c *Config) *time.Duration { return &c.TrailingSuggestionDelay }),
	"QUASIMODE_MAX_SUGGESTIONS":           intOption(func(c *Config) *int { return &c.MaxSuggestions }),
	"QUASIMODE_MIN_AUTOCOMPLETE_CHARS":    intOption(func(c *Config) *int { return &c.MinAutocompleteChars }),
	"BAD_COMMAND_MSG_MIN_CHARS":           intOption(func(c *Config) *int { return &c.BadCommandMinChars }),
	"COLOR_THEME":                         stringOption(func(c *Config) *string { return &c.ColorTheme }),
	"PLUGINS":                             listOption(func(c *Config) *[]string { return &c.Plugins }),
	"PROVIDERS":                           listOption(func(c *Config) *[]string { return &c.Providers }),
	"ENSO_USER_DIR":                       stringOption(func(c *Config) *string { return &c.UserDir }),
	"DISABLED_COMMANDS":                   listOption(func(c *Config) *[]string { return &c.DisabledCommands }),
	"TRACK_COMMAND_CHANGES":               boolOption(func(c *Config) *bool { return &c.TrackCommandChanges }),
	"ENABLE_WEB_UI":                       boolOption(func(c *Config) *bool { return &c.EnableWebUI }),
	"WEB_UI_ADDR":                         stringOption(func(c *Config) *string { return &c.WebUIAddr }),
	"IDLE_INTERVAL":                       durationOption(func(c *Config) *time.Duration { return &c.IdleInterval }),
	"TICK_INTERVAL":                       durationOption(func(c *Config) *time.Duration { return &c.TickInterval }),
	"SOUND_FEEDBACK":                      boolOption(func(c *Config) *bool { return &c.SoundFeedback }),
	"SELECTION_TIMEOUT":                   durationOption(func(c *Config) *time.Duration { return &c.SelectionTimeout }),
	"SELECTION_FILE_TIMEOUT":              durationOption(func(c *Config) *time.Duration { return &c.SelectionFileTimeout }),
	"CLIPBOARD_OPEN_TIMEOUT":              durationOption(func(c *Config) *time.Duration { return &c.ClipboardOpenTimeout }),
	"CLIPBOARD_OPEN_STEP":                 durationOption(func(c *Config) *time.Duration { return &c.ClipboardOpenStep }),
	"SELECTION_CONTEXTS":                  mapOption(func(c *Config) *map[string]string { return &c.SelectionContexts }),
	"PRIMARY_GRACE":                       durationOption(func(c *Config) *time.Duration { return &c.PrimaryGrace }),
	"MINI_POLL_INTERVAL":                  durationOption(func(c *Config) *time.Duration { return &c.MiniPollInterval }),
	"RAG_ITERATIONS":                      intOption(func(c *Config) *int { return &c.RagIterations }),
	"RAG_DELTA":                           floatOption(func(c *Config) *float64 { return &c.RagDelta }),
	"HUD_WIDTH":                           intOption(func(c *Config) *int { return &c.HUDWidth }),
}

// Names returns every recognised option name, sorted
func Names() []string {
	return slices.Sorted(maps.Keys(options))
}

// Get returns the value of name in its persisted form
func (c *Config) Get(name string) (any, error) {
	o, ok := options[strings.ToUpper(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOption, name)
	}
	return o.get(c), nil
}

// Set parses v into option name; strings are accepted for every kind
func (c *Config) Set(name string, v any) error {
	key := strings.ToUpper(name)
	o, ok := options[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOption, name)
	}
	if err := o.set(c, v); err != nil {
		return fmt.Errorf("config %s: %w", key, err)
	}
	return nil
}

// Values returns every option in persisted form
func (c *Config) Values() map[string]any {
	out := make(map[string]any, len(options))
	for name, o := range options {
		out[name] = o.get(c)
	}
	return out
}

func keyOption(field func(*Config) *event.KeyCode) option {
	return option{
		get: func(c *Config) any { return field(c).Name() },
		set: func(c *Config, v any) error {
			s, ok := v.(string)
			if !ok {
				n, err := toInt(v)
				if err != nil {
					return err
				}
				*field(c) = event.KeyCode(n)
				return nil
			}
			code, ok := event.KeyByName(s)
			if !ok {
				n, err := strconv.Atoi(strings.TrimSpace(s))
				if err != nil || n <= 0 || n > 0xFF {
					return fmt.Errorf("unknown key %q", s)
				}
				code = event.KeyCode(n)
			}
			*field(c) = code
			return nil
		},
	}
}

func boolOption(field func(*Config) *bool) option {
	return option{
		get: func(c *Config) any { return *field(c) },
		set: func(c *Config, v any) error {
			switch x := v.(type) {
			case bool:
				*field(c) = x
			case string:
				b, err := strconv.ParseBool(strings.TrimSpace(x))
				if err != nil {
					return err
				}
				*field(c) = b
			default:
				return fmt.Errorf("expected bool, got %T", v)
			}
			return nil
		},
	}
}

func intOption(field func(*Config) *int) option {
	return option{
		get: func(c *Config) any { return *field(c) },
		set: func(c *Config, v any) error {
			n, err := toInt(v)
			if err != nil {
				return err
			}
			if n < 0 {
				return fmt.Errorf("must not be negative")
			}
			*field(c) = n
			return nil
		},
	}
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float64:
		return int(x), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func floatOption(field func(*Config) *float64) option {
	return option{
		get: func(c *Config) any { return *field(c) },
		set: func(c *Config, v any) error {
			f, err := toFloat(v)
			if err != nil {
				return err
			}
			*field(c) = f
			return nil
		},
	}
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func stringOption(field func(*Config) *string) option {
	return option{
		get: func(c *Config) any { return *field(c) },
		set: func(c *Config, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", v)
			}
			*field(c) = s
			return nil
		},
	}
}

// durationOption accepts Go durations ("200ms") or bare seconds (0.2)
func durationOption(field func(*Config) *time.Duration) option {
	return option{
		get: func(c *Config) any { return field(c).String() },
		set: func(c *Config, v any) error {
			d, err := ParseDuration(v)
			if err != nil {
				return err
			}
			*field(c) = d
			return nil
		},
	}
}

// ParseDuration reads a duration string or a number of seconds
func ParseDuration(v any) (time.Duration, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
		v = s
	}
	secs, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("expected duration: %w", err)
	}
	if secs < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// listOption accepts sequences or comma-separated strings
func listOption(field func(*Config) *[]string) option {
	return option{
		get: func(c *Config) any { return slices.Clone(*field(c)) },
		set: func(c *Config, v any) error {
			var out []string
			switch x := v.(type) {
			case []string:
				out = slices.Clone(x)
			case []any:
				for _, e := range x {
					s, ok := e.(string)
					if !ok {
						return fmt.Errorf("expected string list element, got %T", e)
					}
					out = append(out, s)
				}
			case string:
				for _, p := range strings.Split(x, ",") {
					if p = strings.TrimSpace(p); p != "" {
						out = append(out, p)
					}
				}
			default:
				return fmt.Errorf("expected list, got %T", v)
			}
			if out == nil {
				out = []string{}
			}
			*field(c) = out
			return nil
		},
	}
}

// mapOption accepts mappings or "key=value,key=value" strings
func mapOption(field func(*Config) *map[string]string) option {
	return option{
		get: func(c *Config) any { return maps.Clone(*field(c)) },
		set: func(c *Config, v any) error {
			out := make(map[string]string)
			switch x := v.(type) {
			case map[string]string:
				maps.Copy(out, x)
			case map[string]any:
				for k, e := range x {
					s, ok := e.(string)
					if !ok {
						return fmt.Errorf("expected string value for %q, got %T", k, e)
					}
					out[k] = s
				}
			case string:
				for _, p := range strings.Split(x, ",") {
					if p = strings.TrimSpace(p); p == "" {
						continue
					}
					k, val, ok := strings.Cut(p, "=")
					if !ok {
						return fmt.Errorf("expected key=value, got %q", p)
					}
					out[strings.TrimSpace(k)] = strings.TrimSpace(val)
				}
			default:
				return fmt.Errorf("expected mapping, got %T", v)
			}
			*field(c) = out
			return nil
		},
	}
}
