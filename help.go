package guardian

import "strings"

// Help is the contextual help for a cursor position.
type Help struct {
	Title       string
	Description string
	Syntax      string
	Examples    []string
	Category    Category // empty for the welcome text
	Icon        string
}

var welcome = Help{
	Title:       "Bienvenido al IDE Guardián",
	Description: "Comienza escribiendo un comando o presiona Ctrl+Space para ver todas las opciones disponibles.",
	Syntax:      "Ejemplo: analizar puertos de 192.168.1.1",
}

// Help returns help for the line of ctx: a welcome text when the line has
// no words yet, or the help of the line's command. It reports false when
// the first word is not a command.
func (l *Lexicon) Help(ctx DocumentContext) (Help, bool) {
	if len(ctx.Words) == 0 {
		return welcome, true
	}
	cmd, ok := l.lookup(ctx.Words[0])
	if !ok {
		return Help{}, false
	}
	return CommandHelp(*cmd), true
}

// CommandHelp returns the help of a single command.
func CommandHelp(c CommandSpec) Help {
	c = c.clone()
	return Help{
		Title:       c.Name,
		Description: c.Description,
		Syntax:      c.Syntax,
		Examples:    c.Examples,
		Category:    c.Category,
		Icon:        c.Icon,
	}
}

// Markdown formats h for hover popups.
func (h Help) Markdown() string {
	var b strings.Builder
	b.WriteString("**" + h.Title + "**\n\n")
	b.WriteString(h.Description + "\n\n")
	b.WriteString("```\n" + h.Syntax + "\n```\n")
	if len(h.Examples) > 0 {
		b.WriteString("\nEjemplos:\n")
		for _, e := range h.Examples {
			b.WriteString("- `" + e + "`\n")
		}
	}
	if h.Category != "" {
		b.WriteString("\nCategoría: " + h.Category.DisplayName() + "\n")
	}
	return b.String()
}
