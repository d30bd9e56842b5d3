package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hyperifyio/gonarrative/internal/session"
)

func (a *App) View() string {
	if a.quitting {
		return ""
	}
	switch a.view {
	case viewProfiles:
		return a.renderProfiles()
	case viewPrompt:
		return a.renderPrompt()
	case viewHelp:
		return a.renderHelp()
	default:
		return a.renderMain()
	}
}

func (a *App) renderMain() string {
	snap := a.sess.Snapshot()
	width := min(max(40, a.width-4), 100)
	var b strings.Builder

	b.WriteString(styleTitle.Render("gonarrative"))
	b.WriteString(styleMuted.Render("  financial narratives by audience"))
	b.WriteString("\n\n")

	// industry
	b.WriteString(styleLabel.Render("Industry"))
	if a.mode == inputIndustry {
		b.WriteString(a.input.View())
		b.WriteString(styleMuted.Render("  [tab] presets"))
	} else {
		b.WriteString(snap.Industry)
	}
	b.WriteString("\n")

	// file
	b.WriteString(styleLabel.Render("File"))
	switch {
	case a.mode == inputFile:
		b.WriteString(a.input.View())
	case snap.FileName != "":
		b.WriteString(fmt.Sprintf("%s %s", snap.FileName, styleMuted.Render(fmt.Sprintf("(%d metrics)", len(snap.Rows)))))
	default:
		b.WriteString(styleMuted.Render("none, press f to load a CSV"))
	}
	b.WriteString("\n")
	if snap.FileName != "" && len(snap.Rows) > 0 {
		b.WriteString(styleBox.Width(width).Render(a.preview.View()))
		b.WriteString("\n")
	}

	// profile
	b.WriteString(styleLabel.Render("Profile"))
	if snap.ProfileName != "" {
		b.WriteString(snap.ProfileName)
	} else {
		b.WriteString(styleMuted.Render("not selected"))
	}
	b.WriteString("\n\n")

	// generate
	switch {
	case snap.Generating:
		b.WriteString(a.spinner.View() + " Generating narrative...")
	case snap.CanGenerate:
		b.WriteString(styleOK.Render("[g] Generate narrative"))
	default:
		b.WriteString(styleMuted.Render("[g] Generate narrative (load a file and select a profile first)"))
	}
	b.WriteString("\n\n")

	// narrative
	if snap.Step == session.Generated {
		b.WriteString(styleBox.Width(width).Render(wrap(snap.Narrative, width-4)))
		b.WriteString("\n")
		b.WriteString(styleMuted.Render("[d] download .txt  [D] download .pdf"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if a.err != nil {
		b.WriteString(styleError.Render("Error: " + truncate(a.err.Error(), width*2)))
	} else if a.status != "" {
		b.WriteString(styleOK.Render(a.status))
	}
	b.WriteString("\n")
	b.WriteString(styleStatusBar.Render("[i] industry  [f] file  [x] remove  [s] profile  [g] generate  [p] prompt  [r] reset  [?] help  [q] quit"))
	return b.String()
}

func (a *App) renderProfiles() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Select the audience"))
	b.WriteString("\n\n")
	for i, p := range a.profiles {
		line := "  " + p.DisplayName
		if i == a.profileCursor {
			line = styleSelected.Render("> " + p.DisplayName)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if a.profileCursor < len(a.profiles) {
		p := a.profiles[a.profileCursor]
		b.WriteString("\n")
		b.WriteString(styleBox.Width(min(max(40, a.width-4), 100)).Render(
			wrap(p.Objective, min(max(40, a.width-4), 100)-4) + "\n\n" +
				styleMuted.Render(wrap(strings.Join(p.KeyMetrics, ", "), min(max(40, a.width-4), 100)-4))))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styleStatusBar.Render("[up/down] move  [enter] select  [esc] back"))
	return b.String()
}

func (a *App) renderPrompt() string {
	title := styleTitle.Render("Prompt sent to the model")
	footer := styleStatusBar.Render(fmt.Sprintf("%3.f%%  [up/down] scroll  [esc] back", a.viewport.ScrollPercent()*100))
	return lipgloss.JoinVertical(lipgloss.Left, title, "", a.viewport.View(), footer)
}

func (a *App) renderHelp() string {
	lines := []string{}
	for _, k := range []struct{ key, desc string }{
		{keys.Industry.Help().Key, "edit the industry label (tab cycles presets, blank restores the default)"},
		{keys.File.Help().Key, "load a CSV with metric and value columns"},
		{keys.Remove.Help().Key, "remove the loaded file"},
		{keys.Profile.Help().Key, "choose the audience profile"},
		{keys.Generate.Help().Key, "generate the narrative"},
		{keys.Prompt.Help().Key, "show the prompt that would be sent"},
		{keys.SaveText.Help().Key, "save the narrative as .txt"},
		{keys.SavePDF.Help().Key, "save the narrative as .pdf"},
		{keys.Reset.Help().Key, "start over"},
		{keys.Quit.Help().Key, "quit"},
	} {
		lines = append(lines, fmt.Sprintf("  %-4s %s", k.key, k.desc))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styleTitle.Render("Help"),
		"",
		styleBox.Render(strings.Join(lines, "\n")),
		"",
		styleStatusBar.Render("[esc] back"),
	)
}

// wrap breaks text on spaces to fit width, keeping paragraph breaks.
func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
