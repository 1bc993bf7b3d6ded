package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"kmllinks/internal/domain"
	"kmllinks/internal/report"
	"kmllinks/internal/state"
)

type uiStyles struct {
	headerStyle lipgloss.Style
	mutedStyle  lipgloss.Style
	statusStyle lipgloss.Style
	warnStyle   lipgloss.Style
	cursorStyle lipgloss.Style
	linkStyle   lipgloss.Style
	panelBorder lipgloss.Style
}

func stylesFor(model Model) uiStyles {
	if strings.ToLower(model.session.Prefs.Theme) == "light" {
		return uiStyles{
			headerStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("235")),
			mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
			statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
			warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("124")).Bold(true),
			cursorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("90")).Bold(true),
			linkStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
			panelBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		}
	}
	return uiStyles{
		headerStyle: lipgloss.NewStyle().Bold(true),
		mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true),
		warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		cursorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		linkStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		panelBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func (model Model) View() string {
	styles := stylesFor(model)
	if model.showHelp {
		return renderHelpView(model, styles)
	}
	body := renderBody(model, styles)
	footer := renderFooter(model, styles)
	return strings.Join([]string{body, footer}, "\n")
}

func renderBody(model Model, styles uiStyles) string {
	bodyHeight := model.listHeight()
	leftWidth, rightWidth, showRight := splitPanels(model.width)
	left := renderTreePanel(model, styles, model.session.VisibleNodes(), bodyHeight, leftWidth)
	if !showRight {
		return left
	}
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("│")
	right := renderReportPanel(model, styles, rightWidth, bodyHeight)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, sep, right)
}

func renderFooter(model Model, styles uiStyles) string {
	statusStyle := styles.mutedStyle
	if model.warning {
		statusStyle = styles.warnStyle
	}
	statusLine := statusStyle.Render(trimStatus(model.message, model.width))

	rep := model.session.Report()
	auto := "Auto: off"
	if model.session.Prefs.AutoRefresh {
		auto = "Auto: on"
		if interval := refreshInterval(rep, model.cfg.MinRefresh); interval > 0 {
			auto = fmt.Sprintf("Auto: every %s", interval)
		}
	}
	left := fmt.Sprintf("Links: %d  Gen: %d  %s", len(rep.Entries), model.session.Generation(), auto)
	keys := "↑/↓ move  enter expand  r reload  a auto  t theme  ? help  q quit"
	footerLine := padLine(left, keys, model.width)
	return strings.Join([]string{statusLine, styles.mutedStyle.Render(footerLine)}, "\n")
}

func renderTreePanel(model Model, styles uiStyles, visible []state.VisibleNode, height, width int) string {
	if width < 20 {
		width = 20
	}
	contentWidth := maxInt(width-2, 10)
	status := strings.ToUpper(model.session.Status().String())
	headerLine := padLine(styles.headerStyle.Render("KML")+"  "+sourceLabel(model), styles.statusStyle.Render(status), contentWidth)
	listHeight := height - 1
	if listHeight < 1 {
		listHeight = 1
	}
	if len(visible) == 0 || model.session.Tree().Empty() {
		message := "No document loaded - press r"
		if model.session.Status() == domain.StatusLoading {
			message = "Loading..."
		}
		lines := []string{headerLine, message}
		for len(lines) < height {
			lines = append(lines, "")
		}
		return styles.panelBorder.Width(contentWidth).Render(strings.Join(lines, "\n"))
	}
	start := clamp(model.viewTop, 0, maxInt(len(visible)-1, 0))
	end := start + listHeight
	if end > len(visible) {
		end = len(visible)
	}

	lines := make([]string, 0, height)
	lines = append(lines, headerLine)
	for index := start; index < end; index++ {
		item := visible[index]
		node := item.Node
		indent := strings.Repeat("  ", item.Depth)
		name := node.Name
		if name == "" {
			name = "(unnamed)"
		}
		line := fmt.Sprintf("%s%s %s", indent, nodeIcon(model, node), name)
		if node.Kind == domain.NodeNetworkLink && node.RefreshInterval > 0 {
			line += styles.mutedStyle.Render(fmt.Sprintf("  ⟳ %ss", report.FormatInterval(node.RefreshInterval)))
		}
		if node.LoadError != "" {
			line += styles.warnStyle.Render("  !")
		}
		if index == model.session.Cursor {
			line = styles.cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return styles.panelBorder.Width(contentWidth).Render(strings.Join(lines, "\n"))
}

func renderReportPanel(model Model, styles uiStyles, width, height int) string {
	contentWidth := maxInt(width-2, 10)
	rep := model.session.Report()
	lines := []string{styles.headerStyle.Render("Network Links")}
	if len(rep.Entries) == 0 {
		lines = append(lines, styles.mutedStyle.Render("No network links"))
	}
	for _, entry := range rep.Entries {
		lines = append(lines, styles.linkStyle.Render(report.FormatEntry(entry)))
	}

	if node := model.session.CurrentNode(); node != nil {
		lines = append(lines, "", styles.headerStyle.Render("Selected"), node.Name, "Kind: "+node.Kind.String())
		if node.Kind == domain.NodeNetworkLink {
			if node.Href != "" {
				lines = append(lines, "Href: "+node.Href)
			}
			mode := node.RefreshMode
			if mode == "" {
				mode = "onChange"
			}
			lines = append(lines, fmt.Sprintf("Refresh: %s (%ss)", mode, report.FormatInterval(node.RefreshInterval)))
		}
		if node.Description != "" {
			lines = append(lines, node.Description)
		}
		if node.LoadError != "" {
			lines = append(lines, styles.warnStyle.Render("Error: "+node.LoadError))
		}
	}
	if err := model.session.LastError(); err != "" {
		lines = append(lines, "", styles.warnStyle.Render(loadErrorMessage), err)
	}

	content := strings.Join(lines, "\n")
	content = lipgloss.NewStyle().Width(contentWidth).Height(height).MaxHeight(height).Render(content)
	return styles.panelBorder.Width(contentWidth).Render(content)
}

func renderHelpView(model Model, styles uiStyles) string {
	lines := []string{styles.headerStyle.Render("kmllinks Help"), ""}
	lines = append(lines, "The left panel shows the loaded KML document.")
	lines = append(lines, "The right panel lists every network link with its refresh interval.")
	lines = append(lines, "Links inside folders are shown in the tree but not reported.")
	lines = append(lines, "", styles.headerStyle.Render("Keys"))
	for _, binding := range model.keys.bindings() {
		keysLabel := strings.Join(binding.Keys(), ", ")
		lines = append(lines, fmt.Sprintf("%-18s %s", keysLabel, binding.Help().Desc))
	}
	lines = append(lines, "", "Press ? to close help")
	width := model.width
	if width <= 0 {
		width = 80
	}
	return styles.panelBorder.Width(maxInt(width-2, 10)).Render(strings.Join(lines, "\n"))
}

func sourceLabel(model Model) string {
	if model.source != "" {
		return model.source
	}
	if model.cfg.ItemID != "" {
		return "item " + model.cfg.ItemID
	}
	return "-"
}

func nodeIcon(model Model, node *domain.Node) string {
	switch node.Kind {
	case domain.NodeNetworkLink:
		return "🔗"
	case domain.NodeContainer:
		if model.session.IsExpanded(node.ID) {
			return "📂"
		}
		return "📁"
	default:
		return "📍"
	}
}

func padLine(left, right string, width int) string {
	if width <= 0 {
		return left
	}
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", space) + right
}

func splitPanels(width int) (int, int, bool) {
	if width < 80 {
		return width, 0, false
	}
	left := int(float64(width) * 0.45)
	if left < 36 {
		left = 36
	}
	right := width - left - 1
	if right < 30 {
		return width, 0, false
	}
	return left, right, true
}

func trimStatus(message string, width int) string {
	if width <= 0 {
		return message
	}
	max := width - 4
	if max <= 0 || len(message) <= max {
		return message
	}
	return message[:max] + "..."
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
