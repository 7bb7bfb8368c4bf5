package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/ports"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	overdueStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("9")).Padding(0, 1)
	upcomingStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("11")).Padding(0, 1)
	assignedStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("12")).Padding(0, 1)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderAlerts draws one banner per non-empty alert group
func renderAlerts(alerts *ports.TaskAlerts, days int) string {
	banners := []string{titleStyle.Render("Maintenance alerts")}

	if len(alerts.Overdue) > 0 {
		banners = append(banners, overdueStyle.Render(banner(
			fmt.Sprintf("%d overdue task(s)", len(alerts.Overdue)), alerts.Overdue, deadlineLine)))
	}
	if len(alerts.Upcoming) > 0 {
		banners = append(banners, upcomingStyle.Render(banner(
			fmt.Sprintf("%d task(s) due in the next %d day(s)", len(alerts.Upcoming), days), alerts.Upcoming, scheduledLine)))
	}
	if len(alerts.Assigned) > 0 {
		banners = append(banners, assignedStyle.Render(banner(
			fmt.Sprintf("%d task(s) assigned to you", len(alerts.Assigned)), alerts.Assigned, statusLine)))
	}

	if len(banners) == 1 {
		banners = append(banners, mutedStyle.Render("No alerts."))
	}
	return strings.Join(banners, "\n")
}

func banner(heading string, tasks []*entities.MaintenanceTask, line func(*entities.MaintenanceTask) string) string {
	lines := make([]string, 0, len(tasks)+1)
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(heading))
	for _, t := range tasks {
		lines = append(lines, line(t))
	}
	return strings.Join(lines, "\n")
}

func deadlineLine(t *entities.MaintenanceTask) string {
	return fmt.Sprintf("• %s (grave %s), deadline %s", t.Title, t.GraveID, t.Deadline)
}

func scheduledLine(t *entities.MaintenanceTask) string {
	return fmt.Sprintf("• %s (grave %s), scheduled %s", t.Title, t.GraveID, t.ScheduledDate)
}

func statusLine(t *entities.MaintenanceTask) string {
	return fmt.Sprintf("• %s [%s]", t.Title, t.Status)
}
