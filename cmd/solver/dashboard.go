package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lox/pokerforbots/cfr"
)

var (
	dashboardTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	dashboardLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	dashboardErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true)
)

type reportMsg cfr.Report

type trainDoneMsg struct{ err error }

// dashboardModel renders the live progress of a training run driven by
// TrainCmd.Run in the background. It never touches the driver directly;
// all state arrives over reports channel as reportMsg/trainDoneMsg.
type dashboardModel struct {
	game       string
	iterations int
	bar        progress.Model
	reports    <-chan reportMsg
	done       <-chan trainDoneMsg

	latest   cfr.Report
	started  time.Time
	finished bool
	err      error
}

func newDashboardModel(game string, iterations int, reports <-chan reportMsg, done <-chan trainDoneMsg) dashboardModel {
	return dashboardModel{
		game:       game,
		iterations: iterations,
		bar:        progress.New(progress.WithDefaultGradient()),
		reports:    reports,
		done:       done,
		started:    time.Now(),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(waitForReport(m.reports), waitForDone(m.done))
}

func waitForReport(ch <-chan reportMsg) tea.Cmd {
	return func() tea.Msg {
		rep, ok := <-ch
		if !ok {
			return nil
		}
		return rep
	}
}

func waitForDone(ch <-chan trainDoneMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 4
		return m, nil
	case reportMsg:
		m.latest = cfr.Report(msg)
		cmds := []tea.Cmd{waitForReport(m.reports)}
		if m.iterations > 0 {
			frac := float64(m.latest.Iteration) / float64(m.iterations)
			if frac > 1 {
				frac = 1
			}
			cmds = append(cmds, m.bar.SetPercent(frac))
		}
		return m, tea.Batch(cmds...)
	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(progress.Model)
		return m, cmd
	case trainDoneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m dashboardModel) View() string {
	header := dashboardTitleStyle.Render(fmt.Sprintf("solving %s", m.game))
	body := fmt.Sprintf(
		"%s\n\n%s\n\n%s %d   %s %.4f   %s %s   %s %s\n",
		header,
		m.bar.View(),
		dashboardLabelStyle.Render("iteration"), m.latest.Iteration,
		dashboardLabelStyle.Render("ci"), m.latest.CI,
		dashboardLabelStyle.Render("infosets"), fmt.Sprint(m.latest.StoreSize),
		dashboardLabelStyle.Render("elapsed"), time.Since(m.started).Round(time.Second),
	)
	if m.latest.HasExploitability {
		body += fmt.Sprintf("%s %.5f\n", dashboardLabelStyle.Render("exploitability"), m.latest.Exploitability)
	}
	if m.finished {
		if m.err != nil {
			body += "\n" + dashboardErrorStyle.Render(fmt.Sprintf("training failed: %v", m.err))
		} else {
			body += "\n" + dashboardTitleStyle.Render("training complete, press q to exit")
		}
	} else {
		body += "\n" + dashboardLabelStyle.Render("press q to quit (training continues in the background)")
	}
	return body
}

// runWithDashboard runs TrainCmd.Run in the background while presenting a
// live bubbletea dashboard fed by the driver's progress reports.
func (cmd *TrainCmd) runWithDashboard(ctx context.Context) error {
	reports := make(chan reportMsg, 8)
	done := make(chan trainDoneMsg, 1)

	gameName := cmd.Game
	if gameName == "" {
		gameName = "unknown"
	}

	go func() {
		err := cmd.Run(ctx, func(rep cfr.Report) {
			select {
			case reports <- reportMsg(rep):
			default:
			}
		})
		close(reports)
		done <- trainDoneMsg{err: err}
	}()

	model := newDashboardModel(gameName, cmd.Iterations, reports, done)
	program := tea.NewProgram(model)
	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	if fm, ok := finalModel.(dashboardModel); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
