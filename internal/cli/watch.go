package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexkibler/sticker-nester/pkg/job"
)

func newWatchCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Follow an asynchronous job until it finishes",
		Long: `Watch polls a running job on the HTTP API and shows its status
live. When the job reaches a terminal state the final outcome is
printed and watch exits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newWatchModel(server, args[0])
			p := tea.NewProgram(m, tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if err != nil {
				return err
			}

			fm := final.(watchModel)
			if fm.err != nil {
				return fm.err
			}
			if fm.job == nil {
				return fmt.Errorf("job %s was not resolved", args[0])
			}
			printOutcome(fm.job)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "base URL of the nesting API")

	return cmd
}

// =============================================================================
// Bubbletea Model
// =============================================================================

type watchTickMsg time.Time

type watchPollMsg struct {
	job *job.Job
	err error
}

const watchPollInterval = 500 * time.Millisecond

type watchModel struct {
	server string
	jobID  string
	frame  int
	job    *job.Job
	err    error
}

func newWatchModel(server, jobID string) watchModel {
	return watchModel{server: server, jobID: jobID}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.poll(), watchTick())
}

func watchTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

// poll fetches the job record once.
func (m watchModel) poll() tea.Cmd {
	url := fmt.Sprintf("%s/api/nesting/jobs/%s", m.server, m.jobID)
	return tea.Tick(watchPollInterval, func(time.Time) tea.Msg {
		resp, err := http.Get(url)
		if err != nil {
			return watchPollMsg{err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return watchPollMsg{err: fmt.Errorf("job not found (it may have expired)")}
		}
		if resp.StatusCode != http.StatusOK {
			return watchPollMsg{err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
		}

		var rec job.Job
		if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
			return watchPollMsg{err: fmt.Errorf("failed to decode job: %w", err)}
		}
		return watchPollMsg{job: &rec}
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case watchTickMsg:
		m.frame++
		return m, watchTick()

	case watchPollMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.job = msg.job
		if m.job.Status.Terminal() {
			return m, tea.Quit
		}
		return m, m.poll()
	}
	return m, nil
}

func (m watchModel) View() string {
	if m.err != nil || (m.job != nil && m.job.Status.Terminal()) {
		return ""
	}

	status := "submitting"
	if m.job != nil {
		status = string(m.job.Status)
	}
	frame := spinnerFrames[m.frame%len(spinnerFrames)]
	return fmt.Sprintf("%s %s %s\n",
		styleIconSpinner.Render(frame),
		StyleDim.Render("job "+m.jobID),
		StyleValue.Render(status))
}

// printOutcome prints a terminal job record the same way pack prints a
// local result.
func printOutcome(j *job.Job) {
	switch j.Status {
	case job.StatusCompleted:
		printSuccess("Job %s completed", j.ID)
		if j.Result != nil {
			printSummary(j.Result)
		}
	case job.StatusCancelled:
		printWarning("Job %s was cancelled", j.ID)
	case job.StatusFailed:
		printError("Job %s failed: %s", j.ID, j.Error)
	default:
		printInfo("Job %s is %s", j.ID, j.Status)
	}
}
