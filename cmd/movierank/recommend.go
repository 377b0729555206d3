package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/movierank/internal/config"
	"github.com/vadimtrunov/movierank/internal/core"
	"github.com/vadimtrunov/movierank/internal/ranker"
)

const promptText = "Select the movie(s) you would like recommendations based on. Separated by a comma(,):"

// errSkipped marks a run that printed results but could not look up every title.
var errSkipped = errors.New("some titles were skipped")

type recommendOptions struct {
	plain bool
	json  bool
	limit int
}

func newRecommendCmd(root *rootOptions) *cobra.Command {
	opts := recommendOptions{}
	cmd := &cobra.Command{
		Use:   "recommend [titles...]",
		Short: "Rank titles related to the given movies",
		Long: "Look up titles related to each seed movie and print them sorted by rating.\n" +
			"Separate several seeds with commas. Without arguments the titles are read from stdin.",
		Example: `  movierank recommend "Black Panther, Captain Marvel"
  movierank recommend Se7en Zodiac --plain
  echo "Se7en" | movierank recommend --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("limit") && opts.limit < 0 {
				return errors.New("--limit must not be negative")
			}
			return runRecommend(cmd, root, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print results without the progress spinner")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "maximum number of ranked titles (overrides ranking.max_results)")
	return cmd
}

func runRecommend(cmd *cobra.Command, root *rootOptions, args []string, opts recommendOptions) error {
	cfg, err := loadConfig(root.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("limit") {
		cfg.Ranking.MaxResults = opts.limit
	}

	out := cmd.OutOrStdout()
	seeds, err := readSeeds(args, cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	logger := config.SetupLogger(cfg.App.LogLevel)
	svc, err := initServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	source := svc.ranker.Source()

	var res *ranker.Result
	if opts.plain || opts.json {
		res, err = svc.ranker.Rank(ctx, seeds)
		if err != nil {
			return fmt.Errorf("rank titles: %w", err)
		}
		if opts.json {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
		} else {
			fmt.Fprint(out, renderResult(res, source))
		}
	} else {
		p := tea.NewProgram(newRankModel(ctx, svc.ranker.Rank, seeds, source),
			tea.WithInput(nil), tea.WithOutput(out), tea.WithContext(ctx))
		m, err := p.Run()
		if err != nil {
			return fmt.Errorf("run recommend: %w", err)
		}

		rm, ok := m.(rankModel)
		if !ok {
			return fmt.Errorf("unexpected model type from tea program")
		}
		if rm.err != nil {
			return fmt.Errorf("rank titles: %w", rm.err)
		}
		if !rm.done {
			return errors.New("ranking interrupted")
		}
		res = rm.res
	}

	if res.HasSkipped() {
		return fmt.Errorf("%d title(s) could not be looked up: %w", len(res.Skipped), errSkipped)
	}
	return nil
}

// readSeeds returns the seed titles from args, or reads them from in.
// The prompt goes to prompt so stdout carries only results.
func readSeeds(args []string, in io.Reader, prompt io.Writer) ([]core.Title, error) {
	if len(args) > 0 {
		return splitArgs(args), nil
	}

	fmt.Fprintln(prompt, promptText)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read titles: %w", err)
	}
	return ranker.ParseTitles(line), nil
}

// splitArgs turns command-line arguments into titles. When any argument holds
// a comma the arguments are joined with spaces and split on commas, so
// unquoted multi-word titles work. Otherwise each argument is one title.
func splitArgs(args []string) []core.Title {
	for _, a := range args {
		if strings.Contains(a, ",") {
			return ranker.ParseTitles(strings.Join(args, " "))
		}
	}
	return ranker.ParseTitles(strings.Join(args, ","))
}

// renderResult formats a ranking for the terminal.
func renderResult(res *ranker.Result, source string) string {
	var sb strings.Builder

	if len(res.Titles) == 0 {
		sb.WriteString(styleDim.Render("No related titles found.") + "\n")
	} else {
		sb.WriteString(styleHeader.Render("Recommendations by "+source) + "\n")
		width := len(fmt.Sprint(len(res.Titles)))
		for i, t := range res.Titles {
			fmt.Fprintf(&sb, "%s %s  %s\n",
				styleDim.Render(fmt.Sprintf("%*d.", width, i+1)),
				styleTitle.Render(t.Title),
				renderScore(t),
			)
		}
	}

	if res.HasSkipped() {
		sb.WriteString("\n" + styleWarn.Render("Skipped:") + "\n")
		for _, s := range res.Skipped {
			fmt.Fprintf(&sb, "  - %s %s\n", s.Title, styleDim.Render("("+s.Stage+": "+s.Reason+")"))
		}
	}
	return sb.String()
}

func renderScore(t core.RankedTitle) string {
	if !t.Known {
		return styleDim.Render("n/a")
	}
	return styleInfo.Render(fmt.Sprintf("%d%%", t.Rating))
}

// rankFunc runs one ranking.
type rankFunc func(ctx context.Context, seeds []core.Title) (*ranker.Result, error)

// rankResultMsg carries the ranking back to the TUI.
type rankResultMsg struct {
	res *ranker.Result
	err error
}

type rankModel struct {
	ctx     context.Context
	rank    rankFunc
	seeds   []core.Title
	source  string
	spinner spinner.Model
	res     *ranker.Result
	err     error
	done    bool
}

func newRankModel(ctx context.Context, rank rankFunc, seeds []core.Title, source string) rankModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo
	return rankModel{
		ctx:     ctx,
		rank:    rank,
		seeds:   seeds,
		source:  source,
		spinner: s,
	}
}

func (m rankModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runRank())
}

func (m rankModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case rankResultMsg:
		m.res = msg.res
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m rankModel) View() string {
	if m.done {
		if m.err != nil {
			return styleError.Render("Error: "+m.err.Error()) + "\n"
		}
		return renderResult(m.res, m.source)
	}
	return m.spinner.View() + styleDim.Render(fmt.Sprintf(" Ranking titles related to %s...", strings.Join(m.seeds, ", "))) + "\n"
}

func (m rankModel) runRank() tea.Cmd {
	return func() tea.Msg {
		res, err := m.rank(m.ctx, m.seeds)
		return rankResultMsg{res: res, err: err}
	}
}
