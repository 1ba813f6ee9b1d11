package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ngmaloney/marine-navigator/internal/config"
	"github.com/ngmaloney/marine-navigator/internal/models"
	"github.com/ngmaloney/marine-navigator/internal/navigation"
	"github.com/ngmaloney/marine-navigator/internal/simulate"
	"github.com/ngmaloney/marine-navigator/internal/ui"
)

var navigateCmd = &cobra.Command{
	Use:   "navigate [route]",
	Short: "Run the navigation console on a saved route",
	Long: "Starts turn-by-turn navigation along a saved route using a simulated GPS that " +
		"sails the route. Use --resume to continue the last interrupted session.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// the console owns the terminal, so logs go to a file
		if cfg.Log.File == "" {
			cfg.Log.File = filepath.Join(filepath.Dir(cfg.Data.DBPath), "marine-nav.log")
			if err := config.InitLogger(cfg.Log); err != nil {
				return eris.Wrap(err, "init logger")
			}
		}

		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		resume, _ := cmd.Flags().GetBool("resume")
		r, err := selectRoute(svc, args, resume)
		if err != nil {
			return err
		}

		speed, _ := cmd.Flags().GetFloat64("speed")
		timeScale, _ := cmd.Flags().GetFloat64("time-scale")
		interval, _ := cmd.Flags().GetDuration("interval")
		dropoutEvery, _ := cmd.Flags().GetInt("dropout-every")

		stopPruner, err := svc.catalog.StartPruner(cfg.Hazards.PruneSchedule)
		if err != nil {
			return err
		}
		defer stopPruner()

		replay := simulate.NewReplay(simulate.Options{
			Route:        *r,
			SpeedKnots:   speed,
			Interval:     interval,
			TimeScale:    timeScale,
			DropoutEvery: dropoutEvery,
		})

		ctrl := navigation.New(navigation.Options{
			Position:    replay,
			Orientation: replay,
			Capabilities: navigation.Capabilities{
				Haptics: terminalBell{},
				Speech:  loggedSpeech{log: zap.L().Named("speech")},
			},
			Store:      svc.store,
			Thresholds: navigationThresholds(),
		})
		alerts := navigation.NewAlertLog(cfg.Navigation.AlertLogSize, 0, nil)

		// subscribe first so navigationStarted reaches the console
		events := ui.Subscribe(ctrl, 64)
		if err := ctrl.Start(ctx, *r); err != nil {
			return err
		}
		defer ctrl.Stop()

		p := tea.NewProgram(ui.NewModel(ctrl, events, alerts), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return eris.Wrap(err, "navigation console")
		}

		st := ctrl.Status()
		fmt.Fprintf(os.Stdout, "Navigation %s after %d position fix(es).\n", st.Phase, st.HistorySize)
		return nil
	},
}

// selectRoute loads the named route, or the cached active route with
// --resume.
func selectRoute(svc *services, args []string, resume bool) (*models.Route, error) {
	if resume {
		r, err := navigation.New(navigation.Options{Store: svc.store}).CachedRoute()
		if err != nil {
			return nil, eris.Wrap(err, "load active route")
		}
		if r == nil {
			return nil, eris.New("no interrupted navigation session to resume")
		}
		return r, nil
	}
	if len(args) == 0 {
		return nil, eris.New("a route name or id is required (or use --resume)")
	}
	return svc.routes.GetRoute(args[0])
}

// terminalBell stands in for haptic feedback
type terminalBell struct{}

func (terminalBell) Vibrate([]time.Duration) {
	fmt.Fprint(os.Stderr, "\a")
}

// loggedSpeech records announcements in the log
type loggedSpeech struct {
	log *zap.Logger
}

func (s loggedSpeech) Speak(text string) {
	s.log.Info("announcement", zap.String("text", text))
}

func init() {
	navigateCmd.Flags().Float64("speed", 0, "simulated speed in knots (default: route speed)")
	navigateCmd.Flags().Float64("time-scale", 30, "simulated seconds per real second")
	navigateCmd.Flags().Duration("interval", simulate.DefaultInterval, "time between position fixes")
	navigateCmd.Flags().Int("dropout-every", 0, "simulate a GPS dropout every n fixes (0 disables)")
	navigateCmd.Flags().Bool("resume", false, "resume the last interrupted session")
}
