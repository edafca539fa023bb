package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/fingerspell/internal/animation"
	"github.com/ayusman/fingerspell/internal/app"
	"github.com/ayusman/fingerspell/internal/config"
	"github.com/ayusman/fingerspell/internal/monitoring"
	"github.com/ayusman/fingerspell/internal/server"
	"github.com/ayusman/fingerspell/internal/store"
	"github.com/ayusman/fingerspell/internal/tray"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "fingerspell",
		Short:         "Fingerspelling trainer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults when empty)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newTimelineCmd(&configPath))
	root.AddCommand(newLettersCmd(&configPath))
	root.AddCommand(newTrainCmd(&configPath))
	root.AddCommand(newConfigCmd(&configPath))
	return root
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func openStore(configPath string) (*store.Store, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return store.New(cfg.Store.Path)
}

func newServeCmd(configPath *string) *cobra.Command {
	var withTray, open bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the camera pipeline and the web trainer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, withTray, open)
		},
	}
	cmd.Flags().BoolVar(&withTray, "tray", false, "show a menu bar icon")
	cmd.Flags().BoolVar(&open, "open", false, "open the trainer in the browser on start")
	return cmd
}

func serve(parent context.Context, cfg config.Config, withTray, open bool) error {
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	hub := server.NewHub()
	a, err := app.New(cfg, app.Options{Store: st, Events: hub})
	if err != nil {
		return err
	}

	webDir := findWebDir()
	if webDir != "" {
		monitoring.Logf("Serving static files from: %s", webDir)
	}
	srv := server.New(server.Config{StaticDir: webDir, Store: st, App: a, Hub: hub})

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Run(gctx) })
	g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Server.Addr) })

	url := "http://" + cfg.Server.Addr
	if open {
		openBrowser(url)
	}

	if withTray {
		t := tray.New()
		t.OnToggle(a.SetEnabled)
		t.OnAccepting(func(accepting bool) {
			if err := a.SetAccepting(gctx, accepting); err != nil {
				monitoring.Logf("Failed to set accepting: %v", err)
			}
		})
		t.OnSkip(func() {
			if err := a.Skip(gctx); err != nil {
				monitoring.Logf("Failed to skip: %v", err)
			}
		})
		t.OnSettings(func() { openBrowser(url) })
		t.OnQuit(stop)

		go followQuiz(gctx, a, t)
		go func() {
			<-gctx.Done()
			t.Quit()
		}()
		// Blocks on the main goroutine until quit.
		t.Run()
		stop()
	}

	return g.Wait()
}

// followQuiz keeps the tray's current letter in step with the quiz.
func followQuiz(ctx context.Context, a *app.App, t *tray.Tray) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		st, err := a.QuizStatus(ctx)
		if err != nil {
			if !errors.Is(err, app.ErrNotRunning) {
				monitoring.Logf("Failed to read quiz status: %v", err)
			}
			continue
		}
		if st.Current != t.Current() {
			t.SetCurrent(st.Current)
		}
	}
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		monitoring.Logf("Unsupported platform: %s", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		monitoring.Logf("Failed to open browser: %v", err)
	}
}

// findWebDir returns the first of web, ../web, ../../web and
// <config dir>/fingerspell/web that exists, or "".
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	web := filepath.Join(dir, "fingerspell", "web")
	if info, err := os.Stat(web); err == nil && info.IsDir() {
		return web
	}
	return ""
}

func newTimelineCmd(configPath *string) *cobra.Command {
	var hand string

	cmd := &cobra.Command{
		Use:   "timeline <word>",
		Short: "Print the clip schedule for a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if hand == "" {
				hand = cfg.Animation.Handedness
			}

			var catalog *animation.Catalog
			if cfg.Animation.Clips != "" {
				catalog, err = animation.LoadCatalog(cfg.Animation.Clips)
			} else {
				catalog, err = animation.DefaultCatalog()
			}
			if err != nil {
				return err
			}

			clips, err := catalog.Sequence(args[0], hand)
			if err != nil {
				return err
			}
			sc := cfg.Scheduler()
			tl := animation.NewTimeline(clips, sc.Style, sc.Idle())

			out := cmd.OutOrStdout()
			for _, w := range tl.Windows() {
				_, _ = fmt.Fprintf(out, "%d\t%s\t%6.3fs\t%6.3fs\t%5.1f%%\t%s\n",
					w.Index, w.Glyph, w.Start, w.End, w.Proportion*100, clips[w.Index].Directory+"/"+w.File)
			}
			_, _ = fmt.Fprintf(out, "total %.3fs (%s, %s hand)\n", tl.TotalDuration(), sc.Style, hand)
			return nil
		},
	}
	cmd.Flags().StringVar(&hand, "hand", "", "left or right (config default when empty)")
	return cmd
}

func newLettersCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "letters",
		Short: "List the trained letters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer st.Close()

			letters, err := st.Letters().List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(letters) == 0 {
				_, _ = fmt.Fprintln(out, "no letters")
				return nil
			}
			for _, l := range letters {
				_, _ = fmt.Fprintf(out, "%s\t%s\t%s\ttolerance=%.2f\tsamples=%d\n", l.ID, l.Name, l.Kind, l.Tolerance, l.Samples)
			}
			return nil
		},
	}
}

func newTrainCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "train <letter>",
		Short: "Rebuild a letter's template from its recorded samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer st.Close()

			l, err := st.Letters().GetByName(strings.ToUpper(args[0]))
			if errors.Is(err, store.ErrNotFound) {
				l, err = st.Letters().GetByID(args[0])
			}
			if err != nil {
				return fmt.Errorf("letter %s: %w", args[0], err)
			}

			trained, err := app.TrainLetter(st, l.ID)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "trained %s (%s) from %d samples\n", trained.Name, trained.Kind, trained.Samples)
			return nil
		},
	}
}

func newConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
