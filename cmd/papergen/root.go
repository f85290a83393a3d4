package main

import (
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/papergen/internal/backend"
	"github.com/csheth/papergen/internal/config"
	"github.com/csheth/papergen/internal/export"
	"github.com/csheth/papergen/internal/logging"
	"github.com/csheth/papergen/internal/speech"
	"github.com/csheth/papergen/internal/tui"
)

type rootOptions struct {
	configPath  string
	noAltScreen bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "papergen [FILE...]",
		Short: "Turn PDFs and images into notes, MCQs, exam papers or a study chat",
		Long: `PaperGen uploads lecture PDFs or scanned pages to the PaperGen service
and shows the result in the terminal.

Modes:
  - Generate Notes, Generate MCQs, Generate Exam Paper
  - Chat with PDF: ask follow-up questions about the uploaded files

Files given on the command line are preselected in the upload form.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts, args)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.String("backend", "", "PaperGen service base URL")
	flags.Bool("debug", false, "log at debug level")
	cmd.Flags().BoolVar(&opts.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")

	cmd.AddCommand(newGenerateCmd(opts), newVersionCmd())
	return cmd
}

// app holds the collaborators shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   backend.Client
	exporter *export.Pipeline
	speech   *speech.Toggle
}

func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	v := config.NewViper()
	if flag := cmd.Flags().Lookup("backend"); flag != nil {
		if err := v.BindPFlag("backend.base_url", flag); err != nil {
			return nil, fmt.Errorf("binding --backend: %w", err)
		}
	}
	cfg, err := config.Load(v, opts.configPath)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}

	client, err := backend.New(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	var engine speech.Engine
	if commandEngine, err := speech.NewCommandEngine(cfg.Speech.Command, logger); err != nil {
		logger.Info("speech disabled", zap.Error(err))
	} else {
		engine = commandEngine
	}

	exporter := export.NewPipeline(export.Config{
		Dir:      cfg.Export.Dir,
		Filename: cfg.Export.Filename,
		Fonts:    cfg.Export.Fonts,
		Logger:   logger,
	})
	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		exporter: exporter,
		speech:   speech.NewToggle(engine, logger),
	}, nil
}

func runTUI(cmd *cobra.Command, opts *rootOptions, args []string) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()
	a.logger.Info("starting tui", zap.String("backend", a.client.Endpoint()))

	programOpts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !opts.noAltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Backend:      a.client,
			Exporter:     a.exporter,
			Speech:       a.speech,
			Clipboard:    clipboard.WriteAll,
			Logger:       a.logger,
			InitialPaths: args,
		}),
		programOpts...,
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
