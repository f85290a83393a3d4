package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/papergen/internal/docs"
	"github.com/csheth/papergen/internal/export"
	"github.com/csheth/papergen/internal/session"
)

type generateOptions struct {
	mode       string
	difficulty string
	language   string
	prompt     string
	pdf        bool
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate FILE...",
		Short: "Run one generation without the TUI and print the result",
		Long: `Upload the files once and print the generated markdown to stdout.
With --pdf the result is also exported to the configured export directory.
In chat mode --prompt is the question and the reply is printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, opts, args)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.mode, "mode", "notes", "notes, mcqs, exam or chat")
	flags.StringVar(&opts.difficulty, "difficulty", "easy", "easy, medium or hard")
	flags.StringVar(&opts.language, "language", "English", "English, Hindi, Hinglish, Spanish or French")
	flags.StringVar(&opts.prompt, "prompt", "", "custom instructions, or the question in chat mode")
	flags.BoolVar(&opts.pdf, "pdf", false, "also save the result as "+export.DefaultFilename)
	return cmd
}

func (o *generateOptions) params() (session.Params, error) {
	mode, err := session.ParseMode(o.mode)
	if err != nil {
		return session.Params{}, err
	}
	difficulty, err := session.ParseDifficulty(o.difficulty)
	if err != nil {
		return session.Params{}, err
	}
	language, err := session.ParseLanguage(o.language)
	if err != nil {
		return session.Params{}, err
	}
	return session.Params{
		Mode:               mode,
		Difficulty:         difficulty,
		Language:           language,
		CustomInstructions: o.prompt,
	}, nil
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions, paths []string) error {
	params, err := opts.params()
	if err != nil {
		return err
	}
	if params.Mode == session.ModeChat && strings.TrimSpace(params.CustomInstructions) == "" {
		return errors.New("chat mode needs a question in --prompt")
	}
	if opts.pdf && params.Mode == session.ModeChat {
		return errors.New("--pdf is only available for notes, mcqs and exam modes")
	}

	a, err := newApp(cmd, root)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	files, err := docs.Load(paths)
	if err != nil {
		return err
	}
	controller := session.New(session.WithLogger(a.logger))
	defer controller.Close()
	controller.Enter()
	controller.SelectFiles(files)

	sub, err := controller.Submit(params)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Uploading %s to %s…\n", controller.Files().Display(), a.client.Endpoint())
	result, genErr := a.client.Generate(cmd.Context(), sub)
	settle, _ := controller.Complete(sub.Token, result, genErr)
	controller.Settle(settle.Token)
	if genErr != nil {
		return fmt.Errorf("generation failed: %w", genErr)
	}

	out := cmd.OutOrStdout()
	if params.Mode == session.ModeChat {
		messages := controller.Messages()
		fmt.Fprintln(out, messages[len(messages)-1].Content)
		return nil
	}
	fmt.Fprintln(out, controller.Content())

	if !opts.pdf {
		return nil
	}
	exported, ok, err := a.exporter.Export(cmd.Context(), export.Region{Content: controller.Content()})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if !ok {
		fmt.Fprintln(cmd.ErrOrStderr(), "Nothing to export: the service returned no content.")
		return nil
	}
	a.logger.Info("headless export", zap.String("path", exported.Path))
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", exported.Path)
	return nil
}
