// Command mudra transcribes hand signs into complaint text.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/session"
)

var version = "dev"

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configPath     string
	vocabularyPath string
}

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:          "mudra",
		Short:        "Hand sign recognition for complaint transcription",
		Version:      version,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.vocabularyPath, "vocabulary", "", "path to a vocabulary YAML file")

	root.AddCommand(
		newServeCommand(opts),
		newReplayCommand(opts),
		newLiveCommand(opts),
		newVocabularyCommand(opts),
	)
	return root
}

// env is the configuration shared by the subcommands once loaded.
type env struct {
	cfg   *config.Config
	log   *logrus.Logger
	vocab *gesture.Vocabulary
}

func (o *globalOptions) load(stderr io.Writer) (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.vocabularyPath != "" {
		cfg.Vocabulary = o.vocabularyPath
	}

	vocab := gesture.DefaultVocabulary()
	if cfg.Vocabulary != "" {
		vocab, err = gesture.LoadVocabularyFile(cfg.Vocabulary)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
	}

	return &env{
		cfg:   cfg,
		log:   cfg.Log.NewLogger(stderr),
		vocab: vocab,
	}, nil
}

func (rt *env) sessionOptions() []session.Option {
	return []session.Option{
		session.WithLogger(rt.log),
		session.WithVocabulary(rt.vocab),
	}
}
