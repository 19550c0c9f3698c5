package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/flagz/internal/i18n"
	"github.com/abhisek/flagz/internal/logger"
	"github.com/abhisek/flagz/internal/mnemonic"
	"github.com/abhisek/flagz/internal/roster"
)

var hookCmd = &cobra.Command{
	Use:   "hook <code>",
	Short: "Preview an LLM memory hook for a flag (no database)",
	Long: `Generate a memory hook for one flag with the configured LLM provider.

This is a stateless developer tool: no store is opened and no progress
is recorded. Useful for evaluating hook quality across providers.`,
	Args: cobra.ExactArgs(1),
	RunE: runHook,
}

func runHook(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	code := strings.ToLower(args[0])

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg, false)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	source := roster.EmbeddedSource()
	if cfg.Roster != "" {
		source = roster.FileSource(cfg.Roster)
	}
	loader := roster.NewLoader(source, log)
	if err := loader.Load(ctx); err != nil {
		return err
	}
	country, ok := roster.Index(loader.Countries())[code]
	if !ok {
		return fmt.Errorf("unknown flag %q", code)
	}

	provider, err := newProvider(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	svc := mnemonic.NewService(provider, mnemonic.DefaultConfig(), log.Named("mnemonic"))

	loc := i18n.New(cfg.Lang)
	fmt.Printf("Flag: %s (%s, %s) via %s\n\n",
		loc.CountryName(country), country.Code, loc.ContinentName(country.Continent), provider.ModelID())

	hook, err := svc.Generate(ctx, mnemonic.Input{
		Code:      country.Code,
		Country:   loc.CountryName(country),
		Continent: loc.ContinentName(country.Continent),
		Language:  loc.Lang().String(),
	})
	if err != nil {
		log.Debug("hook generation failed", zap.Error(err))
		return fmt.Errorf("generate hook: %w", err)
	}
	fmt.Println(hook.Text)
	return nil
}
