package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lohith-badam/pishing-website-detection/config"
	"github.com/lohith-badam/pishing-website-detection/detector"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "phishdetect",
	Short: "Classify URLs as safe or phishing",
	Long: `phishdetect scores a URL with lexical heuristics, WHOIS age, live redirect
behaviour, allow/deny lists, Google Safe Browsing and an optional
pre-trained model, and reports a Safe / Phishing / Unknown verdict.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.AddCommand(serveCmd, checkCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the shared, read-only engine.
func setup() (config.Config, *logrus.Logger, *detector.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return cfg, nil, nil, err
	}

	lists := detector.DefaultLists()
	if cfg.ListsFile != "" {
		lists, err = detector.LoadLists(cfg.ListsFile)
		if err != nil {
			return cfg, nil, nil, err
		}
		log.WithField("file", cfg.ListsFile).Info("[Lists] loaded custom allow/deny lists")
	}

	var classifier detector.Classifier
	if c, err := detector.LoadClassifier(cfg.ModelPath); err != nil {
		log.WithField("path", cfg.ModelPath).Warnf("[Model] running without classifier: %v", err)
	} else {
		classifier = c
		log.WithField("path", cfg.ModelPath).Info("[Model] classifier loaded")
	}

	if cfg.SafeBrowsingKey == "" {
		log.Warn("[SafeBrowsing] GOOGLE_SAFE_BROWSING_KEY not set, threat lookup disabled")
	}

	engine := detector.NewEngine(detector.EngineConfig{
		Lists:         lists,
		Extractor:     detector.NewExtractor(cfg.LookupTimeout, log),
		Threats:       detector.NewSafeBrowsing(cfg.SafeBrowsingKey, cfg.LookupTimeout, cfg.SafeBrowsingRPS, log),
		Classifier:    classifier,
		RiskThreshold: cfg.RiskThreshold,
		Log:           log,
	})
	return cfg, log, engine, nil
}
