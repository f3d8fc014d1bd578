package cmd

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lohith-badam/pishing-website-detection/detector"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web form and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, engine, err := setup()
		if err != nil {
			return err
		}
		port := cfg.Port
		if servePort != "" {
			port = servePort
		}

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           detector.NewServer(engine, log).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		log.Infof("phishing detector listening on :%s", port)
		log.Info("Endpoints:")
		log.Info("   GET  /            - URL form")
		log.Info("   POST /result      - Form submission")
		log.Info("   POST /api/check   - JSON classification")

		return srv.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Listen port (overrides PORT)")
}
