package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/partons-hub/partons/internal/logging"
	"github.com/partons-hub/partons/internal/server"
	"github.com/partons-hub/partons/internal/server/routes"
	"github.com/partons-hub/partons/internal/version"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the diagnostics HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadSession(opts, "startup")
			if err != nil {
				return err
			}
			if port > 0 {
				rt.cfg.Global.ListenPort = port
			}

			fields := logging.BaseFields("startup", rt.cfg.Path)
			fields["sources"] = len(rt.cfg.Sources)
			fields["listen_port"] = rt.cfg.Global.ListenPort
			fields["version"] = version.Full()
			rt.logger.WithFields(fields).Info("配置加载完成")

			return startHTTPServer(cmd, rt)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "override ListenPort")
	return cmd
}

func startHTTPServer(cmd *cobra.Command, rt *session) error {
	port := rt.cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     rt.logger,
		Registry:   rt.registry,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterSourceRoutes(app, rt.registry)

	go func() {
		<-cmd.Context().Done()
		_ = app.Shutdown()
	}()

	rt.logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
