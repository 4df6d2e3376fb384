package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/powerwatch/powerwatch/pkg/alert"
	"github.com/powerwatch/powerwatch/pkg/config"
	"github.com/powerwatch/powerwatch/pkg/events"
	"github.com/powerwatch/powerwatch/pkg/metrics"
	"github.com/powerwatch/powerwatch/pkg/powerinfo"
	"github.com/powerwatch/powerwatch/pkg/probe"
	"github.com/powerwatch/powerwatch/pkg/telemetry"
)

var (
	conf     config.Config
	prober   probe.Prober
	resolver *telemetry.Resolver
	monitor  *Monitor
	alerts   *alert.Manager
	sseHub   *events.EventHub
	sched    *Scheduler
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.Use(rateLimiter(rate.NewLimiter(rate.Limit(50), 100)))

	router.GET("/snapshot", getSnapshot)
	router.GET("/telemetry", getTelemetry)
	router.GET("/config", getConfig)
	router.PUT("/config", setConfig)
	router.POST("/config/reset", resetConfig)
	router.GET("/check-interval", getCheckInterval)
	router.PUT("/check-interval", setCheckInterval)
	router.GET("/low-battery-threshold", getLowBatteryThreshold)
	router.PUT("/low-battery-threshold", setLowBatteryThreshold)
	router.GET("/sound", getSound)
	router.PUT("/sound", setSound)
	router.GET("/auto-dismiss", getAutoDismiss)
	router.PUT("/auto-dismiss", setAutoDismiss)
	router.GET("/telemetry-cron", getTelemetryCron)
	router.PUT("/telemetry-cron", setTelemetryCron)
	router.GET("/auto-startup", getAutoStartup)
	router.PUT("/auto-startup", setAutoStartup)
	router.GET("/monitor", getMonitor)
	router.POST("/monitor/pause", pauseMonitor)
	router.POST("/monitor/resume", resumeMonitor)
	router.GET("/alerts", getAlerts)
	router.POST("/alerts/dismiss", dismissAlerts)
	router.POST("/alerts/test-sound", testSound)
	router.GET("/events", getEvents)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/version", getVersion)

	return router
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Warnf("failed to parse config during startup, using defaults: %v", err)
		conf = config.NewFileFromConfig(nil, configPath)
	}
	if err := conf.Validate(); err != nil {
		logrus.Warnf("config contains invalid values, using defaults: %v", err)
		conf = config.NewFileFromConfig(nil, configPath)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	sseHub = events.NewEventHub()
	resolver = telemetry.NewResolver(logrus.StandardLogger())
	prober = probe.NewSystemProbe(logrus.StandardLogger(), resolver)
	alerts = alert.NewManager(conf, sseHub, logrus.StandardLogger())
	monitor = NewMonitor(prober,
		time.Duration(conf.CheckIntervalSeconds())*time.Second,
		conf.LowBatteryThreshold(),
		logrus.StandardLogger())

	sched = NewScheduler(refreshTelemetry, func(data any) {
		logrus.Errorf("scheduler: %v", data)
	})
	if expr := conf.TelemetryCron(); expr != "" {
		if err := sched.Schedule(expr); err != nil {
			logrus.Warnf("invalid telemetry cron %q, scheduled refresh disabled: %v", expr, err)
		}
	}
	sched.Start()

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			if err := conf.Load(); err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")

			if err := sched.Schedule(conf.TelemetryCron()); err != nil {
				logrus.Errorf("failed to reschedule telemetry refresh: %v", err)
			}
			if err := restartMonitor(); err != nil {
				logrus.Errorf("failed to restart monitor: %v", err)
			}
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	if err := startMonitor(); err != nil {
		logrus.Fatal(err)
	}

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("stopping scheduler")
	sched.Stop()

	logrus.Info("stopping monitor")
	monitor.Stop()

	sseHub.Close()

	logrus.Info("exiting")
	return nil
}

// startMonitor launches the sampling loop and the goroutine that fans its
// events out to alerts and SSE subscribers.
func startMonitor() error {
	ch, err := monitor.Start()
	if err != nil {
		return err
	}
	go consumeMonitorEvents(ch)
	sseHub.PublishMonitorState(true)
	return nil
}

// restartMonitor applies the current config to the monitor. Interval and
// threshold only take effect on a fresh loop.
func restartMonitor() error {
	monitor.Stop()
	monitor.SetInterval(time.Duration(conf.CheckIntervalSeconds()) * time.Second)
	monitor.SetThreshold(conf.LowBatteryThreshold())
	return startMonitor()
}

func consumeMonitorEvents(ch <-chan MonitorEvent) {
	for mev := range ch {
		alerts.HandleEvent(mev.Event, mev.Snapshot)

		if mev.Event.Kind == powerinfo.EventStatusUpdate {
			sseHub.PublishStatus(mev.Snapshot)
		} else {
			sseHub.PublishTransition(mev.Event, mev.Snapshot)
		}
	}
}

// refreshTelemetry runs one full-depth sample and mirrors the result to SSE
// subscribers and metrics. Used by the cron scheduler.
func refreshTelemetry() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := prober.Sample(ctx)
	if err != nil {
		return err
	}

	metrics.ObserveSnapshot(snap)
	sseHub.PublishStatus(snap)

	logrus.WithFields(logrus.Fields{
		"acConnected":   snap.IsACConnected,
		"batteryCharge": snap.BatteryPercentage,
	}).Debug("scheduled telemetry refresh done")
	return nil
}
