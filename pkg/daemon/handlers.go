package daemon

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/powerwatch/powerwatch/pkg/config"
	"github.com/powerwatch/powerwatch/pkg/version"
)

// MonitorStatus is the response of GET /monitor.
type MonitorStatus struct {
	Running              bool   `json:"running"`
	CheckIntervalSeconds int    `json:"check_interval_seconds"`
	LowBatteryThreshold  int    `json:"low_battery_threshold"`
	SamplesLastMinute    int    `json:"samples_last_minute"`
	NextTelemetryRefresh string `json:"next_telemetry_refresh,omitempty"`
}

func getSnapshot(c *gin.Context) {
	if c.Query("fresh") != "1" {
		if snap, ok := monitor.LastSnapshot(); ok {
			c.IndentedJSON(http.StatusOK, snap)
			return
		}
	}

	snap, err := prober.Sample(c.Request.Context())
	if err != nil {
		logrus.Errorf("getSnapshot failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusOK, snap)
}

func getTelemetry(c *gin.Context) {
	base, ok := monitor.LastSnapshot()
	if !ok {
		var err error
		base, err = prober.Sample(c.Request.Context())
		if err != nil {
			logrus.Errorf("getTelemetry failed: %v", err)
			c.IndentedJSON(http.StatusInternalServerError, err.Error())
			_ = c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
	}

	c.IndentedJSON(http.StatusOK, resolver.Resolve(c.Request.Context(), base))
}

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

// setConfig imports a whole config at once. Unset fields fall back to
// defaults, so an exported config from another machine imports cleanly.
func setConfig(c *gin.Context) {
	var rc config.RawFileConfig
	if err := c.BindJSON(&rc); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if err := rc.Validate(); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	// Reschedule before applying anything. Schedule keeps the old schedule
	// when the expression does not parse.
	cronExpr := ""
	if rc.TelemetryCron != nil {
		cronExpr = *rc.TelemetryCron
	}
	if err := sched.Schedule(cronExpr); err != nil {
		err = fmt.Errorf("invalid cron expression %q: %v", cronExpr, err)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.Replace(&rc)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.WithFields(conf.LogrusFields()).Infof("config imported")

	if err := restartMonitor(); err != nil {
		logrus.Errorf("restartMonitor failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, "config imported")
}

func resetConfig(c *gin.Context) {
	conf.Replace(nil)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// Defaults carry no cron schedule.
	_ = sched.Schedule("")

	logrus.WithFields(conf.LogrusFields()).Infof("config reset to defaults")

	if err := restartMonitor(); err != nil {
		logrus.Errorf("restartMonitor failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusOK, "config reset to defaults")
}

func getCheckInterval(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.CheckIntervalSeconds())
}

func setCheckInterval(c *gin.Context) {
	var n int
	if err := c.BindJSON(&n); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if n < 1 || n > 3600 {
		err := fmt.Errorf("check interval must be between 1 and 3600 seconds, got %d", n)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetCheckIntervalSeconds(n)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set check interval to %ds", n)

	if err := restartMonitor(); err != nil {
		logrus.Errorf("restartMonitor failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("check interval set to %ds", n))
}

func getLowBatteryThreshold(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.LowBatteryThreshold())
}

func setLowBatteryThreshold(c *gin.Context) {
	var t int
	if err := c.BindJSON(&t); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if t < 0 || t > 100 {
		err := fmt.Errorf("low battery threshold must be between 0 and 100, got %d", t)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetLowBatteryThreshold(t)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set low battery threshold to %d%%", t)

	if err := restartMonitor(); err != nil {
		logrus.Errorf("restartMonitor failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	msg := fmt.Sprintf("low battery threshold set to %d%%", t)
	if snap, ok := monitor.LastSnapshot(); ok && snap.BatteryPercentage <= t {
		msg += fmt.Sprintf(". Current charge is %d%%, so the low battery alert will fire on the next check.", snap.BatteryPercentage)
	}

	c.IndentedJSON(http.StatusCreated, msg)
}

func getSound(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.SoundEnabled())
}

func setSound(c *gin.Context) {
	var b bool
	if err := c.BindJSON(&b); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetSoundEnabled(b)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set alert sound to %t", b)

	c.IndentedJSON(http.StatusCreated, "ok")
}

func getAutoDismiss(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.AutoDismissAlerts())
}

func setAutoDismiss(c *gin.Context) {
	var b bool
	if err := c.BindJSON(&b); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetAutoDismissAlerts(b)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set auto dismiss alerts to %t", b)

	c.IndentedJSON(http.StatusCreated, "ok")
}

func getAutoStartup(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.AutoStartup())
}

// setAutoStartup mirrors the registry state into the config. The CLI edits
// the actual Run entry client-side; this flag is what status output and
// config export report.
func setAutoStartup(c *gin.Context) {
	var b bool
	if err := c.BindJSON(&b); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetAutoStartup(b)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set auto startup to %t", b)

	c.IndentedJSON(http.StatusCreated, "ok")
}

func getTelemetryCron(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.TelemetryCron())
}

func setTelemetryCron(c *gin.Context) {
	var expr string
	if err := c.BindJSON(&expr); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	// Schedule parses the expression, so it doubles as validation.
	if err := sched.Schedule(expr); err != nil {
		err = fmt.Errorf("invalid cron expression %q: %v", expr, err)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetTelemetryCron(expr)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if expr == "" {
		logrus.Info("scheduled telemetry refresh disabled")
		c.IndentedJSON(http.StatusCreated, "scheduled telemetry refresh disabled")
		return
	}

	logrus.Infof("set telemetry cron to %q", expr)
	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("telemetry refresh scheduled: %s", expr))
}

func getMonitor(c *gin.Context) {
	st := MonitorStatus{
		Running:              monitor.Running(),
		CheckIntervalSeconds: int(monitor.Interval() / time.Second),
		LowBatteryThreshold:  monitor.Threshold(),
		SamplesLastMinute:    monitor.RecentSamples(time.Minute),
	}
	if next, _ := sched.Status(); !next.IsZero() {
		st.NextTelemetryRefresh = next.Format(time.RFC3339)
	}

	c.IndentedJSON(http.StatusOK, st)
}

func pauseMonitor(c *gin.Context) {
	if !monitor.Running() {
		c.IndentedJSON(http.StatusOK, "monitoring is already paused")
		return
	}

	monitor.Stop()
	alerts.DismissAll()
	sseHub.PublishMonitorState(false)

	logrus.Info("monitoring paused by user")

	c.IndentedJSON(http.StatusOK, "monitoring paused")
}

func resumeMonitor(c *gin.Context) {
	if monitor.Running() {
		c.IndentedJSON(http.StatusOK, "monitoring is already running")
		return
	}

	monitor.SetInterval(time.Duration(conf.CheckIntervalSeconds()) * time.Second)
	monitor.SetThreshold(conf.LowBatteryThreshold())
	if err := startMonitor(); err != nil {
		logrus.Errorf("resumeMonitor failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Info("monitoring resumed by user")

	c.IndentedJSON(http.StatusOK, "monitoring resumed")
}

func getAlerts(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, alerts.Active())
}

func dismissAlerts(c *gin.Context) {
	// Body is optional. An alert identity dismisses that alert, no body
	// dismisses everything.
	var id string
	if err := c.ShouldBindJSON(&id); err != nil || id == "" {
		alerts.DismissAll()
		c.IndentedJSON(http.StatusOK, "all alerts dismissed")
		return
	}

	alerts.Dismiss(id)
	c.IndentedJSON(http.StatusOK, fmt.Sprintf("alert %q dismissed", id))
}

func testSound(c *gin.Context) {
	if err := alerts.TestSound(); err != nil {
		logrus.Errorf("testSound failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if !conf.SoundEnabled() {
		c.IndentedJSON(http.StatusOK, "sound is disabled in config, nothing was played")
		return
	}

	c.IndentedJSON(http.StatusOK, "alert sound played")
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
