package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"

	"spy-options-webhook/config"
	"spy-options-webhook/internal/database"
	"spy-options-webhook/internal/marketdata"
	"spy-options-webhook/internal/telegram"
	"spy-options-webhook/internal/webhook"
)

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	if err := database.InitDB(config.GetString("db_path")); err != nil {
		log.Errorf("Failed to initialize database, counters will not persist: %v", err)
	}
	defer database.CloseDB()

	market := marketdata.NewClient(
		config.GetString("market_data_url"),
		config.GetString("market_data_token"),
	)

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:     config.GetString("telegram_bot_token"),
		ChannelID: config.GetString("telegram_channel_id"),
		Debug:     config.GetBool("debug"),
	})
	if err != nil {
		// delivery degrades to always-false sends; the data endpoints keep working
		log.Errorf("Failed to create bot, continuing without delivery: %v", err)
	}

	server := webhook.NewServer(config.GetString("ticker"), market, bot)
	server.Metrics = webhook.NewMetrics()

	loadMetricsFromDB(server.Metrics)

	go func() {
		for {
			time.Sleep(5 * time.Minute)
			saveMetricsToDB(server.Metrics)
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		saveMetricsToDB(server.Metrics)
		log.Println("Metrics saved, shutting down...")
		os.Exit(0)
	}()

	go func() {
		if err := launchMetricsServer(config.GetInt("metrics_port")); err != nil {
			log.Errorf("Failed to start metrics server: %v", err)
		}
	}()

	// one unconditional boot-time notification before the listener is up
	server.SendStartupAlert()

	router := server.Router()

	addr := fmt.Sprintf(":%d", config.GetInt("port"))
	log.Infof("Launching webhook server on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		fallbackAddr := fmt.Sprintf("localhost:%d", config.GetInt("fallback_port"))
		log.Errorf("Failed to bind %s: %v. Trying %s...", addr, err, fallbackAddr)
		if err := http.ListenAndServe(fallbackAddr, router); err != nil {
			log.Fatalf("Failed to start webhook server: %v", err)
		}
	}
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting options webhook server...")
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}

func loadMetricsFromDB(m *webhook.Metrics) {
	sent, _ := database.GetMetric("notifications_sent")
	failures, _ := database.GetMetric("notification_failures")

	m.NotificationsSent.Add(sent)
	m.NotificationFailures.Add(failures)

	served, _ := database.GetMetricsWithLabel("requests_served")
	for endpoint, value := range served {
		m.RequestsServed.WithLabelValues(endpoint).Add(value)
	}

	log.Println("Metrics loaded from database.")
}

func saveMetricsToDB(m *webhook.Metrics) {
	database.SaveMetric("notifications_sent", getMetricValue(m.NotificationsSent))
	database.SaveMetric("notification_failures", getMetricValue(m.NotificationFailures))

	metricChan := make(chan prometheus.Metric, 16)
	go func() {
		m.RequestsServed.Collect(metricChan)
		close(metricChan)
	}()

	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Printf("Failed to read requests_served metric: %v", err)
			continue
		}
		var endpoint string
		for _, label := range metricProto.Label {
			if label.GetName() == "endpoint" {
				endpoint = label.GetValue()
			}
		}
		database.SaveMetricWithLabel("requests_served", "endpoint", endpoint, metricProto.Counter.GetValue())
	}

	log.Println("Metrics saved to database.")
}

func getMetricValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Printf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	}
	if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}
