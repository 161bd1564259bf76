// Package metrics 帮助中心的 Prometheus 指标
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 持有独立注册表及全部指标
//
// Record 系列方法对 nil 接收者安全，未启用指标时服务层直接传 nil
type Metrics struct {
	reg *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge

	cacheLookups *prometheus.CounterVec
	tickets      *prometheus.CounterVec
	replies      *prometheus.CounterVec
	returns      *prometheus.CounterVec
	emails       *prometheus.CounterVec
	articleViews prometheus.Counter
}

// New 创建指标并注册到新的注册表，同时采集 Go 运行时与进程指标
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "helpcenter"
	}
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
	}

	m := &Metrics{
		reg:      prometheus.NewRegistry(),
		requests: counter("http_requests_total", "HTTP requests by route and status", "method", "route", "status"),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),
		cacheLookups: counter("cache_lookups_total", "Catalog cache lookups", "cache", "result"),
		tickets:      counter("tickets_created_total", "Tickets created by type", "type"),
		replies:      counter("ticket_replies_total", "Admin replies and internal notes", "kind"),
		returns:      counter("return_requests_total", "Return requests by reason", "reason"),
		emails:       counter("emails_total", "Notification emails attempted", "kind", "result"),
		articleViews: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "article_views_total",
			Help:      "Public article page views",
		}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.inFlight,
		m.cacheLookups, m.tickets, m.replies, m.returns, m.emails, m.articleViews,
	)
	return m
}

// Middleware 按路由模板统计请求，跳过 skipPath
func (m *Metrics) Middleware(skipPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == skipPath {
			c.Next()
			return
		}

		m.inFlight.Inc()
		start := time.Now()
		c.Next()
		m.inFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler 暴露本注册表的指标
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg}))
}

func (m *Metrics) RecordCacheHit(cache string)  { m.cacheLookup(cache, "hit") }
func (m *Metrics) RecordCacheMiss(cache string) { m.cacheLookup(cache, "miss") }

func (m *Metrics) cacheLookup(cache, result string) {
	if m != nil {
		m.cacheLookups.WithLabelValues(cache, result).Inc()
	}
}

func (m *Metrics) RecordTicketCreated(ticketType string) {
	if m != nil {
		m.tickets.WithLabelValues(ticketType).Inc()
	}
}

// RecordTicketReply kind 为 reply 或 note
func (m *Metrics) RecordTicketReply(kind string) {
	if m != nil {
		m.replies.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) RecordReturnRequest(reason string) {
	if m != nil {
		m.returns.WithLabelValues(reason).Inc()
	}
}

// RecordEmail 按 err 记为 sent 或 failed
func (m *Metrics) RecordEmail(kind string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.emails.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RecordArticleView() {
	if m != nil {
		m.articleViews.Inc()
	}
}
