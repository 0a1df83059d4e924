package badger_local_kv

import (
	"github.com/dgraph-io/badger"
	"github.com/horockey/go-toolbox/prometheus_helpers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	cmdTimeHist    *prometheus.HistogramVec
	cmdResultsCnt  *prometheus.CounterVec
	keyHitsCnt     prometheus.Counter
	keyMissesCnt   prometheus.Counter
	keysScannedCnt prometheus.Counter
	keysMatchedCnt prometheus.Counter
	lsmSizeBytes   prometheus.GaugeFunc
	vlogSizeBytes  prometheus.GaugeFunc
}

func newMetrics(db *badger.DB) *metrics {
	const ss = "badger_local_kv"
	return &metrics{
		cmdTimeHist: prometheus.NewHistogramVec(*prometheus_helpers.NewHistOpts(
			"cmd_time_hist",
			prometheus_helpers.HistOptsWithSubsystem(ss),
			prometheus_helpers.HistOptsWithHelp("Command handle time distribution"),
		), []string{"cmd"}),
		cmdResultsCnt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "cmd_results_cnt",
			Subsystem: ss,
			Help:      "Count of finished commands by result",
		}, []string{"cmd", "result"}),
		keyHitsCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "key_hits_cnt",
			Subsystem: ss,
			Help:      "Count of GETs of existing keys",
		}),
		keyMissesCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "key_misses_cnt",
			Subsystem: ss,
			Help:      "Count of GETs of missing keys",
		}),
		keysScannedCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "keys_scanned_cnt",
			Subsystem: ss,
			Help:      "Count of keys visited by KEYS prefix iteration",
		}),
		keysMatchedCnt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "keys_matched_cnt",
			Subsystem: ss,
			Help:      "Count of keys returned by KEYS",
		}),
		lsmSizeBytes: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:      "lsm_size_bytes",
			Subsystem: ss,
			Help:      "Size of LSM tree files",
		}, func() float64 {
			lsm, _ := db.Size()
			return float64(lsm)
		}),
		vlogSizeBytes: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:      "vlog_size_bytes",
			Subsystem: ss,
			Help:      "Size of value log files",
		}, func() float64 {
			_, vlog := db.Size()
			return float64(vlog)
		}),
	}
}

func (m *metrics) list() []prometheus.Collector {
	return []prometheus.Collector{
		m.cmdTimeHist,
		m.cmdResultsCnt,
		m.keyHitsCnt,
		m.keyMissesCnt,
		m.keysScannedCnt,
		m.keysMatchedCnt,
		m.lsmSizeBytes,
		m.vlogSizeBytes,
	}
}
