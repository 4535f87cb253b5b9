package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Process-wide collectors. Registered on the default registry and served
// by StartMetricsServer.
var (
	EthereumTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "ethereum_transactions_total",
		Help:      "Raw transactions accepted for submission, by outcome.",
	}, []string{"outcome"})

	ConsensusClientResets = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "consensus_client_resets_total",
		Help:      "Consensus client reinitializations, by trigger.",
	}, []string{"trigger"})

	ConsensusTransactionFees = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "consensus_transaction_fees_tinybar_total",
		Help:      "Cumulative consensus transaction fees charged, in tinybar.",
	})

	FileAppendChunks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "file_append_chunks_total",
		Help:      "FileAppend chunks submitted during payload staging, by outcome.",
	}, []string{"outcome"})

	HbarLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "hbar_limit_rejections_total",
		Help:      "Submissions rejected by the HBAR budget limiter, by tier.",
	}, []string{"tier"})

	HbarSpent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "hbar_spent_tinybar_total",
		Help:      "HBAR expenses recorded against spending plans, in tinybar.",
	}, []string{"tier"})

	HashMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "transaction_hash_mismatches_total",
		Help:      "Background reconciliations whose mirror node hash differed from the locally computed one.",
	})

	PendingPoolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "relay",
		Name:      "pending_pool_size",
		Help:      "Transactions currently tracked by the pending pool.",
	})
)
