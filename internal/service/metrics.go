package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	challengesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focusgate_challenges_issued_total",
		Help: "Total number of challenges issued.",
	})

	challengesVerified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focusgate_challenges_verified_total",
		Help: "Total number of challenge verifications by type and result.",
	}, []string{"type", "result"})

	unlocksGranted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focusgate_unlocks_granted_total",
		Help: "Total number of temporary unlocks granted.",
	})

	unlocksRevoked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focusgate_unlocks_revoked_total",
		Help: "Total number of temporary unlocks deactivated by reason.",
	}, []string{"reason"})

	gatingRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focusgate_gating_rejections_total",
		Help: "Total number of rejected challenge requests by reason code.",
	}, []string{"reason"})
)
