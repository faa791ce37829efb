package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/MartinT518/APEX-performance-sub001/pkg/coach"
	"github.com/MartinT518/APEX-performance-sub001/pkg/config"
	"github.com/MartinT518/APEX-performance-sub001/pkg/retry"
	"github.com/MartinT518/APEX-performance-sub001/pkg/rulestore"
)

type checkResult struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "warn", "fail"
	Detail string `json:"detail,omitempty"`
}

func runDoctorCmd(stdout, stderr io.Writer) int {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cfg := config.Load()
	results := []checkResult{{
		Name:   "go_runtime",
		Status: "ok",
		Detail: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}}

	if err := cfg.Validate(); err != nil {
		results = append(results, checkResult{Name: "config", Status: "fail", Detail: err.Error()})
	} else {
		results = append(results, checkResult{Name: "config", Status: "ok", Detail: "backend " + cfg.SnapshotBackend})
		results = append(results, checkStore(ctx, cfg))
	}

	if cfg.RulesSource == "" {
		results = append(results, checkResult{Name: "rules", Status: "warn", Detail: "RULES_SOURCE not set, using built-in table"})
	} else if table, err := rulestore.LoadConfigured(ctx, rulestore.Config{
		Location: cfg.RulesSource,
		Region:   cfg.AWSRegion,
		Endpoint: cfg.S3Endpoint,
	}, rulesPolicy()); err != nil {
		results = append(results, checkResult{Name: "rules", Status: "fail", Detail: err.Error()})
	} else {
		results = append(results, checkResult{Name: "rules", Status: "ok", Detail: "version " + table.Version()})
	}

	if cfg.PhasesFile == "" {
		results = append(results, checkResult{Name: "phases", Status: "warn", Detail: "PHASES_FILE not set, using fallback phase"})
	} else if _, err := loadCalendar(cfg.PhasesFile); err != nil {
		results = append(results, checkResult{Name: "phases", Status: "fail", Detail: err.Error()})
	} else {
		results = append(results, checkResult{Name: "phases", Status: "ok", Detail: cfg.PhasesFile})
	}

	results = append(results, checkRetry(cfg))

	if _, err := config.LoadThresholds(cfg.ThresholdsFile); err != nil {
		results = append(results, checkResult{Name: "thresholds", Status: "fail", Detail: err.Error()})
	} else {
		results = append(results, checkResult{Name: "thresholds", Status: "ok"})
	}

	allOK := true
	for _, r := range results {
		icon := ColorGreen + "ok" + ColorReset
		switch r.Status {
		case "warn":
			icon = ColorCyan + "warn" + ColorReset
		case "fail":
			icon = ColorRed + "FAIL" + ColorReset
			allOK = false
		}
		fmt.Fprintf(stdout, "  [%s] %-12s %s\n", icon, r.Name, r.Detail)
	}

	if !allOK {
		data, _ := json.Marshal(results)
		fmt.Fprintf(stderr, "doctor: %s\n", data)
		return 1
	}
	return 0
}

func checkStore(ctx context.Context, cfg *config.Config) checkResult {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return checkResult{Name: "store", Status: "fail", Detail: err.Error()}
	}
	defer func() { _ = st.Close() }()
	if err := st.Ping(ctx); err != nil {
		return checkResult{Name: "store", Status: "fail", Detail: err.Error()}
	}
	return checkResult{Name: "store", Status: "ok", Detail: st.Backend}
}

// checkRetry reports the snapshot write schedule for a sample key.
func checkRetry(cfg *config.Config) checkResult {
	policy := coach.SnapshotPolicy(cfg.SnapshotWriteAttempts)
	plan := retry.Plan(retry.Params{PolicyID: policy.PolicyID, Operation: "upsert", Key: "doctor"}, policy, time.Now())
	if len(plan) == 0 {
		return checkResult{Name: "retry", Status: "fail", Detail: "snapshot writes have no attempts"}
	}
	delays := make([]string, len(plan))
	for i, s := range plan {
		delays[i] = fmt.Sprintf("%dms", s.DelayMs)
	}
	return checkResult{
		Name:   "retry",
		Status: "ok",
		Detail: fmt.Sprintf("%d snapshot write attempts, delays %s", len(plan), strings.Join(delays, ",")),
	}
}
