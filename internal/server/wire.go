package server

import (
	"time"

	"codeberg.org/mutker/thermotrack/internal/history"
	"codeberg.org/mutker/thermotrack/internal/tracker"
)

// WireVersion is bumped on any incompatible change to the JSON bodies below.
const WireVersion = 1

// WireSample is the JSON form of a Sample. Timestamp is Unix seconds.
type WireSample struct {
	Value     float64 `json:"value"`
	Timestamp float64 `json:"timestamp"`
	Time      string  `json:"time"`
}

type LatestResponse struct {
	Version int        `json:"version"`
	Sample  WireSample `json:"sample"`
}

// HistoryResponse carries a history snapshot, oldest sample first. A null
// capacity means the history is unbounded.
type HistoryResponse struct {
	Version       int          `json:"version"`
	Name          string       `json:"name"`
	PeriodSeconds float64      `json:"period_seconds"`
	Capacity      *int         `json:"capacity"`
	Origin        float64      `json:"origin"`
	Samples       []WireSample `json:"samples"`
}

type StatsResponse struct {
	Version int     `json:"version"`
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`

	// First and Last are Unix timestamps of the oldest and newest sample.
	First float64 `json:"first,omitempty"`
	Last  float64 `json:"last,omitempty"`
}

type HealthResponse struct {
	Status    string   `json:"status"`
	Sampling  bool     `json:"sampling"`
	Histories []string `json:"histories"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func toWireSample(s history.Sample) WireSample {
	return WireSample{
		Value:     s.Value(),
		Timestamp: s.Unix(),
		Time:      s.Time().UTC().Format(time.RFC3339Nano),
	}
}

func toHistoryResponse(snap tracker.Snapshot) HistoryResponse {
	resp := HistoryResponse{
		Version:       WireVersion,
		Name:          snap.Name,
		PeriodSeconds: snap.Period.Seconds(),
		Origin:        unixSeconds(snap.Origin),
		Samples:       make([]WireSample, len(snap.Samples)),
	}
	if snap.Bounded {
		capacity := snap.Capacity
		resp.Capacity = &capacity
	}
	for i, s := range snap.Samples {
		resp.Samples[i] = toWireSample(s)
	}

	return resp
}

func toStatsResponse(name string, sum history.Summary) StatsResponse {
	resp := StatsResponse{
		Version: WireVersion,
		Name:    name,
		Count:   sum.Count,
		Min:     sum.Min,
		Max:     sum.Max,
		Mean:    sum.Mean,
	}
	if sum.Count > 0 {
		resp.First = unixSeconds(sum.First)
		resp.Last = unixSeconds(sum.Last)
	}

	return resp
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
