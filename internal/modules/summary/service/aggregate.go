package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	obstypes "stationdesk-server/internal/modules/observation/types"
	"stationdesk-server/internal/modules/summary/types"
)

// Measurement slots of the daily vector.
const (
	idxStationPressure = iota
	idxSeaLevelPressure
	idxDryBulb
	idxWetBulb
	idxMaxTemp
	idxMinTemp
	idxRainfall
	idxDewPoint
	idxHumidity
	idxMeanWindSpeed
	idxPrevailingWind
	idxMaxWindSpeed
	idxMaxWindDirection
	idxCloudAmount
	idxMinVisibility
	idxRainDuration
)

// Aggregate reduces a day of observations into a DailySummary. Every entry of
// every record takes part. Values that do not parse as numbers are skipped
// and a slot with no usable input is left empty. Only a malformed date is an
// error.
func Aggregate(records []obstypes.ObservationRecord, date, stationNo string) (types.DailySummary, error) {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return types.DailySummary{}, fmt.Errorf("aggregate: invalid date %q: %w", date, err)
	}

	var first []obstypes.FirstStageFields
	var second []obstypes.SecondStageFields
	for _, rec := range records {
		for _, e := range rec.FirstStage {
			first = append(first, e.FirstStageFields)
		}
		for _, e := range rec.SecondStage {
			second = append(second, e.SecondStageFields)
		}
	}

	var m [types.MeasurementCount]string
	m[idxStationPressure] = format(mean(numbers(first, func(f obstypes.FirstStageFields) string { return f.StationLevelPressure })))
	m[idxSeaLevelPressure] = format(mean(numbers(first, func(f obstypes.FirstStageFields) string { return f.CorrectedSeaLevelPressure })))
	m[idxDryBulb] = format(mean(numbers(first, func(f obstypes.FirstStageFields) string { return f.DryBulbAsRead })))
	m[idxWetBulb] = format(mean(numbers(first, func(f obstypes.FirstStageFields) string { return f.WetBulbAsRead })))
	maxMin := numbers(first, func(f obstypes.FirstStageFields) string { return f.MaxMinTempAsRead })
	m[idxMaxTemp] = format(maximum(maxMin))
	m[idxMinTemp] = format(minimum(maxMin))
	m[idxRainfall] = format(sum(numbers(second, func(f obstypes.SecondStageFields) string { return f.RainfallLast24Hours })))
	m[idxDewPoint] = format(mean(numbers(first, func(f obstypes.FirstStageFields) string { return f.DewPoint })))
	m[idxHumidity] = format(mean(numbers(first, func(f obstypes.FirstStageFields) string { return f.RelativeHumidity })))
	m[idxMeanWindSpeed] = format(mean(numbers(second, func(f obstypes.SecondStageFields) string { return f.WindSpeed })))
	m[idxPrevailingWind] = mode(second, func(f obstypes.SecondStageFields) string { return f.WindDirection })
	m[idxMaxWindSpeed], m[idxMaxWindDirection] = strongestWind(second)
	m[idxCloudAmount] = format(mean(numbers(second, func(f obstypes.SecondStageFields) string { return f.TotalCloudAmount })))
	m[idxMinVisibility] = format(minimum(numbers(first, func(f obstypes.FirstStageFields) string { return f.HorizontalVisibility })))
	m[idxRainDuration] = rainDuration(second)

	return types.DailySummary{
		StationNo:    stationNo,
		Date:         day.Format(time.DateOnly),
		DataType:     types.DataTypeSynoptic,
		Year:         day.Year(),
		Month:        int(day.Month()),
		Day:          day.Day(),
		Measurements: m,
	}, nil
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func numbers[T any](items []T, field func(T) string) []float64 {
	var out []float64
	for _, it := range items {
		if v, ok := parseNumber(field(it)); ok {
			out = append(out, v)
		}
	}
	return out
}

func sum(vs []float64) (float64, bool) {
	if len(vs) == 0 {
		return 0, false
	}
	var total float64
	for _, v := range vs {
		total += v
	}
	return total, true
}

func mean(vs []float64) (float64, bool) {
	total, ok := sum(vs)
	if !ok {
		return 0, false
	}
	return total / float64(len(vs)), true
}

func maximum(vs []float64) (float64, bool) {
	if len(vs) == 0 {
		return 0, false
	}
	out := vs[0]
	for _, v := range vs[1:] {
		out = math.Max(out, v)
	}
	return out, true
}

func minimum(vs []float64) (float64, bool) {
	if len(vs) == 0 {
		return 0, false
	}
	out := vs[0]
	for _, v := range vs[1:] {
		out = math.Min(out, v)
	}
	return out, true
}

// format renders v rounded half away from zero, or "" when there is no value.
func format(v float64, ok bool) string {
	if !ok {
		return ""
	}
	r := math.Round(v)
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'f', 0, 64)
}

// mode returns the most frequent non-empty value. Ties go to the value seen
// first.
func mode[T any](items []T, field func(T) string) string {
	counts := make(map[string]int)
	var order []string
	for _, it := range items {
		v := strings.TrimSpace(field(it))
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// strongestWind returns the rounded speed and the direction of the record
// with the highest wind speed. The first record wins a tie.
func strongestWind(items []obstypes.SecondStageFields) (string, string) {
	var (
		found     bool
		best      float64
		direction string
	)
	for _, it := range items {
		v, ok := parseNumber(it.WindSpeed)
		if !ok {
			continue
		}
		if !found || v > best {
			found, best, direction = true, v, strings.TrimSpace(it.WindDirection)
		}
	}
	if !found {
		return "", ""
	}
	return format(best, true), direction
}

// rainDuration sums end-start over records carrying both rain times. A
// negative span crossed midnight. The total is formatted HHMM.
func rainDuration(items []obstypes.SecondStageFields) string {
	total, seen := 0, false
	for _, it := range items {
		start, ok := clockMinutes(it.RainfallTimeStart)
		if !ok {
			continue
		}
		end, ok := clockMinutes(it.RainfallTimeEnd)
		if !ok {
			continue
		}
		d := end - start
		if d < 0 {
			d += 24 * 60
		}
		total += d
		seen = true
	}
	if !seen {
		return ""
	}
	return fmt.Sprintf("%02d%02d", total/60, total%60)
}

var clockLayouts = []string{"15:04", "1504", time.RFC3339}

// clockMinutes parses a time of day into minutes after midnight.
func clockMinutes(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}
