package clickhouse

import "fmt"

// Schema returns the DDL for the SentiMatch tables inside database.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.price_bars (
	symbol LowCardinality(String),
	interval LowCardinality(String),
	open_time DateTime64(3, 'UTC'),
	open Float64,
	high Float64,
	low Float64,
	close Float64,
	volume Float64
) ENGINE = ReplacingMergeTree ORDER BY (symbol, interval, open_time)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.events (
	ts DateTime64(3, 'UTC'),
	sentiment LowCardinality(String),
	impact LowCardinality(String),
	source String
) ENGINE = MergeTree ORDER BY ts`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.window_results (
	run_id String,
	input_minutes UInt32,
	output_minutes UInt32,
	window_start DateTime64(3, 'UTC'),
	window_end DateTime64(3, 'UTC'),
	price_trend LowCardinality(String),
	events_list String,
	sentiment_all Nullable(String),
	sentiment_medhigh Nullable(String),
	sentiment_high Nullable(String)
) ENGINE = ReplacingMergeTree ORDER BY (run_id, input_minutes, output_minutes, window_start)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.match_rates (
	run_id String,
	input_minutes UInt32,
	output_minutes UInt32,
	level LowCardinality(String),
	matches UInt64,
	total UInt64,
	rate Nullable(Float64),
	threshold_pct Float64,
	evaluated_at DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree ORDER BY (run_id, input_minutes, output_minutes, level)`, database),
	}
}
