// Package services holds the application services between transport and the
// data layer: merge orchestration, freshness checks and gain queries.
package services
