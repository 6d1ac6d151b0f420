// Package main On-Demand Crash Reporting API
//
//	@title			On-Demand Crash Reporting API
//	@version		1.0
//	@description	Quota-gated on-demand exception reporting with paced uploads and unsent report management.
//
//	@host			localhost:8080
//	@BasePath		/api/v1
//
//	@tag.name			OnDemand
//	@tag.description	Exception ingestion and quota state
//
//	@tag.name			Reports
//	@tag.description	Unsent report management
//
//	@tag.name			DataCollection
//	@tag.description	Data collection consent
package main
