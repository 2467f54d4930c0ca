// Package preflight provides readiness checks for the directories and the
// storage backend seasontrack depends on.
//
// The CLI "seasontrack status" command runs RunAll and renders each Result,
// and InspectStorage feeds the record counts shown beneath the checks.
package preflight
