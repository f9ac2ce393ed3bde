// Package models holds the persisted domain entities shared across the
// store, matching pipeline, and HTTP layers.
package models

// ProjectStatus is the closed set of states a Project can occupy.
type ProjectStatus string

const (
	ProjectQueued     ProjectStatus = "queued"
	ProjectProcessing ProjectStatus = "processing"
	ProjectFinished   ProjectStatus = "finished"
	ProjectError      ProjectStatus = "error"
	ProjectCancelled  ProjectStatus = "cancelled"
)

// MatchStatus is the closed vocabulary a BomItemMatch.Status must belong
// to. Every processed BomItem ends in exactly one of these.
type MatchStatus string

const (
	MatchMatched                MatchStatus = "matched"
	MatchSearchTermFailed       MatchStatus = "search_term_failed"
	MatchNoKeywordResults       MatchStatus = "no_keyword_results"
	MatchEvaluationFailed       MatchStatus = "evaluation_failed"
	MatchMpnLookupFailed        MatchStatus = "mpn_lookup_failed"
	MatchComponentDbError       MatchStatus = "component_db_error"
	MatchLlmError               MatchStatus = "llm_error"
	MatchMouserError            MatchStatus = "mouser_error"
	MatchProcessingError        MatchStatus = "processing_error"
	MatchDbSaveError            MatchStatus = "db_save_error"
	MatchWorkerUncaughtException MatchStatus = "worker_uncaught_exception"
)

// PotentialMatchState is the selection state of a PotentialBomMatch.
type PotentialMatchState string

const (
	PotentialProposed PotentialMatchState = "proposed"
	PotentialSelected PotentialMatchState = "selected"
	PotentialRejected PotentialMatchState = "rejected"
)

// SearchType distinguishes the two distributor search shapes cached by
// DistributorCache.
type SearchType string

const (
	SearchKeyword SearchType = "keyword"
	SearchMpn     SearchType = "mpn"
)
