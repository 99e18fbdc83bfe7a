package constants

// Stage names a pipeline step; used in logs, timings and persisted records.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageSnapshot  Stage = "snapshot"
	StagePrompt    Stage = "prompt"
	StageComplete  Stage = "complete"
	StageParse     Stage = "parse"
	StageCrossRef  Stage = "crossref"
	StageAggregate Stage = "aggregate"
	StageAssemble  Stage = "assemble"
)

// OfferStatus is stored with each offer record.
type OfferStatus string

const (
	OfferStatusGenerated OfferStatus = "GENERATED"
	OfferStatusRebuilt   OfferStatus = "REBUILT"
	OfferStatusFailed    OfferStatus = "FAILED"
)
